package tree

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	TreeStatsName = "xbst/tree"
)

// treeStats is nil-safe, so an engine without stats calls it blindly.
type treeStats struct {
	engine         attribute.KeyValue
	insertCount    metric.Int64Counter
	deleteCount    metric.Int64Counter
	rotationCount  metric.Int64Counter
	rebalanceCount metric.Int64Counter
	size           metric.Int64ObservableGauge
	sizeReg        metric.Registration
}

func (stats *treeStats) IncreaseInsertCount() {
	if stats == nil {
		return
	}
	stats.insertCount.Add(context.Background(), 1, metric.WithAttributes(stats.engine))
}

func (stats *treeStats) IncreaseDeleteCount() {
	if stats == nil {
		return
	}
	stats.deleteCount.Add(context.Background(), 1, metric.WithAttributes(stats.engine))
}

func (stats *treeStats) RecordRotation(dir RBDirection) {
	if stats == nil {
		return
	}
	as := attribute.NewSet(
		stats.engine,
		attribute.String("direction", dir.String()),
	)
	stats.rotationCount.Add(context.Background(), 1, metric.WithAttributeSet(as))
}

func (stats *treeStats) RecordRebalance(fixCase string) {
	if stats == nil {
		return
	}
	as := attribute.NewSet(
		stats.engine,
		attribute.String("case", fixCase),
	)
	stats.rebalanceCount.Add(context.Background(), 1, metric.WithAttributeSet(as))
}

// Unregister stops the size gauge callback. The counters stay usable.
func (stats *treeStats) Unregister() {
	if stats == nil || stats.sizeReg == nil {
		return
	}
	_ = stats.sizeReg.Unregister()
	stats.sizeReg = nil
}

func newTreeStats(engine, name string, size func() int64) *treeStats {
	meterName := fmt.Sprintf("%s/%s", TreeStatsName, name)
	stats := &treeStats{
		engine: attribute.String("engine", engine),
		insertCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xbst.insert.count",
				metric.WithDescription("The number of keys inserted into the tree."),
			),
		),
		deleteCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xbst.delete.count",
				metric.WithDescription("The number of keys deleted from the tree."),
			),
		),
		rotationCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xbst.rotation.count",
				metric.WithDescription("The number of single rotations applied to the tree."),
			),
		),
		rebalanceCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xbst.rebalance.count",
				metric.WithDescription("The number of rebalance cases handled by the tree."),
			),
		),
	}
	meter := otel.Meter(meterName)
	stats.size = lo.Must[metric.Int64ObservableGauge](meter.
		Int64ObservableGauge(
			"xbst.size",
			metric.WithDescription("The number of keys in the tree."),
		),
	)
	stats.sizeReg = lo.Must[metric.Registration](meter.RegisterCallback(
		func(ctx context.Context, ob metric.Observer) error {
			ob.ObserveInt64(stats.size, size(), metric.WithAttributes(stats.engine))
			return nil
		},
		stats.size,
	))
	return stats
}
