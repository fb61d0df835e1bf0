package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/benz9527/xbst/internal/cli"
)

func newRootCmd() *cobra.Command {
	var configPath string

	modeCmd := func(mode cli.Mode, short string) *cobra.Command {
		return &cobra.Command{
			Use:   mode.String(),
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return cli.Run(cmd.Context(), cli.AppParams{
					Mode:       mode,
					ConfigPath: configPath,
					IO: cli.SessionIO{
						In:  cmd.InOrStdin(),
						Out: cmd.OutOrStdout(),
					},
					MetricsOut: cmd.ErrOrStderr(),
				})
			},
		}
	}

	rootCmd := &cobra.Command{
		Use:           "xbst",
		Short:         "Interactive AVL and Red-Black tree playground",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML config file, hot reloaded")
	rootCmd.AddCommand(
		modeCmd(cli.ModeAVL, "Go to the AVL tree interface"),
		modeCmd(cli.ModeRB, "Go to the Red-Black tree interface"),
		modeCmd(cli.ModePrebuild, "Run the pre-built AVL and Red-Black tree examples"),
	)
	return rootCmd
}

// execute treats a signal cancelled session as a clean exit.
func execute(ctx context.Context, cmd *cobra.Command) error {
	if err := cmd.ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, newRootCmd()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
