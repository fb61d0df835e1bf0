package cli

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/benz9527/xbst/lib/infra"
	"github.com/benz9527/xbst/lib/tree"
)

var (
	prebuildInserts = []int{10, 20, 30, 40, 50, 25}
	prebuildDeletes = []int{40}
)

type prebuildStep struct {
	title  string
	action func() error
}

func (s *Session) runPrebuild(ctx context.Context) error {
	s.printf("Please choose what kind of example you want to run?\n1 - AVL tree\n2 - Red-Black tree\n")
	keys, err := s.readExact(ctx, 1)
	if errors.Is(err, io.EOF) {
		return nil
	} else if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	} else if err != nil {
		s.report(err)
		return err
	}

	switch keys[0] {
	case 1:
		s.mode = ModeAVL
		s.avl = s.newAVLTree()
		defer s.avl.Release()
		err = s.runSteps(s.avl, []prebuildStep{
			s.insertStep(s.avl),
			s.deleteStep(s.avl),
			{
				title: "Update 25 to 35",
				action: func() error {
					return s.avl.Update(25, 35)
				},
			},
		})
	case 2:
		s.mode = ModeRB
		s.rb = s.newRBTree()
		defer s.rb.Release()
		err = s.runSteps(s.rb, []prebuildStep{
			s.insertStep(s.rb),
			s.deleteStep(s.rb),
		})
	default:
		err = infra.WrapErrorStackWithMessage(ErrInvalidInput, "unknown example "+strconv.Itoa(keys[0]))
		s.printf("Wrong input, please try again...\n")
	}
	if err != nil {
		s.report(err)
	}
	return err
}

func (s *Session) insertStep(set tree.OrderedSet[int]) prebuildStep {
	return prebuildStep{
		title: "Insert " + joinKeys(prebuildInserts),
		action: func() error {
			for _, k := range prebuildInserts {
				set.Insert(k)
			}
			return nil
		},
	}
}

func (s *Session) deleteStep(set tree.OrderedSet[int]) prebuildStep {
	return prebuildStep{
		title: "Delete " + joinKeys(prebuildDeletes),
		action: func() error {
			for _, k := range prebuildDeletes {
				if err := set.Delete(k); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (s *Session) runSteps(set tree.OrderedSet[int], steps []prebuildStep) error {
	for i, step := range steps {
		s.printf("########## Step %d: %s ##########\n", i+1, step.title)
		if err := step.action(); err != nil {
			return infra.WrapErrorStackWithMessage(err, step.title)
		}
		s.logger.Debug("prebuild step done", zap.Int("step", i+1), zap.String("title", step.title))
		s.printf("In Order Traverse: %v\n", set.Traverse(tree.InOrder))
		s.printf("Pre Order Traverse: %v\n", set.Traverse(tree.PreOrder))
		s.printf("Post Order Traverse: %v\n", set.Traverse(tree.PostOrder))
		s.printf("Height of tree: %d\n", set.Height())
		s.printf("Number of leaves: %d\n", set.LeafCount())
		s.diagram(set)
	}
	return nil
}

func joinKeys(keys []int) string {
	return strings.Join(lo.Map(keys, func(k int, _ int) string {
		return strconv.Itoa(k)
	}), " ")
}
