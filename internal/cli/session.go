package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xbst/lib/infra"
	"github.com/benz9527/xbst/lib/tree"
	"github.com/benz9527/xbst/xlog"
)

type Mode uint8

const (
	ModeAVL Mode = iota + 1
	ModeRB
	ModePrebuild
)

func (m Mode) String() string {
	switch m {
	case ModeAVL:
		return "avl"
	case ModeRB:
		return "rb"
	case ModePrebuild:
		return "prebuild"
	default:
	}
	return "unknown"
}

type menuChoice int

const (
	choiceExit menuChoice = iota
	choiceInsert
	choiceDelete
	choiceLeaves
	choiceHeight
	choiceInOrder
	choicePreOrder
	choicePostOrder
	choiceEmpty
	choicePrint
	choiceUpdate
	choiceExists
	choiceValidate
)

var menuItems = []struct {
	choice  menuChoice
	desc    string
	avlOnly bool
}{
	{choiceExit, "Exit", false},
	{choiceInsert, "Insert: insert a node/some nodes to the tree", false},
	{choiceDelete, "Delete: delete a node/some nodes from the tree", false},
	{choiceLeaves, "Leaves: count the number of leaves in this tree", false},
	{choiceHeight, "Height: check the height of this tree", false},
	{choiceInOrder, "In Order Traversal: print the in-order traversal of the tree", false},
	{choicePreOrder, "Pre Order Traversal: print the pre-order traversal of the tree", false},
	{choicePostOrder, "Post Order Traversal: print the post-order traversal of the tree", false},
	{choiceEmpty, "Empty Or Not: check it is empty or not", false},
	{choicePrint, "Print: print this tree", false},
	{choiceUpdate, "Update: update the value of a specific node (replace A with B)", true},
	{choiceExists, "Exist Or Not: check whether a value exists", false},
	{choiceValidate, "Validate: check the balance invariants of this tree", false},
}

// SessionIO is where a session reads its commands and prints its results.
// Logs never go to Out.
type SessionIO struct {
	In  io.Reader
	Out io.Writer
}

// Session is one interactive run over a single tree.
// Only the pace and color are safe to change while it runs.
type Session struct {
	mode      Mode
	in        *bufio.Reader
	out       io.Writer
	logger    xlog.XLogger
	pace      atomic.Int64
	color     atomic.Bool
	statsName string
	avl       tree.AVLTree[int]
	rb        tree.RBTree[int]
	lines     chan inputLine
	readOnce  sync.Once
	quit      chan struct{}
	quitOnce  sync.Once
}

type inputLine struct {
	text string
	err  error
}

type SessionOpt func(*Session)

func WithSessionPace(pace time.Duration) SessionOpt {
	return func(s *Session) {
		s.SetPace(pace)
	}
}

func WithSessionColor(enabled bool) SessionOpt {
	return func(s *Session) {
		s.SetColor(enabled)
	}
}

// WithSessionStats records the tree operations on the global meter
// provider under the given meter name.
func WithSessionStats(name string) SessionOpt {
	return func(s *Session) {
		s.statsName = name
	}
}

func NewSession(mode Mode, sio SessionIO, logger xlog.XLogger, opts ...SessionOpt) *Session {
	if logger == nil {
		panic( /* debug assertion */ "[cli] session without logger")
	}
	s := &Session{
		mode:   mode,
		in:     bufio.NewReader(sio.In),
		out:    sio.Out,
		logger: logger,
		lines:  make(chan inputLine),
		quit:   make(chan struct{}),
	}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	return s
}

func (s *Session) SetPace(pace time.Duration) {
	if pace < 0 {
		pace = 0
	}
	s.pace.Store(int64(pace))
}

func (s *Session) Pace() time.Duration {
	return time.Duration(s.pace.Load())
}

func (s *Session) SetColor(enabled bool) {
	s.color.Store(enabled)
}

func (s *Session) newAVLTree() tree.AVLTree[int] {
	if s.statsName == "" {
		return tree.NewAVLTree[int]()
	}
	return tree.NewAVLTree[int](tree.WithAVLTreeStats[int](s.statsName))
}

func (s *Session) newRBTree() tree.RBTree[int] {
	if s.statsName == "" {
		return tree.NewRBTree[int]()
	}
	return tree.NewRBTree[int](tree.WithRBTreeStats[int](s.statsName))
}

func (s *Session) set() tree.OrderedSet[int] {
	if s.mode == ModeAVL {
		return s.avl
	}
	return s.rb
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

// startReader moves the blocking reads off the session goroutine, so a
// prompt gives way to ctx cancellation. The channel is closed after the
// first read error.
func (s *Session) startReader() {
	s.readOnce.Do(func() {
		go func() {
			defer close(s.lines)
			for {
				line, err := s.in.ReadString('\n')
				if len(line) > 0 {
					select {
					case s.lines <- inputLine{text: strings.TrimSpace(line)}:
					case <-s.quit:
						return
					}
				}
				if err != nil {
					if !errors.Is(err, io.EOF) {
						select {
						case s.lines <- inputLine{err: err}:
						case <-s.quit:
						}
					}
					return
				}
			}
		}()
	})
}

// stopReader releases the reader goroutine once it is done with the
// current line. A read already blocked on the input stays blocked.
func (s *Session) stopReader() {
	s.quitOnce.Do(func() {
		close(s.quit)
	})
}

// readLine returns io.EOF only if nothing is left to read.
func (s *Session) readLine(ctx context.Context) (string, error) {
	s.startReader()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	}
}

func (s *Session) readKeys(ctx context.Context) ([]int, error) {
	line, err := s.readLine(ctx)
	if err != nil {
		return nil, err
	}
	return parseKeys(line)
}

func (s *Session) readExact(ctx context.Context, n int) ([]int, error) {
	line, err := s.readLine(ctx)
	if err != nil {
		return nil, err
	}
	return parseExact(line, n)
}

func (s *Session) wait(ctx context.Context) error {
	pace := s.Pace()
	if pace <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(pace)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	return nil
}

// Run drives the session until exit, EOF or ctx cancellation.
// Bad input is reported and the loop goes on.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("session started", zap.String("mode", s.mode.String()))
	defer s.logger.Info("session finished", zap.String("mode", s.mode.String()))
	defer s.stopReader()

	switch s.mode {
	case ModeAVL:
		s.avl = s.newAVLTree()
		defer s.avl.Release()
	case ModeRB:
		s.rb = s.newRBTree()
		defer s.rb.Release()
	case ModePrebuild:
		return s.runPrebuild(ctx)
	default:
		return infra.WrapErrorStackWithMessage(ErrInvalidInput, "unknown mode "+strconv.Itoa(int(s.mode)))
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.printHelp()
		s.printf("Please input your choice: \n")
		keys, err := s.readExact(ctx, 1)
		if errors.Is(err, io.EOF) {
			s.printf("Thanks you! Hope to see you again!\n")
			return nil
		} else if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		} else if err != nil {
			s.report(err)
			s.printf("Wrong number, please try again...\n")
			continue
		}

		choice := menuChoice(keys[0])
		if choice == choiceExit {
			s.printf("Thanks you! Hope to see you again!\n")
			return nil
		}
		if err = s.dispatch(ctx, choice); errors.Is(err, io.EOF) {
			s.printf("Thanks you! Hope to see you again!\n")
			return nil
		} else if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		} else if err != nil {
			s.report(err, zap.Int("choice", int(choice)))
		}
		if err = s.wait(ctx); err != nil {
			return err
		}
	}
}

func (s *Session) report(err error, fields ...zap.Field) {
	s.logger.ErrorStack(err, "session action failed", fields...)
	s.printf("Error: %v\n", err)
}

func (s *Session) printHelp() {
	title := "AVL"
	if s.mode == ModeRB {
		title = "RED-BLACK"
	}
	s.printf("=========== %s HELP MANUAL ===========\n", title)
	for _, item := range menuItems {
		if item.avlOnly && s.mode != ModeAVL {
			continue
		}
		s.printf("%d - %s\n", item.choice, item.desc)
	}
	s.printf("=======================================\n")
}

func (s *Session) dispatch(ctx context.Context, choice menuChoice) error {
	set := s.set()
	switch choice {
	case choiceInsert:
		return s.insert(ctx, set)
	case choiceDelete:
		return s.delete(ctx, set)
	case choiceLeaves:
		s.printf("Number of leaves: %d\n", set.LeafCount())
	case choiceHeight:
		s.printf("Height of tree: %d\n", set.Height())
	case choiceInOrder:
		s.printf("In Order Traverse: %v\n", set.Traverse(tree.InOrder))
	case choicePreOrder:
		s.printf("Pre Order Traverse: %v\n", set.Traverse(tree.PreOrder))
	case choicePostOrder:
		s.printf("Post Order Traverse: %v\n", set.Traverse(tree.PostOrder))
	case choiceEmpty:
		if set.IsEmpty() {
			s.printf("Tree is empty!\n")
		} else {
			s.printf("Tree is not empty!\n")
		}
	case choicePrint:
		s.diagram(set)
	case choiceUpdate:
		if s.mode != ModeAVL {
			return infra.WrapErrorStackWithMessage(ErrInvalidInput, "update is only supported by the AVL tree")
		}
		return s.update(ctx)
	case choiceExists:
		s.printf("Please input the value you want to check.\n")
		keys, err := s.readExact(ctx, 1)
		if err != nil {
			return err
		}
		s.printf("Does %d exist? %t\n", keys[0], set.Search(keys[0]))
	case choiceValidate:
		return s.validate()
	default:
		return infra.WrapErrorStackWithMessage(ErrInvalidInput, "unknown choice "+strconv.Itoa(int(choice)))
	}
	return nil
}

func (s *Session) insert(ctx context.Context, set tree.OrderedSet[int]) error {
	s.printf("Please input what kind of value you want to add. Separate by one whitespace.\ne.g.1 2 3 4 5\n")
	keys, err := s.readKeys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		set.Insert(k)
	}
	s.logger.Debug("keys inserted", zap.Ints("keys", keys), zap.Int64("len", set.Len()))
	s.printf("Insert %v successfully.\n", keys)
	return nil
}

// delete keeps going after a missing key and reports them all.
func (s *Session) delete(ctx context.Context, set tree.OrderedSet[int]) error {
	s.printf("Current tree contains %v\n", set.Traverse(tree.InOrder))
	s.printf("Please input what kind of value you want to delete. Separate by one whitespace.\ne.g.1 2 3 4 5\n")
	keys, err := s.readKeys(ctx)
	if err != nil {
		return err
	}
	var merr error
	deleted := make([]int, 0, len(keys))
	for _, k := range keys {
		if err = set.Delete(k); err != nil {
			merr = multierr.Append(merr, infra.WrapErrorStackWithMessage(err, "delete "+strconv.Itoa(k)))
			continue
		}
		deleted = append(deleted, k)
	}
	s.logger.Debug("keys deleted", zap.Ints("keys", deleted), zap.Int64("len", set.Len()))
	s.printf("Delete %v successfully.\n", deleted)
	return merr
}

func (s *Session) update(ctx context.Context) error {
	s.printf("Please input the node you want to update. Separate by one whitespace\ne.g.1 2(replace 1 with 2)\n")
	keys, err := s.readExact(ctx, 2)
	if err != nil {
		return err
	}
	if err = s.avl.Update(keys[0], keys[1]); err != nil {
		return infra.WrapErrorStackWithMessage(err, "update "+strconv.Itoa(keys[0]))
	}
	s.printf("Update %d to %d successfully.\n", keys[0], keys[1])
	return nil
}

func (s *Session) validate() error {
	var err error
	if s.mode == ModeAVL {
		err = tree.ValidateAVLTree[int](s.avl)
	} else {
		err = tree.ValidateRBTree[int](s.rb)
	}
	if err != nil {
		return err
	}
	s.printf("Tree is valid.\n")
	return nil
}

func (s *Session) diagram(set tree.OrderedSet[int]) {
	if set.IsEmpty() {
		s.printf("Tree is empty!\n")
		return
	}
	var root tree.BSTNode[int]
	if s.mode == ModeRB {
		root = s.rb.RBRoot()
	} else {
		root = set.Root()
	}
	depth := renderTree(s.out, root, newPalette(s.color.Load()))
	s.logger.Debug("tree printed", zap.Int("depth", depth))
}
