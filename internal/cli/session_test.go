package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xbst/lib/tree"
	"github.com/benz9527/xbst/xlog"
)

func testLogger() xlog.XLogger {
	return xlog.NewXLogger(
		xlog.WithXLoggerWriter(xlog.StdErr),
		xlog.WithXLoggerEncoder(xlog.PlainText),
		xlog.WithXLoggerLevel(xlog.LogLevelError),
	)
}

func newTestSession(mode Mode, input string, opts ...SessionOpt) (*Session, *bytes.Buffer) {
	out := &bytes.Buffer{}
	s := NewSession(mode, SessionIO{
		In:  strings.NewReader(input),
		Out: out,
	}, testLogger(), opts...)
	return s, out
}

func TestParseKeys(t *testing.T) {
	testcases := []struct {
		name    string
		line    string
		keys    []int
		invalid bool
	}{
		{"empty", "", []int{}, false},
		{"spaces", "  1   2\t3 ", []int{1, 2, 3}, false},
		{"negative", "-5 0 5", []int{-5, 0, 5}, false},
		{"text", "1 two 3", nil, true},
		{"float", "1.5", nil, true},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			keys, err := parseKeys(tc.line)
			if tc.invalid {
				require.ErrorIs(tt, err, ErrInvalidInput)
				return
			}
			require.NoError(tt, err)
			require.Equal(tt, tc.keys, keys)
		})
	}

	_, err := parseExact("1 2 3", 2)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorContains(t, err, "expect 2 number(s), got 3")
	keys, err := parseExact("7 8", 2)
	require.NoError(t, err)
	require.Equal(t, []int{7, 8}, keys)
}

func TestSessionAVLQueries(t *testing.T) {
	s, out := newTestSession(ModeAVL, strings.Join([]string{
		"8",
		"1", "3 2 1",
		"5", "6", "7", "4", "3", "8",
		"11", "2",
		"11", "9",
		"12",
		"0",
	}, "\n")+"\n")
	require.NoError(t, s.Run(context.Background()))

	got := out.String()
	require.Contains(t, got, "AVL HELP MANUAL")
	require.Contains(t, got, "10 - Update")
	require.Contains(t, got, "Tree is empty!")
	require.Contains(t, got, "Insert [3 2 1] successfully.")
	require.Contains(t, got, "In Order Traverse: [1 2 3]")
	require.Contains(t, got, "Pre Order Traverse: [2 1 3]")
	require.Contains(t, got, "Post Order Traverse: [1 3 2]")
	require.Contains(t, got, "Height of tree: 2")
	require.Contains(t, got, "Number of leaves: 2")
	require.Contains(t, got, "Tree is not empty!")
	require.Contains(t, got, "Does 2 exist? true")
	require.Contains(t, got, "Does 9 exist? false")
	require.Contains(t, got, "Tree is valid.")
	require.True(t, strings.HasSuffix(got, "Thanks you! Hope to see you again!\n"))
	// Run releases the tree on exit.
	require.Zero(t, s.avl.Len())
}

func TestSessionDeleteKeepsGoing(t *testing.T) {
	s, out := newTestSession(ModeAVL, "1\n1 2 3\n2\n2 9 3 8\n5\n0\n")
	require.NoError(t, s.Run(context.Background()))

	got := out.String()
	require.Contains(t, got, "Current tree contains [1 2 3]")
	require.Contains(t, got, "Delete [2 3] successfully.")
	require.Contains(t, got, "delete 9: [tree] key not found")
	require.Contains(t, got, "delete 8: [tree] key not found")
	require.Contains(t, got, "In Order Traverse: [1]")
}

func TestSessionAVLUpdate(t *testing.T) {
	s, out := newTestSession(ModeAVL, "1\n1 2 3\n10\n2 5\n10\n9 9\n10\n1\n5\n0\n")
	require.NoError(t, s.Run(context.Background()))

	got := out.String()
	require.Contains(t, got, "Update 2 to 5 successfully.")
	require.Contains(t, got, "update 9: [tree] key not found")
	require.Contains(t, got, "expect 2 number(s), got 1")
	// The failed update still inserts its new key.
	require.Contains(t, got, "In Order Traverse: [1 3 5 9]")
}

func TestSessionRBInvalidInput(t *testing.T) {
	s, out := newTestSession(ModeRB, "abc\n1\nx y\n13\n10\n1\n52 47 3\n5\n12\n0\n")
	require.NoError(t, s.Run(context.Background()))

	got := out.String()
	require.Contains(t, got, "RED-BLACK HELP MANUAL")
	require.NotContains(t, got, "10 - Update")
	require.Contains(t, got, "Wrong number, please try again...")
	require.Contains(t, got, `not a number: "x"`)
	require.Contains(t, got, "unknown choice 13")
	require.Contains(t, got, "update is only supported by the AVL tree")
	require.Contains(t, got, "In Order Traverse: [3 47 52]")
	require.Contains(t, got, "Tree is valid.")
}

func TestSessionEOF(t *testing.T) {
	// No trailing newline, the last line is still read.
	s, out := newTestSession(ModeRB, "1\n5 6")
	require.NoError(t, s.Run(context.Background()))
	require.Contains(t, out.String(), "Insert [5 6] successfully.")
	require.True(t, strings.HasSuffix(out.String(), "Thanks you! Hope to see you again!\n"))

	// EOF inside an action.
	s, out = newTestSession(ModeAVL, "1\n")
	require.NoError(t, s.Run(context.Background()))
	require.True(t, strings.HasSuffix(out.String(), "Thanks you! Hope to see you again!\n"))
}

func TestSessionPaceAndCancel(t *testing.T) {
	s, _ := newTestSession(ModeAVL, "4\n0\n", WithSessionPace(-time.Second))
	require.Equal(t, time.Duration(0), s.Pace())
	s.SetPace(time.Hour)
	require.Equal(t, time.Hour, s.Pace())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Run(ctx), context.Canceled)

	// The pacing delay gives way to cancellation.
	s, _ = newTestSession(ModeAVL, "4\n0\n", WithSessionPace(time.Hour))
	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Run(ctx), context.DeadlineExceeded)
}

func TestSessionCancelWhileReading(t *testing.T) {
	for _, mode := range []Mode{ModeAVL, ModeRB, ModePrebuild} {
		t.Run(mode.String(), func(tt *testing.T) {
			pr, pw := io.Pipe()
			defer func() {
				require.NoError(tt, pw.Close())
			}()
			s := NewSession(mode, SessionIO{In: pr, Out: &bytes.Buffer{}}, testLogger())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() {
				done <- s.Run(ctx)
			}()
			time.Sleep(50 * time.Millisecond)
			cancel()

			select {
			case err := <-done:
				require.ErrorIs(tt, err, context.Canceled)
			case <-time.After(2 * time.Second):
				tt.Fatal("session blocked on input after cancel")
			}
		})
	}
}

func TestSessionCancelInsideAction(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() {
		require.NoError(t, pw.Close())
	}()
	out := &bytes.Buffer{}
	s := NewSession(ModeAVL, SessionIO{In: pr, Out: out}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()
	// Choose insert, then leave the keys prompt waiting.
	_, err := pw.Write([]byte("1\n"))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("session blocked on input after cancel")
	}
	require.NotContains(t, out.String(), "Error:")
}

func TestRenderTree(t *testing.T) {
	avl := tree.NewAVLTree[int]()
	for _, k := range []int{1, 2, 3} {
		avl.Insert(k)
	}
	buf := &bytes.Buffer{}
	require.Equal(t, 2, renderTree(buf, avl.Root(), newPalette(false)))
	require.Equal(t, "       /------+ 3\n|------+ 2\n       \\------+ 1\n", buf.String())

	rb := tree.NewRBTree[int]()
	for _, k := range []int{3, 2, 1} {
		rb.Insert(k)
	}
	buf.Reset()
	require.Equal(t, 2, renderTree(buf, rb.RBRoot(), newPalette(false)))
	require.Equal(t, "       /------+ 3(R)\n|------+ 2(B)\n       \\------+ 1(R)\n", buf.String())

	buf.Reset()
	require.Equal(t, 2, renderTree(buf, rb.Root(), newPalette(true)))
	require.NotContains(t, buf.String(), "(R)")
	require.Contains(t, buf.String(), "|------+ ")

	buf.Reset()
	require.Equal(t, 0, renderTree(buf, tree.NewAVLTree[int]().Root(), newPalette(false)))
	require.Empty(t, buf.String())
}

func TestRenderTreeDeep(t *testing.T) {
	avl := tree.NewAVLTree[int]()
	for _, k := range []int{10, 20, 30, 40, 50, 25} {
		avl.Insert(k)
	}
	buf := &bytes.Buffer{}
	require.Equal(t, 3, renderTree(buf, avl.Root(), newPalette(false)))
	expected := strings.Join([]string{
		"              /------+ 50",
		"       /------+ 40",
		"|------+ 30",
		"       |      /------+ 25",
		"       \\------+ 20",
		"              \\------+ 10",
	}, "\n") + "\n"
	require.Equal(t, expected, buf.String())
}

func TestPrebuild(t *testing.T) {
	s, out := newTestSession(ModePrebuild, "1\n", WithSessionColor(false))
	require.NoError(t, s.Run(context.Background()))
	got := out.String()
	require.Contains(t, got, "Step 1: Insert 10 20 30 40 50 25")
	require.Contains(t, got, "Pre Order Traverse: [30 20 10 25 40 50]")
	require.Contains(t, got, "Step 2: Delete 40")
	require.Contains(t, got, "Pre Order Traverse: [30 20 10 25 50]")
	require.Contains(t, got, "Step 3: Update 25 to 35")
	require.Contains(t, got, "Pre Order Traverse: [30 20 10 50 35]")
	require.Contains(t, got, "|------+ 30")

	s, out = newTestSession(ModePrebuild, "2\n", WithSessionColor(false))
	require.NoError(t, s.Run(context.Background()))
	got = out.String()
	require.Contains(t, got, "Pre Order Traverse: [20 10 40 30 25 50]")
	require.Contains(t, got, "Pre Order Traverse: [20 10 30 25 50]")
	require.Contains(t, got, "|------+ 20(B)")
	require.NotContains(t, got, "Step 3")

	s, out = newTestSession(ModePrebuild, "3\n")
	require.ErrorIs(t, s.Run(context.Background()), ErrInvalidInput)
	require.Contains(t, out.String(), "Wrong input, please try again...")

	s, _ = newTestSession(ModePrebuild, "")
	require.NoError(t, s.Run(context.Background()))
}
