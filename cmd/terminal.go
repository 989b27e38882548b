package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"feedsync/features/engine"
	"feedsync/features/feed"
	"feedsync/features/reconcile"

	"github.com/fatih/color"
)

// terminalNotifier renders engine notifications as coloured lines.
type terminalNotifier struct {
	mu  sync.Mutex
	out io.Writer

	enter  func(a ...any) string
	exit   func(a ...any) string
	moved  func(a ...any) string
	faint  func(a ...any) string
	header func(a ...any) string
	failed func(a ...any) string
}

var _ engine.Notifier = (*terminalNotifier)(nil)

func newTerminalNotifier(out io.Writer) *terminalNotifier {
	return &terminalNotifier{
		out:    out,
		enter:  color.New(color.FgGreen).SprintFunc(),
		exit:   color.New(color.FgRed).SprintFunc(),
		moved:  color.New(color.FgYellow).SprintFunc(),
		faint:  color.New(color.Faint).SprintFunc(),
		header: color.New(color.FgCyan, color.Bold).SprintFunc(),
		failed: color.New(color.FgHiRed, color.Bold).SprintFunc(),
	}
}

func (n *terminalNotifier) OnTransitions(src feed.Source, mode feed.SortMode, transitions []reconcile.Transition) {
	n.mu.Lock()
	defer n.mu.Unlock()

	summary := reconcile.Summary(transitions)
	fmt.Fprintf(n.out, "%s %s\n",
		n.header(src.DisplayName()+" · "+mode.String()),
		n.faint(fmt.Sprintf("+%d -%d ↑%d ↓%d", summary[reconcile.Enter], summary[reconcile.Exit], summary[reconcile.MoveUp], summary[reconcile.MoveDown])),
	)

	for _, t := range transitions {
		fmt.Fprintln(n.out, n.line(t))
	}
}

func (n *terminalNotifier) line(t reconcile.Transition) string {
	title := strings.TrimSpace(t.Item.Title)
	score := fmt.Sprintf("%6d", t.Item.Score)
	switch t.Kind {
	case reconcile.Enter:
		return n.enter("  + ") + score + " " + title
	case reconcile.Exit:
		return n.exit("  - ") + n.faint(score+" "+title)
	case reconcile.MoveUp:
		return n.moved("  ↑ ") + score + " " + title
	case reconcile.MoveDown:
		return n.moved("  ↓ ") + score + " " + title
	default:
		return "    " + score + " " + title
	}
}

func (n *terminalNotifier) OnLoadStateChange(state engine.LoadState) {
	if state.Phase != engine.LoadFailed {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "%s %s\n", n.failed("load failed ("+string(state.Kind)+")"), n.faint(state.Error))
}

func (n *terminalNotifier) OnTimerTick(int, int, bool) {}
