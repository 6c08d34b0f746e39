package vm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// CallLedger hands out call-site indices per callee. One ledger is shared by
// every unit of a program so that return labels stay unique program-wide.
type CallLedger struct {
	mu    sync.Mutex
	calls map[string]int
}

func NewCallLedger() *CallLedger {
	return &CallLedger{calls: make(map[string]int)}
}

// Next returns the next call index for fn, starting at 1. The zero value
// is ready to use.
func (l *CallLedger) Next(fn string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		l.calls = make(map[string]int)
	}
	l.calls[fn]++
	return l.calls[fn]
}

// Count returns how many call sites to fn have been allocated so far.
func (l *CallLedger) Count(fn string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[fn]
}

func (l *CallLedger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.calls))
	for name := range l.calls {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Call Ledger:\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "  %s: %d call site(s)\n", name, l.calls[name])
	}
	return sb.String()
}
