package tui

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// epochs numbers page instances so a page never accepts a response issued
// by an earlier instance of the same screen.
var epochs atomic.Uint64

// requestToken identifies one request issued by a page.
type requestToken struct {
	epoch uint64
	kind  string
	seq   uint64
}

// requestSeq issues request tokens for one page instance. A response is
// applied only when its token is still the latest of its kind and the page
// has not been closed.
type requestSeq struct {
	epoch  uint64
	last   map[string]uint64
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

func newRequestSeq(parent context.Context) *requestSeq {
	ctx, cancel := context.WithCancel(parent)
	return &requestSeq{
		epoch:  epochs.Add(1),
		last:   make(map[string]uint64),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *requestSeq) issue(kind string) requestToken {
	s.last[kind]++
	return requestToken{epoch: s.epoch, kind: kind, seq: s.last[kind]}
}

func (s *requestSeq) current(t requestToken) bool {
	return !s.closed && t.epoch == s.epoch && s.last[t.kind] == t.seq
}

// close cancels in-flight requests; their responses are dropped.
func (s *requestSeq) close() {
	s.closed = true
	s.cancel()
}

// result carries a response back to the page that asked for it.
type result[T any] struct {
	token requestToken
	value T
	err   error
}

// request runs fn off the UI goroutine under a fresh token of kind.
func request[T any](s *requestSeq, kind string, fn func(ctx context.Context) (T, error)) tea.Cmd {
	tok := s.issue(kind)
	ctx := s.ctx
	return func() tea.Msg {
		v, err := fn(ctx)
		return result[T]{token: tok, value: v, err: err}
	}
}
