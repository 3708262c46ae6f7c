package platform

import (
	"context"
	"slices"
	"sync"

	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/log"
)

// Exchange describes one finished request as seen by interceptors.
// Response is nil for transport failures. For non-2xx responses both
// Response and Err are set.
type Exchange struct {
	Client    *Client
	Method    string
	Path      string
	RequestID string
	Response  *Response
	Err       error
}

// Status returns the response status, or 0 for transport failures.
func (e *Exchange) Status() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.Status
}

// ResponseInterceptor observes every response and transport failure
// before the result is handed back to the caller.
type ResponseInterceptor func(ctx context.Context, ex *Exchange)

func runInterceptors(ctx context.Context, interceptors []ResponseInterceptor, ex *Exchange) {
	for _, i := range interceptors {
		i(ctx, ex)
	}
}

// SessionInvalidated is emitted when the backend rejects the session.
type SessionInvalidated struct {
	Status int
	Path   string
}

// AuthInterceptor clears the session whenever a response has status 401 or 422.
//
// The store is cleared, the client's token is dropped, and notify is
// called with the event. All other outcomes pass through untouched.
// The error still reaches the caller afterwards.
func AuthInterceptor(store auth.Store, notify func(SessionInvalidated)) ResponseInterceptor {
	return func(ctx context.Context, ex *Exchange) {
		if !isAuthStatus(ex.Status()) {
			return
		}

		if err := store.Clear(context.WithoutCancel(ctx)); err != nil {
			log.DefaultLogger().LogErrorContext(ctx, err)
		}
		if ex.Client != nil {
			ex.Client.SetToken("")
		}
		log.DefaultLogger().Info("session invalidated by server",
			"status", ex.Status(),
			"path", ex.Path,
			"request_id", ex.RequestID,
		)

		if notify != nil {
			notify(SessionInvalidated{Status: ex.Status(), Path: ex.Path})
		}
	}
}

// Notifier fans SessionInvalidated events out to subscribers.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(SessionInvalidated)
}

// NewNotifier creates a Notifier with no subscribers.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]func(SessionInvalidated))}
}

// Subscribe registers fn and returns a function that removes it.
func (n *Notifier) Subscribe(fn func(SessionInvalidated)) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Notify delivers ev to every subscriber in registration order.
func (n *Notifier) Notify(ev SessionInvalidated) {
	n.mu.Lock()
	ids := make([]int, 0, len(n.subs))
	for id := range n.subs {
		ids = append(ids, id)
	}
	fns := make([]func(SessionInvalidated), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, n.subs[id])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
