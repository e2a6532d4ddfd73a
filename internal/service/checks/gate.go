package checks

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Gate coalesces repeated saves of one check scope. A save already in flight
// with the same payload is joined rather than re-entered. A save whose payload
// matches the scope's last successful save within the window returns that
// result without another round trip. Any other payload always runs, and its
// completion replaces what the scope remembers.
type Gate struct {
	window time.Duration
	group  singleflight.Group
	now    func() time.Time

	mu   sync.Mutex
	last map[string]gateResult // by scope
}

type gateResult struct {
	at      time.Time
	payload string
	value   any
}

// NewGate builds a gate with the given coalescing window.
func NewGate(window time.Duration) *Gate {
	return &Gate{window: window, now: time.Now, last: make(map[string]gateResult)}
}

// Do runs fn for payload under scope. coalesced is true when the result came
// from another caller's run.
func (g *Gate) Do(scope, payload string, fn func() (any, error)) (value any, err error, coalesced bool) {
	g.mu.Lock()
	if prev, ok := g.last[scope]; ok && prev.payload == payload && g.now().Sub(prev.at) < g.window {
		g.mu.Unlock()
		return prev.value, nil, true
	}
	g.mu.Unlock()

	value, err, shared := g.group.Do(scope+"\x00"+payload, fn)

	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	for k, r := range g.last {
		if now.Sub(r.at) >= g.window {
			delete(g.last, k)
		}
	}
	switch {
	case err != nil:
		// the store may hold a partial write; the next save must run
		delete(g.last, scope)
	case g.window > 0:
		g.last[scope] = gateResult{at: now, payload: payload, value: value}
	}
	return value, err, shared
}
