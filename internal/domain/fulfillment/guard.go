// Package fulfillment orchestrates orders, deliveries and the stock
// ledger: status transitions, bidirectional order/delivery sync and the
// stock reactivation rules.
package fulfillment

import "context"

// syncGuard is the per-operation visited set that stops the
// order → delivery → order propagation loop. It is created once per
// public operation and carried through the context, never stored in
// package state, so concurrent operations cannot observe each other.
type syncGuard struct {
	visited map[string]struct{}
}

type syncGuardKey struct{}

// withGuard returns ctx carrying a guard, reusing one already present
// so nested propagation shares the same visited set.
func withGuard(ctx context.Context) (context.Context, *syncGuard) {
	if g, ok := ctx.Value(syncGuardKey{}).(*syncGuard); ok {
		return ctx, g
	}
	g := &syncGuard{visited: make(map[string]struct{})}
	return context.WithValue(ctx, syncGuardKey{}, g), g
}

// enter marks key as visited. Returns false if it already was, meaning
// the caller must not propagate further.
func (g *syncGuard) enter(key string) bool {
	if _, seen := g.visited[key]; seen {
		return false
	}
	g.visited[key] = struct{}{}
	return true
}
