package table

import "time"

// RouteState is the tagged variant backing RouteEntry's timer: a
// destination is either Live (refreshed at some point, route_timeout still
// pending) or Garbage (marked unreachable, garbage_timeout still pending).
// Modeling this as a closed interface rather than two optional timestamps
// makes "exactly one of the two timers is set" a structural guarantee
// instead of a runtime invariant to check.
type RouteState interface {
	since() time.Time
	isRouteState()
}

// LiveState is the state of a destination that has been refreshed by its
// next hop within route_timeout.
type LiveState struct {
	Since time.Time
}

func (s LiveState) since() time.Time { return s.Since }
func (LiveState) isRouteState()      {}

// GarbageState is the state of a destination withdrawn (metric 16) but
// still held so the withdrawal can be re-advertised until garbage_timeout.
type GarbageState struct {
	Since time.Time
}

func (s GarbageState) since() time.Time { return s.Since }
func (GarbageState) isRouteState()      {}
