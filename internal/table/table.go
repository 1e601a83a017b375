// Package table implements the per-router forwarding table: the
// destination → route entry state machine (live → garbage → removed),
// advertisement application with split-horizon/poisoned-reverse, and the
// timeout/garbage sweep. The table is owned by a single goroutine (the
// router's event loop) and is not safe for concurrent use — see
// internal/router.
package table

import (
	"sort"
	"time"

	"github.com/ripdaemon/ripd/internal/config"
)

// Infinity is the reserved "unreachable" metric.
const Infinity = 16

// Transition describes what ApplyAdvertisement did to a destination;
// internal/router uses Changed to decide whether a triggered update is owed.
type Transition int

const (
	Unchanged Transition = iota
	Inserted
	Refreshed
	Improved
	Worsened
	Poisoned
)

func (t Transition) String() string {
	switch t {
	case Inserted:
		return "inserted"
	case Refreshed:
		return "refreshed"
	case Improved:
		return "improved"
	case Worsened:
		return "worsened"
	case Poisoned:
		return "poisoned"
	default:
		return "unchanged"
	}
}

// Changed reports whether a transition mutated the table (and therefore
// owes a triggered update).
func (t Transition) Changed() bool { return t != Unchanged }

// Entry is one destination's route: the neighbor it's reachable through,
// the advertised cost, and its live/garbage timer.
type Entry struct {
	NextHop config.RouterID
	Metric  int
	State   RouteState
}

// Table is the forwarding table: RouterID -> Entry.
type Table struct {
	self      config.RouterID
	neighbors map[config.RouterID]config.Neighbor
	entries   map[config.RouterID]*Entry
	timers    config.Timers
}

// New creates an empty forwarding table for router self, with the given
// static neighbor list and timer configuration.
func New(self config.RouterID, neighbors []config.Neighbor, timers config.Timers) *Table {
	nbrs := make(map[config.RouterID]config.Neighbor, len(neighbors))
	for _, n := range neighbors {
		nbrs[n.ID] = n
	}
	return &Table{
		self:      self,
		neighbors: nbrs,
		entries:   make(map[config.RouterID]*Entry),
		timers:    timers,
	}
}

// Lookup returns the entry for dest, if any.
func (t *Table) Lookup(dest config.RouterID) (Entry, bool) {
	e, ok := t.entries[dest]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len reports the number of destinations currently held (any state).
func (t *Table) Len() int { return len(t.entries) }

// IsNeighbor reports whether id is a statically configured neighbor.
func (t *Table) IsNeighbor(id config.RouterID) bool {
	_, ok := t.neighbors[id]
	return ok
}

// ApplyAdvertisement applies one (dest, advertised_metric) entry received
// from sender to the table, per the per-destination state machine in
// spec.md §4.3. The caller (internal/router) is responsible for having
// already confirmed sender is a configured neighbor and for iterating a
// packet's entries in wire order.
func (t *Table) ApplyAdvertisement(sender, dest config.RouterID, advertisedMetric int, now time.Time) Transition {
	if dest == t.self {
		return Unchanged
	}
	nbr, ok := t.neighbors[sender]
	if !ok {
		return Unchanged
	}

	effective := nbr.Cost + advertisedMetric
	if effective > Infinity {
		effective = Infinity
	}

	existing, exists := t.entries[dest]
	if !exists {
		if effective >= Infinity {
			return Unchanged
		}
		t.entries[dest] = &Entry{NextHop: sender, Metric: effective, State: LiveState{Since: now}}
		return Inserted
	}

	switch existing.State.(type) {
	case LiveState:
		return t.applyToLive(existing, sender, effective, now)
	case GarbageState:
		if existing.NextHop != sender {
			return Unchanged
		}
		if effective >= Infinity {
			return Unchanged
		}
		existing.NextHop = sender
		existing.Metric = effective
		existing.State = LiveState{Since: now}
		return Inserted
	default:
		return Unchanged
	}
}

func (t *Table) applyToLive(existing *Entry, sender config.RouterID, effective int, now time.Time) Transition {
	if existing.NextHop == sender {
		if effective >= Infinity {
			existing.Metric = Infinity
			existing.State = GarbageState{Since: now}
			return Poisoned
		}
		switch {
		case effective == existing.Metric:
			existing.State = LiveState{Since: now}
			return Refreshed
		case effective < existing.Metric:
			existing.Metric = effective
			existing.State = LiveState{Since: now}
			return Improved
		default:
			existing.Metric = effective
			existing.State = LiveState{Since: now}
			return Worsened
		}
	}

	// Different next hop: only switch on a strictly lower cost.
	if effective < existing.Metric {
		existing.NextHop = sender
		existing.Metric = effective
		existing.State = LiveState{Since: now}
		return Improved
	}
	return Unchanged
}

// Sweep expires route_timeout and garbage_timeout for every destination.
// It returns whether any destination transitioned (live->garbage or
// garbage->removed), which the scheduler treats as a pending triggered
// update.
func (t *Table) Sweep(now time.Time) bool {
	changed := false
	for dest, e := range t.entries {
		switch s := e.State.(type) {
		case LiveState:
			if now.Sub(s.Since) >= t.timers.RouteTimeout {
				e.Metric = Infinity
				e.State = GarbageState{Since: now}
				changed = true
			}
		case GarbageState:
			if now.Sub(s.Since) >= t.timers.GarbageTimeout {
				delete(t.entries, dest)
				changed = true
			}
		}
	}
	return changed
}

// AdvertisedEntry is one (destination, metric) pair destined for a
// particular neighbor's outbound packet.
type AdvertisedEntry struct {
	Dest   config.RouterID
	Metric int
}

// SnapshotFor builds the advertisement list for neighbor, applying
// split-horizon with poisoned reverse: any destination whose current next
// hop is neighbor is advertised back to it with metric Infinity. The
// self-advertisement (dest=self, metric=0) is always first. Destinations in
// garbage state are still included (their metric is already Infinity);
// destinations already removed from the table are not.
func (t *Table) SnapshotFor(neighbor config.RouterID) []AdvertisedEntry {
	dests := make([]config.RouterID, 0, len(t.entries))
	for dest := range t.entries {
		dests = append(dests, dest)
	}
	sort.Slice(dests, func(i, j int) bool { return dests[i] < dests[j] })

	out := make([]AdvertisedEntry, 0, len(dests)+1)
	out = append(out, AdvertisedEntry{Dest: t.self, Metric: 0})
	for _, dest := range dests {
		e := t.entries[dest]
		metric := e.Metric
		if e.NextHop == neighbor {
			metric = Infinity
		}
		out = append(out, AdvertisedEntry{Dest: dest, Metric: metric})
	}
	return out
}
