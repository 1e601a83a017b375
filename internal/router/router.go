// Package router is the core orchestrator: it binds the configured input
// sockets, owns the forwarding table and scheduler, and runs the single
// event loop that receives advertisements, applies them, and broadcasts
// periodic/triggered updates with poisoned reverse. Every mutation of the
// table or scheduler happens on the goroutine running Run; reader
// goroutines only ever write to a channel.
package router

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ripdaemon/ripd/internal/config"
	"github.com/ripdaemon/ripd/internal/metrics"
	"github.com/ripdaemon/ripd/internal/rerr"
	"github.com/ripdaemon/ripd/internal/scheduler"
	"github.com/ripdaemon/ripd/internal/table"
	"github.com/ripdaemon/ripd/internal/transport"
	"github.com/ripdaemon/ripd/internal/wire"
)

const maxEntriesPerPacket = 25

// Router is one daemon instance.
type Router struct {
	cfg     *config.Config
	table   *table.Table
	sched   *scheduler.Scheduler
	sockets []*transport.InputSocket
	log     *zap.Logger
	metrics *metrics.Metrics
}

// New binds every configured input port and builds the forwarding table and
// scheduler. A bind failure closes every socket already opened and returns
// a PortInUseError (fatal at startup, per spec.md §7).
func New(cfg *config.Config, log *zap.Logger, m *metrics.Metrics) (*Router, error) {
	sockets, err := transport.ListenInputPorts(cfg.InputPorts)
	if err != nil {
		return nil, err
	}

	return &Router{
		cfg:     cfg,
		table:   table.New(cfg.RouterID, cfg.Neighbors, cfg.Timers),
		sched:   scheduler.New(cfg.Timers, time.Now()),
		sockets: sockets,
		log:     log,
		metrics: m,
	}, nil
}

// Run drives the event loop until ctx is canceled, then closes every
// socket and returns nil. It never returns a non-nil error once startup has
// succeeded: every runtime fault is recoverable and logged in place.
func (r *Router) Run(ctx context.Context) error {
	inbound := make(chan transport.Datagram, 64)
	for _, sock := range r.sockets {
		go sock.ReadLoop(ctx, inbound)
	}

	if r.cfg.MetricsPort != nil {
		go func() {
			if err := r.metrics.Serve(ctx, uint16(*r.cfg.MetricsPort)); err != nil {
				r.log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	for {
		now := time.Now()

		if r.sched.DuePeriodic(now) {
			r.broadcastAll(now)
			r.sched.ReschedulePeriodic(time.Now())
			continue
		}
		if r.sched.DueTriggered(now) {
			r.broadcastAll(now)
			r.sched.RescheduleTriggered(time.Now())
			continue
		}

		wait := r.sched.WaitDuration(now)
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			r.closeSockets()
			return nil
		case dgram := <-inbound:
			timer.Stop()
			r.handleDatagram(dgram)
		case <-timer.C:
		}
	}
}

func (r *Router) closeSockets() {
	for _, s := range r.sockets {
		if err := s.Close(); err != nil {
			r.log.Warn("closing socket", zap.Error(err))
		}
	}
}

// broadcastAll sweeps expired timers and sends an advertisement to every
// neighbor, per spec.md §4.4 ("sweep runs before every broadcast") and §4.5.
func (r *Router) broadcastAll(now time.Time) {
	if r.table.Sweep(now) {
		r.sched.MarkChanged()
	}
	if r.metrics != nil {
		r.metrics.Routes.Set(float64(r.table.Len()))
	}

	for _, n := range r.cfg.Neighbors {
		r.broadcastTo(n)
	}
}

// broadcastTo sends one or more packets to neighbor so that every packet
// carries the self-advertisement first (invariant §8.6) and no packet
// exceeds 25 entries.
func (r *Router) broadcastTo(n config.Neighbor) {
	snap := r.table.SnapshotFor(n.ID)
	self, rest := snap[0], snap[1:]

	groups := partition(rest, maxEntriesPerPacket-1)
	if len(groups) == 0 {
		groups = [][]table.AdvertisedEntry{nil}
	}

	for _, group := range groups {
		entries := make([]wire.Entry, 0, len(group)+1)
		entries = append(entries, toWireEntry(self))
		for _, e := range group {
			entries = append(entries, toWireEntry(e))
		}

		buf, err := wire.Encode(wire.CommandResponse, wire.Version, uint16(r.cfg.RouterID), entries)
		if err != nil {
			// Valid internal inputs never overflow the wire format; this is a bug,
			// not a runtime condition, but it must not abort the rest of the
			// broadcast.
			r.log.Error("encode advertisement", zap.Uint16("neighbor", uint16(n.ID)), zap.Error(err))
			continue
		}

		if err := transport.Send(n.DestPort, buf); err != nil {
			sendErr := &rerr.SendFailureError{NeighborID: uint32(n.ID), Err: err}
			r.log.Warn("send failed", zap.Error(sendErr))
			if r.metrics != nil {
				r.metrics.SendFailures.Inc()
			}
			continue
		}

		if r.metrics != nil {
			r.metrics.PacketsSent.WithLabelValues(strconv.Itoa(int(n.ID))).Inc()
		}
	}
}

func toWireEntry(e table.AdvertisedEntry) wire.Entry {
	return wire.Entry{FamilyID: 2, DestID: int64(e.Dest), Metric: int64(e.Metric)}
}

func partition(entries []table.AdvertisedEntry, size int) [][]table.AdvertisedEntry {
	if len(entries) == 0 {
		return nil
	}
	var groups [][]table.AdvertisedEntry
	for len(entries) > 0 {
		n := size
		if n > len(entries) {
			n = len(entries)
		}
		groups = append(groups, entries[:n])
		entries = entries[n:]
	}
	return groups
}

// handleDatagram decodes and validates one inbound packet and applies every
// entry to the forwarding table, per spec.md §4.5's receive path.
func (r *Router) handleDatagram(d transport.Datagram) {
	_, version, senderID, entries, err := wire.Decode(d.Data)
	if err != nil {
		r.log.Warn("dropping malformed packet", zap.Uint16("port", uint16(d.Port)), zap.Error(err))
		if r.metrics != nil {
			r.metrics.DecodeFailures.Inc()
		}
		return
	}
	if version != wire.Version {
		verErr := &rerr.VersionMismatchError{Got: int(version)}
		r.log.Warn("dropping packet with bad version", zap.Error(verErr))
		if r.metrics != nil {
			r.metrics.DecodeFailures.Inc()
		}
		return
	}
	if !wire.ReservedClean(d.Data) {
		r.log.Warn("dropping packet with dirty reserved bytes", zap.Uint16("sender", senderID))
		if r.metrics != nil {
			r.metrics.DecodeFailures.Inc()
		}
		return
	}

	sender := config.RouterID(senderID)
	if !r.table.IsNeighbor(sender) {
		unkErr := &rerr.UnknownNeighborError{SenderID: uint32(senderID)}
		r.log.Warn("dropping packet from unknown neighbor", zap.Error(unkErr))
		if r.metrics != nil {
			r.metrics.UnknownNeighbor.Inc()
		}
		return
	}

	if r.metrics != nil {
		r.metrics.PacketsReceived.WithLabelValues(strconv.Itoa(int(sender))).Inc()
	}

	now := time.Now()
	changed := false
	for _, e := range entries {
		tr := r.table.ApplyAdvertisement(sender, config.RouterID(e.DestID), int(e.Metric), now)
		if tr.Changed() {
			changed = true
			if r.metrics != nil {
				r.metrics.RouteTransitions.WithLabelValues(tr.String()).Inc()
			}
			r.log.Info("route transition",
				zap.String("kind", tr.String()),
				zap.Int64("dest", e.DestID),
				zap.Uint16("via", senderID),
			)
		}
	}

	if changed {
		r.sched.MarkChanged()
	}
}

// Lookup exposes the current route for dest, used by tests and could back a
// future status command.
func (r *Router) Lookup(dest config.RouterID) (table.Entry, bool) {
	return r.table.Lookup(dest)
}
