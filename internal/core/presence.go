package core

import (
	"github.com/rs/zerolog"

	"github.com/kstepanov/dmbridge-server/internal/proto"
)

// Presence pushes the online roster to every live connection whenever
// registry membership changes.
type Presence struct {
	registry *Registry
	log      *zerolog.Logger
}

// NewPresence builds a presence broadcaster over the given registry.
func NewPresence(registry *Registry, logger *zerolog.Logger) *Presence {
	return &Presence{registry: registry, log: logger}
}

// BroadcastRoster snapshots the roster and sends it to every registered
// connection, bound or not. Sends are non-blocking; a full or closed peer
// only misses its own copy.
func (p *Presence) BroadcastRoster() {
	update := proto.RosterUpdate{Online: p.registry.Roster()}
	for _, c := range p.registry.ListAll() {
		if !c.TrySend(update) {
			p.log.Debug().Str("conn_id", c.ID).Msg("dropped roster update")
		}
	}
}
