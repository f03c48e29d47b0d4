// Package ticket tracks the claims ("tickets") that keep a chunk loaded at
// or above a given stage: player views, force-loads, spawn-area reservations,
// and neighbor-dependency claims.
//
// Manager performs no locking of its own; the owning GenerationSchedule
// calls into it under its single coarse structural mutex (SPEC_FULL.md §5),
// the same way internal/holder's Registry does.
package ticket

import (
	"time"

	"github.com/google/uuid"

	"chunkscheduler/internal/world"
)

// Kind distinguishes why a ticket exists.
type Kind int

const (
	// Player is a claim driven by a connected player's view distance.
	Player Kind = iota
	// ForceLoad is an operator/command-issued claim; TTL 0 means it never expires.
	ForceLoad
	// Neighbor is a claim made on behalf of a dependent chunk.
	// ensure_dependency_chain's cross-chunk recursion (SPEC_FULL.md §4.3.1
	// step 6) does not create Neighbor tickets; it wires DAG edges to the
	// neighbor's chain directly.
	Neighbor
	// SpawnArea reserves the world spawn region.
	SpawnArea
)

func (k Kind) String() string {
	switch k {
	case Player:
		return "Player"
	case ForceLoad:
		return "ForceLoad"
	case Neighbor:
		return "Neighbor"
	case SpawnArea:
		return "SpawnArea"
	default:
		return "Unknown"
	}
}

// Ticket is a claim that a chunk should reach at least Stage, at Priority,
// for at most TTL (0 or less meaning "never expires", for any Kind).
type Ticket struct {
	ID       uuid.UUID
	Kind     Kind
	Pos      world.ChunkPos
	Stage    world.Stage
	Priority uint8
	TTL      time.Duration

	issuedAt time.Time
}

// Aggregate is the resolved demand on a chunk across all its live tickets.
type Aggregate struct {
	TargetStage world.Stage
	Priority    uint8
}

// Manager maps chunk positions to their live tickets and the aggregate
// demand those tickets imply.
type Manager struct {
	byPos map[world.ChunkPos]map[uuid.UUID]*Ticket
}

// NewManager returns an empty ticket manager.
func NewManager() *Manager {
	return &Manager{byPos: make(map[world.ChunkPos]map[uuid.UUID]*Ticket)}
}

// Add registers t (assigning it an ID if unset and stamping issuedAt) and
// returns the chunk's resulting aggregate demand.
func (m *Manager) Add(t Ticket) Aggregate {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.issuedAt = time.Now()

	set, ok := m.byPos[t.Pos]
	if !ok {
		set = make(map[uuid.UUID]*Ticket)
		m.byPos[t.Pos] = set
	}
	tc := t
	set[t.ID] = &tc
	return m.Aggregate(t.Pos)
}

// Remove drops ticket id at pos (a no-op if absent) and returns the
// resulting aggregate.
func (m *Manager) Remove(pos world.ChunkPos, id uuid.UUID) Aggregate {
	if set, ok := m.byPos[pos]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(m.byPos, pos)
		}
	}
	return m.Aggregate(pos)
}

// Aggregate computes holder.target_stage = max(tickets.target_stage) and
// holder.ticket_level = max(tickets.priority) for pos (SPEC_FULL.md §4.5).
func (m *Manager) Aggregate(pos world.ChunkPos) Aggregate {
	set, ok := m.byPos[pos]
	if !ok || len(set) == 0 {
		return Aggregate{TargetStage: world.None}
	}
	agg := Aggregate{TargetStage: world.None}
	for _, t := range set {
		if t.Stage > agg.TargetStage {
			agg.TargetStage = t.Stage
		}
		if t.Priority > agg.Priority {
			agg.Priority = t.Priority
		}
	}
	return agg
}

// Tick expires every ticket whose TTL has elapsed as of now (TTL <= 0 never
// expires) and returns the aggregate for every chunk whose demand changed as
// a result, so the caller can re-run ensure_dependency_chain or cancellation.
func (m *Manager) Tick(now time.Time) map[world.ChunkPos]Aggregate {
	changed := make(map[world.ChunkPos]Aggregate)
	for pos, set := range m.byPos {
		before := m.Aggregate(pos)
		for id, t := range set {
			if t.TTL <= 0 {
				continue
			}
			if now.Sub(t.issuedAt) >= t.TTL {
				delete(set, id)
			}
		}
		if len(set) == 0 {
			delete(m.byPos, pos)
		}
		after := m.Aggregate(pos)
		if after != before {
			changed[pos] = after
		}
	}
	return changed
}

// Count returns the number of live tickets at pos.
func (m *Manager) Count(pos world.ChunkPos) int {
	return len(m.byPos[pos])
}
