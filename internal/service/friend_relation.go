package service

import "playrewards/internal/models"

// Relation is the state of an (actor, target) pair as seen by the actor.
type Relation int

const (
	// RelationUnrelated means no live edge in either direction.
	RelationUnrelated Relation = iota
	// RelationPendingOutgoing means the actor invited the target.
	RelationPendingOutgoing
	// RelationPendingIncoming means the target invited the actor.
	RelationPendingIncoming
	// RelationApproved means the actor holds an approved edge to the target.
	RelationApproved
)

func (r Relation) String() string {
	switch r {
	case RelationPendingOutgoing:
		return "pending_outgoing"
	case RelationPendingIncoming:
		return "pending_incoming"
	case RelationApproved:
		return "approved"
	default:
		return "unrelated"
	}
}

// PairState is what the live edges say about one pair, from the actor's side.
type PairState struct {
	// Outgoing is the status of the actor->target edge, empty when absent.
	Outgoing models.FriendStatus
	// Incoming is the status of the target->actor edge, empty when absent.
	Incoming models.FriendStatus
}

// Relation collapses the pair state into a single tag. An outgoing edge wins
// over an incoming one.
func (p PairState) Relation() Relation {
	switch {
	case p.Outgoing == models.FriendStatusApproved:
		return RelationApproved
	case p.Outgoing == models.FriendStatusPending:
		return RelationPendingOutgoing
	case p.Incoming == models.FriendStatusPending:
		return RelationPendingIncoming
	default:
		return RelationUnrelated
	}
}

// ClassifyPairs folds edges touching actorID into a per-counterparty state.
// Edges that do not involve actorID are ignored.
func ClassifyPairs(actorID uint, edges []models.FriendEdge) map[uint]PairState {
	states := make(map[uint]PairState, len(edges))
	for _, e := range edges {
		switch actorID {
		case e.OwnerID:
			s := states[e.FriendedID]
			s.Outgoing = e.Status
			states[e.FriendedID] = s
		case e.FriendedID:
			s := states[e.OwnerID]
			s.Incoming = e.Status
			states[e.OwnerID] = s
		}
	}
	return states
}

// Step is a single mutation a transition performs on the store.
type Step int

const (
	// StepNone leaves the pair untouched.
	StepNone Step = iota
	// StepCreatePending inserts actor->target as pending.
	StepCreatePending
	// StepAcceptIncoming promotes target->actor to approved and makes sure
	// actor->target exists as approved.
	StepAcceptIncoming
	// StepDeleteIncoming soft-deletes target->actor.
	StepDeleteIncoming
	// StepDeleteBoth soft-deletes both directions.
	StepDeleteBoth
)

// PlanRequest decides what "actor requests target" does.
func PlanRequest(s PairState) Step {
	switch s.Relation() {
	case RelationApproved, RelationPendingOutgoing:
		return StepNone
	case RelationPendingIncoming:
		return StepAcceptIncoming
	default:
		return StepCreatePending
	}
}

// PlanApprove decides what "actor approves target's invite" does. Only a
// pending target->actor edge qualifies; an outgoing pending edge the actor may
// also hold is promoted alongside it.
func PlanApprove(s PairState) Step {
	if s.Incoming == models.FriendStatusPending {
		return StepAcceptIncoming
	}
	return StepNone
}

// PlanReject decides what "actor rejects target's invite" does.
func PlanReject(s PairState) Step {
	if s.Incoming == models.FriendStatusPending {
		return StepDeleteIncoming
	}
	return StepNone
}

// PlanRemove decides what "actor removes target" does. Without an outgoing
// edge nothing happens, unless clearIncoming allows a lone incoming invite to
// be dropped too.
func PlanRemove(s PairState, clearIncoming bool) Step {
	if s.Outgoing != "" {
		return StepDeleteBoth
	}
	if clearIncoming && s.Incoming == models.FriendStatusPending {
		return StepDeleteBoth
	}
	return StepNone
}
