package service

import (
	"testing"

	"playrewards/internal/models"

	"github.com/stretchr/testify/assert"
)

const (
	pending  = models.FriendStatusPending
	approved = models.FriendStatusApproved
)

func TestClassifyPairs(t *testing.T) {
	edges := []models.FriendEdge{
		{OwnerID: 1, FriendedID: 2, Status: approved},
		{OwnerID: 2, FriendedID: 1, Status: approved},
		{OwnerID: 1, FriendedID: 3, Status: pending},
		{OwnerID: 4, FriendedID: 1, Status: pending},
		{OwnerID: 5, FriendedID: 6, Status: pending},
	}

	states := ClassifyPairs(1, edges)

	assert.Equal(t, PairState{Outgoing: approved, Incoming: approved}, states[2])
	assert.Equal(t, PairState{Outgoing: pending}, states[3])
	assert.Equal(t, PairState{Incoming: pending}, states[4])
	assert.NotContains(t, states, uint(5), "edges not touching the actor are ignored")
	assert.NotContains(t, states, uint(6))
	assert.Equal(t, RelationUnrelated, states[99].Relation())
}

func TestPairState_Relation(t *testing.T) {
	tests := []struct {
		state PairState
		want  Relation
	}{
		{PairState{}, RelationUnrelated},
		{PairState{Outgoing: pending}, RelationPendingOutgoing},
		{PairState{Incoming: pending}, RelationPendingIncoming},
		{PairState{Outgoing: approved, Incoming: approved}, RelationApproved},
		{PairState{Outgoing: pending, Incoming: pending}, RelationPendingOutgoing},
		{PairState{Incoming: approved}, RelationUnrelated},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Relation())
		})
	}
}

func TestPlans(t *testing.T) {
	unrelated := PairState{}
	outgoing := PairState{Outgoing: pending}
	incoming := PairState{Incoming: pending}
	crossed := PairState{Outgoing: pending, Incoming: pending}
	friends := PairState{Outgoing: approved, Incoming: approved}

	t.Run("request", func(t *testing.T) {
		assert.Equal(t, StepCreatePending, PlanRequest(unrelated))
		assert.Equal(t, StepNone, PlanRequest(outgoing))
		assert.Equal(t, StepAcceptIncoming, PlanRequest(incoming))
		assert.Equal(t, StepNone, PlanRequest(crossed), "an outgoing assertion makes request a no-op")
		assert.Equal(t, StepNone, PlanRequest(friends))
	})

	t.Run("approve", func(t *testing.T) {
		assert.Equal(t, StepNone, PlanApprove(unrelated))
		assert.Equal(t, StepNone, PlanApprove(outgoing))
		assert.Equal(t, StepAcceptIncoming, PlanApprove(incoming))
		assert.Equal(t, StepAcceptIncoming, PlanApprove(crossed))
		assert.Equal(t, StepNone, PlanApprove(friends))
	})

	t.Run("reject", func(t *testing.T) {
		assert.Equal(t, StepNone, PlanReject(unrelated))
		assert.Equal(t, StepNone, PlanReject(outgoing))
		assert.Equal(t, StepDeleteIncoming, PlanReject(incoming))
		assert.Equal(t, StepNone, PlanReject(friends))
	})

	t.Run("remove", func(t *testing.T) {
		assert.Equal(t, StepNone, PlanRemove(unrelated, false))
		assert.Equal(t, StepDeleteBoth, PlanRemove(outgoing, false))
		assert.Equal(t, StepDeleteBoth, PlanRemove(friends, false))
		assert.Equal(t, StepNone, PlanRemove(incoming, false))
		assert.Equal(t, StepDeleteBoth, PlanRemove(incoming, true))
		assert.Equal(t, StepNone, PlanRemove(unrelated, true))
	})
}
