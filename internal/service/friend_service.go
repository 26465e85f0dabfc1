package service

import (
	"context"
	"log/slog"

	"playrewards/internal/featureflags"
	"playrewards/internal/models"
	"playrewards/internal/observability"
	"playrewards/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Operation names used for metrics, spans and logs.
const (
	opRequest = "request"
	opApprove = "approve"
	opReject  = "reject"
	opRemove  = "remove"
)

// FriendService drives the friend request state machine. Every per-pair
// transition runs in its own transaction and re-reads the pair under lock
// before mutating it.
type FriendService struct {
	store repository.FriendEdgeStore
	flags featureflags.Checker
}

// NewFriendService returns a new FriendService. flags may be nil.
func NewFriendService(store repository.FriendEdgeStore, flags featureflags.Checker) *FriendService {
	return &FriendService{store: store, flags: flags}
}

// Request asks each target to become a friend of requesterID. Targets already
// asserted by the requester are skipped. A target that already invited the
// requester is approved on the spot.
func (s *FriendService) Request(ctx context.Context, requesterID uint, targetIDs []uint) error {
	return s.run(ctx, opRequest, requesterID, targetIDs, PlanRequest)
}

// Approve accepts pending invites sent to approverID. Ids without such an
// invite are ignored.
func (s *FriendService) Approve(ctx context.Context, approverID uint, requesterIDs []uint) error {
	return s.run(ctx, opApprove, approverID, requesterIDs, PlanApprove)
}

// Reject drops pending invites sent to approverID. Ids without such an invite
// are ignored.
func (s *FriendService) Reject(ctx context.Context, approverID uint, requesterIDs []uint) error {
	return s.run(ctx, opReject, approverID, requesterIDs, PlanReject)
}

// Remove clears both directions between userID and each other id the user
// holds an outgoing edge to, pending or approved.
func (s *FriendService) Remove(ctx context.Context, userID uint, otherIDs []uint) error {
	clearIncoming := s.flags != nil && s.flags.Enabled(featureflags.RemoveClearsIncomingInvites, userID)
	return s.run(ctx, opRemove, userID, otherIDs, func(p PairState) Step {
		return PlanRemove(p, clearIncoming)
	})
}

func (s *FriendService) run(ctx context.Context, op string, actorID uint, targetIDs []uint, plan func(PairState) Step) error {
	targets := distinctTargets(actorID, targetIDs)
	span, ctx := observability.TraceServiceCall(ctx, "friends", op,
		attribute.Int64("actor.id", int64(actorID)),
		attribute.Int("targets", len(targets)),
	)
	defer span.End()

	if len(targets) == 0 {
		return nil
	}

	related, err := s.store.FindAllRelated(ctx, actorID)
	if err != nil {
		span.SetError(err)
		return err
	}
	states := ClassifyPairs(actorID, related)

	applied := 0
	for _, target := range targets {
		if plan(states[target]) == StepNone {
			observability.RecordTransition(op, observability.OutcomeSkipped)
			continue
		}

		done, err := s.transition(ctx, op, actorID, target, plan)
		if err != nil {
			observability.RecordTransition(op, observability.OutcomeFailed)
			observability.GlobalLogger.ErrorContext(ctx, "friend transition failed",
				slog.String("operation", op),
				slog.Uint64("actor_id", uint64(actorID)),
				slog.Uint64("target_id", uint64(target)),
				slog.String("error", err.Error()),
			)
			span.SetError(err)
			return err
		}
		if done {
			applied++
			observability.RecordTransition(op, observability.OutcomeApplied)
		} else {
			observability.RecordTransition(op, observability.OutcomeSkipped)
		}
	}

	span.AddAttributes(attribute.Int("applied", applied))
	return nil
}

// transition re-plans one pair inside a transaction and applies the result.
// It reports whether anything was written.
func (s *FriendService) transition(ctx context.Context, op string, actorID, target uint, plan func(PairState) Step) (bool, error) {
	applied := false
	err := s.store.WithinTransaction(ctx, func(tx repository.FriendEdgeStore) error {
		if err := tx.LockPair(ctx, actorID, target); err != nil {
			return err
		}
		edges, err := tx.FindPair(ctx, actorID, target)
		if err != nil {
			return err
		}
		state := ClassifyPairs(actorID, edges)[target]

		step := plan(state)
		if step == StepNone {
			return nil
		}
		applied = true
		return s.apply(ctx, tx, op, actorID, target, step, state)
	})
	return applied, err
}

func (s *FriendService) apply(ctx context.Context, tx repository.FriendEdgeStore, op string, actorID, target uint, step Step, state PairState) error {
	switch step {
	case StepCreatePending:
		err := tx.CreateEdges(ctx, []repository.EdgeSpec{
			{OwnerID: actorID, FriendedID: target, Status: models.FriendStatusPending},
		})
		return s.absorbDuplicate(ctx, op, actorID, target, err)

	case StepAcceptIncoming:
		if err := tx.UpdateStatus(ctx, []uint{target}, actorID, models.FriendStatusApproved); err != nil {
			return err
		}
		switch state.Outgoing {
		case models.FriendStatusApproved:
			return nil
		case models.FriendStatusPending:
			return tx.UpdateStatus(ctx, []uint{actorID}, target, models.FriendStatusApproved)
		default:
			err := tx.CreateEdges(ctx, []repository.EdgeSpec{
				{OwnerID: actorID, FriendedID: target, Status: models.FriendStatusApproved},
			})
			return s.absorbDuplicate(ctx, op, actorID, target, err)
		}

	case StepDeleteIncoming:
		return tx.SoftDelete(ctx, []uint{target}, actorID)

	case StepDeleteBoth:
		if err := tx.SoftDelete(ctx, []uint{actorID}, target); err != nil {
			return err
		}
		return tx.SoftDelete(ctx, []uint{target}, actorID)
	}
	return nil
}

// absorbDuplicate turns a live-pair unique violation into success: the edge
// the transition wanted already exists.
func (s *FriendService) absorbDuplicate(ctx context.Context, op string, actorID, target uint, err error) error {
	if err == nil || !models.IsCode(err, models.CodeConstraintViolation) {
		return err
	}
	observability.RecordDuplicateAbsorbed(op)
	observability.GlobalLogger.WarnContext(ctx, "friend edge already exists, treating as satisfied",
		slog.String("operation", op),
		slog.Uint64("actor_id", uint64(actorID)),
		slog.Uint64("target_id", uint64(target)),
	)
	return nil
}

// distinctTargets drops zero ids, the actor itself and repeats, keeping order.
func distinctTargets(actorID uint, ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 || id == actorID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
