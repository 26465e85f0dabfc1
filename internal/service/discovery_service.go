package service

import (
	"context"

	"playrewards/internal/models"
	"playrewards/internal/observability"
	"playrewards/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// CandidateQuery narrows a discovery search.
type CandidateQuery struct {
	// UsernamePrefix is matched case-sensitively.
	UsernamePrefix string
	Limit          int
	Offset         int
}

// DiscoveryService finds users the caller has no relationship with yet.
type DiscoveryService struct {
	store     repository.FriendEdgeStore
	directory UserDirectory
}

// NewDiscoveryService returns a new DiscoveryService.
func NewDiscoveryService(store repository.FriendEdgeStore, directory UserDirectory) *DiscoveryService {
	return &DiscoveryService{store: store, directory: directory}
}

// FindCandidates lists users who are not the caller, not asserted by the
// caller in any status, and have not invited the caller.
func (s *DiscoveryService) FindCandidates(ctx context.Context, userID uint, q CandidateQuery) ([]models.User, error) {
	span, ctx := observability.TraceServiceCall(ctx, "discovery", "FindCandidates",
		attribute.Int64("actor.id", int64(userID)),
		attribute.Bool("prefix", q.UsernamePrefix != ""),
	)
	defer span.End()

	related, err := s.store.FindAllRelated(ctx, userID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	users, err := s.directory.GetUsersExcept(ctx, excludedIDs(userID, related), repository.DirectoryQuery{
		UsernamePrefix: q.UsernamePrefix,
		Limit:          q.Limit,
		Offset:         q.Offset,
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.AddAttributes(attribute.Int("candidates", len(users)))
	return users, nil
}

// excludedIDs is {userID} plus every counterparty in related.
func excludedIDs(userID uint, related []models.FriendEdge) []uint {
	ids := []uint{userID}
	seen := map[uint]struct{}{userID: {}}
	for _, e := range related {
		other := e.FriendedID
		if e.FriendedID == userID {
			other = e.OwnerID
		}
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		ids = append(ids, other)
	}
	return ids
}
