package service

import (
	"context"
	"fmt"
	"strings"

	"playrewards/internal/models"
	"playrewards/internal/repository"
	"playrewards/internal/validation"
)

// FriendListRelation selects which edges a friend list shows.
type FriendListRelation string

const (
	// ListRelationFriends lists approved friends.
	ListRelationFriends FriendListRelation = "list"
	// ListRelationRequests lists invites the caller sent and that are still pending.
	ListRelationRequests FriendListRelation = "request"
	// ListRelationInvites lists pending invites other users sent to the caller.
	ListRelationInvites FriendListRelation = "invite"
)

// FriendListQuery holds raw list filters as received from the client.
type FriendListQuery struct {
	Relation       string
	Presence       string
	UsernamePrefix string
}

// DiscoveryQuery holds raw discovery filters as received from the client.
type DiscoveryQuery struct {
	Presence       string
	UsernamePrefix string
	Limit          int
	Offset         int
}

// FriendGraphService is the entry point for friend operations. It resolves
// the acting user, validates input and delegates to the state machine,
// discovery and enrichment.
type FriendGraphService struct {
	identity  IdentityResolver
	store     repository.FriendEdgeStore
	friends   *FriendService
	discovery *DiscoveryService
	enricher  *ActivityEnricher
}

// NewFriendGraphService returns a new FriendGraphService.
func NewFriendGraphService(
	identity IdentityResolver,
	store repository.FriendEdgeStore,
	friends *FriendService,
	discovery *DiscoveryService,
	enricher *ActivityEnricher,
) *FriendGraphService {
	return &FriendGraphService{
		identity:  identity,
		store:     store,
		friends:   friends,
		discovery: discovery,
		enricher:  enricher,
	}
}

// GetFriendList returns the caller's friends, sent requests or received
// invites, enriched with activity.
func (s *FriendGraphService) GetFriendList(ctx context.Context, userID uint, q FriendListQuery) ([]DisplayRecord, error) {
	relation, err := validation.OneOf("relation", q.Relation, string(ListRelationFriends),
		string(ListRelationFriends), string(ListRelationRequests), string(ListRelationInvites))
	if err != nil {
		return nil, err
	}
	presence, err := parsePresence(q.Presence)
	if err != nil {
		return nil, err
	}
	prefix, err := validation.UsernamePrefix(q.UsernamePrefix)
	if err != nil {
		return nil, err
	}

	user, err := s.identity.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	opts := repository.FindOptions{Direction: repository.DirectionOutgoing, Status: models.FriendStatusApproved}
	switch FriendListRelation(relation) {
	case ListRelationRequests:
		opts.Status = models.FriendStatusPending
	case ListRelationInvites:
		opts = repository.FindOptions{Direction: repository.DirectionIncoming, Status: models.FriendStatusPending}
	}

	edges, err := s.store.FindByOwner(ctx, user.ID, opts)
	if err != nil {
		return nil, err
	}

	subjects := make([]Subject, 0, len(edges))
	for _, e := range edges {
		other := e.Other(user.ID)
		// A soft-deleted counterpart is not preloaded.
		if other.ID == 0 {
			continue
		}
		if prefix != "" && !strings.HasPrefix(other.Username, prefix) {
			continue
		}
		subjects = append(subjects, Subject{
			User:        other.Summary(),
			Perspective: Perspective{Relation: FriendListRelation(relation), FriendStatus: e.Status},
		})
	}

	records, err := s.enricher.EnrichAll(ctx, "friends", subjects)
	if err != nil {
		return nil, err
	}
	return FilterByPresence(records, presence), nil
}

// SearchNonFriends returns users the caller could invite, enriched with activity.
func (s *FriendGraphService) SearchNonFriends(ctx context.Context, userID uint, q DiscoveryQuery) ([]DisplayRecord, error) {
	presence, err := parsePresence(q.Presence)
	if err != nil {
		return nil, err
	}
	prefix, err := validation.UsernamePrefix(q.UsernamePrefix)
	if err != nil {
		return nil, err
	}

	user, err := s.identity.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	users, err := s.discovery.FindCandidates(ctx, user.ID, CandidateQuery{
		UsernamePrefix: prefix,
		Limit:          q.Limit,
		Offset:         q.Offset,
	})
	if err != nil {
		return nil, err
	}

	subjects := make([]Subject, 0, len(users))
	for _, u := range users {
		subjects = append(subjects, Subject{User: u.Summary()})
	}
	records, err := s.enricher.EnrichAll(ctx, "discovery", subjects)
	if err != nil {
		return nil, err
	}
	return FilterByPresence(records, presence), nil
}

// AddFriends sends friend requests. Asking to befriend yourself is rejected.
func (s *FriendGraphService) AddFriends(ctx context.Context, userID uint, targetIDs []uint) error {
	for _, id := range targetIDs {
		if id == userID {
			return models.NewValidationError("Cannot send friend request to yourself")
		}
	}
	user, err := s.prepareMutation(ctx, userID, targetIDs)
	if err != nil {
		return err
	}
	return s.friends.Request(ctx, user.ID, targetIDs)
}

// ApproveInvites accepts pending invites from requesterIDs.
func (s *FriendGraphService) ApproveInvites(ctx context.Context, userID uint, requesterIDs []uint) error {
	user, err := s.prepareMutation(ctx, userID, requesterIDs)
	if err != nil {
		return err
	}
	return s.friends.Approve(ctx, user.ID, requesterIDs)
}

// RejectInvites declines pending invites from requesterIDs.
func (s *FriendGraphService) RejectInvites(ctx context.Context, userID uint, requesterIDs []uint) error {
	user, err := s.prepareMutation(ctx, userID, requesterIDs)
	if err != nil {
		return err
	}
	return s.friends.Reject(ctx, user.ID, requesterIDs)
}

// RemoveFriends ends friendships and withdraws invites the caller sent.
func (s *FriendGraphService) RemoveFriends(ctx context.Context, userID uint, otherIDs []uint) error {
	user, err := s.prepareMutation(ctx, userID, otherIDs)
	if err != nil {
		return err
	}
	return s.friends.Remove(ctx, user.ID, otherIDs)
}

// prepareMutation checks ids, then resolves the acting user. Bad input never
// reaches the store.
func (s *FriendGraphService) prepareMutation(ctx context.Context, userID uint, ids []uint) (*models.User, error) {
	if len(ids) == 0 {
		return nil, models.NewValidationError("ids must be a non-empty array")
	}
	if len(ids) > validation.MaxTargetIDs {
		return nil, models.NewValidationError(fmt.Sprintf("ids may contain at most %d entries", validation.MaxTargetIDs))
	}
	for _, id := range ids {
		if id == 0 {
			return nil, models.NewValidationError("ids must be positive integers")
		}
	}
	return s.identity.GetByID(ctx, userID)
}

func parsePresence(raw string) (PresenceFilter, error) {
	p, err := validation.OneOf("presence", raw, string(PresenceAll),
		string(PresenceAll), string(PresenceOnline), string(PresenceOffline))
	return PresenceFilter(p), err
}
