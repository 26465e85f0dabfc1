package server

import (
	"context"
	"encoding/json"

	"playrewards/internal/models"
	"playrewards/internal/service"
	"playrewards/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// FriendGraph is the friend graph as the HTTP layer sees it.
type FriendGraph interface {
	GetFriendList(ctx context.Context, userID uint, q service.FriendListQuery) ([]service.DisplayRecord, error)
	SearchNonFriends(ctx context.Context, userID uint, q service.DiscoveryQuery) ([]service.DisplayRecord, error)
	AddFriends(ctx context.Context, userID uint, targetIDs []uint) error
	ApproveInvites(ctx context.Context, userID uint, requesterIDs []uint) error
	RejectInvites(ctx context.Context, userID uint, requesterIDs []uint) error
	RemoveFriends(ctx context.Context, userID uint, otherIDs []uint) error
}

// FriendIDsRequest is the body of every friend mutation. Elements stay raw so
// that quoted ids can be told apart from numbers.
type FriendIDsRequest struct {
	IDs []json.RawMessage `json:"ids"`
}

// GetFriendList handles GET /api/friends
func (s *Server) GetFriendList(c *fiber.Ctx) error {
	userID, err := actingUserID(c)
	if err != nil {
		return nil
	}

	records, err := s.friendGraph.GetFriendList(c.UserContext(), userID, service.FriendListQuery{
		Relation:       c.Query("relation"),
		Presence:       c.Query("presence"),
		UsernamePrefix: c.Query("username"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(records)
}

// SearchNonFriends handles GET /api/friends/discover
func (s *Server) SearchNonFriends(c *fiber.Ctx) error {
	userID, err := actingUserID(c)
	if err != nil {
		return nil
	}

	page := parsePagination(c, s.config.DiscoveryDefaultLimit)
	records, err := s.friendGraph.SearchNonFriends(c.UserContext(), userID, service.DiscoveryQuery{
		Presence:       c.Query("presence"),
		UsernamePrefix: c.Query("username"),
		Limit:          page.Limit,
		Offset:         page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(records)
}

// AddFriends handles POST /api/friends
func (s *Server) AddFriends(c *fiber.Ctx) error {
	return s.mutateFriends(c, s.friendGraph.AddFriends)
}

// ApproveInvites handles POST /api/friends/approve
func (s *Server) ApproveInvites(c *fiber.Ctx) error {
	return s.mutateFriends(c, s.friendGraph.ApproveInvites)
}

// RejectInvites handles POST /api/friends/reject
func (s *Server) RejectInvites(c *fiber.Ctx) error {
	return s.mutateFriends(c, s.friendGraph.RejectInvites)
}

// RemoveFriends handles POST /api/friends/remove
func (s *Server) RemoveFriends(c *fiber.Ctx) error {
	return s.mutateFriends(c, s.friendGraph.RemoveFriends)
}

func (s *Server) mutateFriends(c *fiber.Ctx, op func(context.Context, uint, []uint) error) error {
	userID, err := actingUserID(c)
	if err != nil {
		return nil
	}

	ids, err := parseFriendIDs(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := op(c.UserContext(), userID, ids); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func parseFriendIDs(c *fiber.Ctx) ([]uint, error) {
	var req FriendIDsRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return nil, models.NewValidationError("Invalid request body")
	}
	return validation.TargetIDs(req.IDs)
}
