package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"playrewards/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type activityReaderStub struct {
	getLatestActivityFn func(context.Context, uint, int) ([]models.ActivityRecord, error)
}

func (s *activityReaderStub) GetLatestActivity(ctx context.Context, userID uint, limit int) ([]models.ActivityRecord, error) {
	return s.getLatestActivityFn(ctx, userID, limit)
}

type gameLookupStub struct {
	getGameByIDFn func(context.Context, uint) (*models.Game, error)
}

func (s *gameLookupStub) GetGameByID(ctx context.Context, id uint) (*models.Game, error) {
	return s.getGameByIDFn(ctx, id)
}

func recordsFor(records ...models.ActivityRecord) *activityReaderStub {
	return &activityReaderStub{
		getLatestActivityFn: func(context.Context, uint, int) ([]models.ActivityRecord, error) {
			return records, nil
		},
	}
}

func gameID(id uint) *uint { return &id }

func TestActivityEnricher_Defaults(t *testing.T) {
	e := NewActivityEnricher(recordsFor(), nil, EnricherConfig{})

	rec, err := e.Enrich(context.Background(), models.UserSummary{ID: 7, Username: "neo", Avatar: "a.png"}, Perspective{})
	require.NoError(t, err)

	assert.Equal(t, DisplayRecord{
		ID:          7,
		Username:    "neo",
		Avatar:      "a.png",
		Status:      models.PresenceOffline,
		Description: DefaultDescription,
		DisplayText: "Offline",
	}, rec)
}

func TestActivityEnricher_UsesNewestOfEachType(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	reader := recordsFor(
		models.ActivityRecord{Type: models.ActivityTypeConnection, Description: "online", CreatedAt: now},
		models.ActivityRecord{Type: models.ActivityTypeActivity, Description: "Spinning the wheel", CreatedAt: now.Add(-time.Minute)},
		models.ActivityRecord{Type: models.ActivityTypeConnection, Description: "offline", CreatedAt: now.Add(-time.Hour)},
		models.ActivityRecord{Type: models.ActivityTypeActivity, Description: "Claiming a reward", CreatedAt: now.Add(-2 * time.Hour)},
	)
	e := NewActivityEnricher(reader, nil, EnricherConfig{})

	rec, err := e.Enrich(context.Background(), models.UserSummary{ID: 1}, Perspective{Relation: ListRelationFriends, FriendStatus: approved})
	require.NoError(t, err)

	assert.Equal(t, models.PresenceOnline, rec.Status)
	assert.Equal(t, "Spinning the wheel", rec.Description)
	assert.Equal(t, now.Unix(), rec.LastActivityAt)
	assert.Equal(t, "Currently spinning the wheel", rec.DisplayText)
	assert.Equal(t, ListRelationFriends, rec.Relation)
	assert.Equal(t, approved, rec.FriendStatus)
}

func TestActivityEnricher_OfflineWording(t *testing.T) {
	now := time.Now()
	reader := recordsFor(
		models.ActivityRecord{Type: models.ActivityTypeActivity, Description: "Opening a chest", CreatedAt: now},
		models.ActivityRecord{Type: models.ActivityTypeConnection, Description: "Offline", CreatedAt: now.Add(-time.Minute)},
	)
	rec, err := NewActivityEnricher(reader, nil, EnricherConfig{}).Enrich(context.Background(), models.UserSummary{ID: 1}, Perspective{})
	require.NoError(t, err)

	assert.Equal(t, models.PresenceOffline, rec.Status)
	assert.Equal(t, "Last seen opening a chest", rec.DisplayText)
	assert.Equal(t, now.Unix(), rec.LastActivityAt)
}

func TestActivityEnricher_ResolvesGameName(t *testing.T) {
	now := time.Now()

	t.Run("known game", func(t *testing.T) {
		reader := recordsFor(models.ActivityRecord{
			Type: models.ActivityTypeActivity, Description: "game #3", LogableType: models.LogableTypeGames, LogableID: gameID(3), CreatedAt: now,
		})
		games := &gameLookupStub{getGameByIDFn: func(_ context.Context, id uint) (*models.Game, error) {
			assert.Equal(t, uint(3), id)
			return &models.Game{ID: 3, Name: "Lucky Wheel"}, nil
		}}

		rec, err := NewActivityEnricher(reader, games, EnricherConfig{}).Enrich(context.Background(), models.UserSummary{ID: 1}, Perspective{})
		require.NoError(t, err)
		assert.Equal(t, "Playing Lucky Wheel", rec.Description)
		assert.Equal(t, "Last seen playing Lucky Wheel", rec.DisplayText)
	})

	t.Run("missing game keeps logged description", func(t *testing.T) {
		reader := recordsFor(models.ActivityRecord{
			Type: models.ActivityTypeActivity, Description: "game #9", LogableType: models.LogableTypeGames, LogableID: gameID(9), CreatedAt: now,
		})
		games := &gameLookupStub{getGameByIDFn: func(context.Context, uint) (*models.Game, error) { return nil, nil }}

		rec, err := NewActivityEnricher(reader, games, EnricherConfig{}).Enrich(context.Background(), models.UserSummary{ID: 1}, Perspective{})
		require.NoError(t, err)
		assert.Equal(t, "game #9", rec.Description)
	})

	t.Run("lookup failure", func(t *testing.T) {
		reader := recordsFor(models.ActivityRecord{
			Type: models.ActivityTypeActivity, LogableType: models.LogableTypeGames, LogableID: gameID(1), CreatedAt: now,
		})
		games := &gameLookupStub{getGameByIDFn: func(context.Context, uint) (*models.Game, error) {
			return nil, models.NewInternalError(errors.New("down"))
		}}

		_, err := NewActivityEnricher(reader, games, EnricherConfig{}).Enrich(context.Background(), models.UserSummary{ID: 1}, Perspective{})
		assert.True(t, models.IsCode(err, models.CodeInternal))
	})
}

func TestActivityEnricher_EnrichAllKeepsOrderAndBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	reader := &activityReaderStub{getLatestActivityFn: func(_ context.Context, userID uint, limit int) ([]models.ActivityRecord, error) {
		assert.Equal(t, 5, limit)
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		status := models.PresenceOffline
		if userID%2 == 0 {
			status = models.PresenceOnline
		}
		return []models.ActivityRecord{{Type: models.ActivityTypeConnection, Description: status, CreatedAt: time.Now()}}, nil
	}}
	e := NewActivityEnricher(reader, nil, EnricherConfig{Lookback: 5, Concurrency: 2})

	subjects := make([]Subject, 0, 6)
	for id := uint(1); id <= 6; id++ {
		subjects = append(subjects, Subject{User: models.UserSummary{ID: id}})
	}

	records, err := e.EnrichAll(context.Background(), "test", subjects)
	require.NoError(t, err)
	require.Len(t, records, 6)
	for i, r := range records {
		assert.Equal(t, uint(i+1), r.ID)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))

	online := FilterByPresence(records, PresenceOnline)
	offline := FilterByPresence(records, PresenceOffline)
	assert.Len(t, online, 3)
	assert.Len(t, offline, 3)
	assert.Equal(t, uint(2), online[0].ID)
	assert.Len(t, FilterByPresence(records, PresenceAll), 6)
	assert.Len(t, FilterByPresence(records, ""), 6)
}

func TestActivityEnricher_EnrichAllFails(t *testing.T) {
	boom := errors.New("boom")
	reader := &activityReaderStub{getLatestActivityFn: func(context.Context, uint, int) ([]models.ActivityRecord, error) {
		return nil, boom
	}}

	_, err := NewActivityEnricher(reader, nil, EnricherConfig{}).EnrichAll(context.Background(), "test", []Subject{{User: models.UserSummary{ID: 1}}})
	assert.ErrorIs(t, err, boom)
}
