package seed

import (
	"context"
	"testing"
	"time"

	"playrewards/internal/database"
	"playrewards/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func TestGames_Idempotent(t *testing.T) {
	db := openSQLite(t)

	first, err := Games(db)
	require.NoError(t, err)
	second, err := Games(db)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Game{}).Count(&count).Error)
	assert.Equal(t, int64(len(BuiltInGames)), count)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, BuiltInGames[i].Slug, second[i].Slug)
	}
}

func TestSeed_BuildsConsistentGraph(t *testing.T) {
	db := openSQLite(t)
	opts := Options{
		NumUsers:        12,
		FriendsPerUser:  2,
		InvitesPerUser:  1,
		ActivityPerUser: 3,
		SkipBcrypt:      true,
		RandomSeed:      42,
	}

	summary, err := Seed(context.Background(), db, opts)
	require.NoError(t, err)
	assert.Equal(t, 12, summary.Users)
	assert.Equal(t, len(BuiltInGames), summary.Games)
	assert.Equal(t, 12*4, summary.Activities)

	var activity int64
	require.NoError(t, db.Model(&models.ActivityRecord{}).Count(&activity).Error)
	assert.Equal(t, int64(summary.Activities), activity)

	for _, name := range DemoUsers {
		var u models.User
		assert.NoError(t, db.Where("username = ?", name).First(&u).Error, name)
	}

	var edges []models.FriendEdge
	require.NoError(t, db.Find(&edges).Error)
	require.NotEmpty(t, edges)

	type pair struct{ a, b uint }
	live := make(map[pair]models.FriendStatus, len(edges))
	for _, e := range edges {
		assert.NotEqual(t, e.OwnerID, e.FriendedID)
		_, dup := live[pair{e.OwnerID, e.FriendedID}]
		assert.False(t, dup, "one live edge per direction")
		live[pair{e.OwnerID, e.FriendedID}] = e.Status
	}
	approved := 0
	for p, status := range live {
		reverse, ok := live[pair{p.b, p.a}]
		switch status {
		case models.FriendStatusApproved:
			approved++
			assert.True(t, ok && reverse == models.FriendStatusApproved, "approved edge %v must be mirrored", p)
		case models.FriendStatusPending:
			assert.False(t, ok, "pending edge %v must not have a reverse edge", p)
		}
	}
	assert.Positive(t, approved)
}

func TestSeed_CleanReplacesUsers(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	_, err := Seed(ctx, db, Options{NumUsers: 5, FriendsPerUser: 1, SkipBcrypt: true, RandomSeed: 1})
	require.NoError(t, err)
	_, err = Seed(ctx, db, Options{NumUsers: 4, SkipBcrypt: true, ShouldClean: true, RandomSeed: 2})
	require.NoError(t, err)

	var users, edges int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Unscoped().Model(&models.FriendEdge{}).Count(&edges).Error)
	assert.Equal(t, int64(4), users)
	assert.Zero(t, edges)
}

func TestSeed_SendsExactlyRequestedInvites(t *testing.T) {
	tests := []struct {
		name    string
		invites int
	}{
		{"No Invites", 0},
		{"One Invite Each", 1},
		{"Two Invites Each", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openSQLite(t)
			_, err := Seed(context.Background(), db, Options{
				NumUsers:       6,
				InvitesPerUser: tt.invites,
				SkipBcrypt:     true,
				RandomSeed:     3,
			})
			require.NoError(t, err)

			var edges []models.FriendEdge
			require.NoError(t, db.Find(&edges).Error)
			assert.Len(t, edges, 6*tt.invites)

			// Without approvals every live edge comes from its owner's own request.
			outgoing := make(map[uint]int)
			for _, e := range edges {
				outgoing[e.OwnerID]++
			}
			for owner, n := range outgoing {
				assert.Equal(t, tt.invites, n, "owner %d", owner)
			}
		})
	}
}

func TestSeed_DryRunWritesNothing(t *testing.T) {
	summary, err := Seed(context.Background(), nil, Options{NumUsers: 3, ActivityPerUser: 2, DryRun: true, SkipBcrypt: true})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Users)
	assert.Zero(t, summary.Games)
	assert.Equal(t, 9, summary.Activities)
}

func TestFactory_BuildActivity(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true, MaxDays: 2, RandomSeed: 7})
	user := &models.User{ID: 5}

	withGame := f.BuildActivity(user, &models.Game{ID: 3, Name: "Coin Drop"})
	assert.Equal(t, models.LogableTypeGames, withGame.LogableType)
	require.NotNil(t, withGame.LogableID)
	assert.Equal(t, uint(3), *withGame.LogableID)

	free := f.BuildActivity(user, nil)
	assert.Empty(t, free.LogableType)
	assert.NotEmpty(t, free.Description)
	assert.WithinDuration(t, time.Now(), free.CreatedAt, 3*24*time.Hour)

	conn := f.BuildConnection(user, true)
	assert.Equal(t, models.ActivityTypeConnection, conn.Type)
	assert.Equal(t, models.PresenceOnline, conn.Description)
}
