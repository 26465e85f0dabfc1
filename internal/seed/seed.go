package seed

import (
	"context"
	"fmt"
	"log"

	"playrewards/internal/featureflags"
	"playrewards/internal/models"
	"playrewards/internal/repository"
	"playrewards/internal/service"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers int
	// FriendsPerUser is the number of friendships each user starts.
	FriendsPerUser int
	// InvitesPerUser is the number of invites each user leaves pending.
	InvitesPerUser int
	// ActivityPerUser is the number of gameplay records per user.
	ActivityPerUser int
	ShouldClean     bool
	SkipBcrypt      bool
	DryRun          bool
	MaxDays         int
	BatchSize       int
	RandomSeed      int64
}

// DemoUsers always exist after seeding so there is something to log in as.
var DemoUsers = []string{"demo", "alice", "bob"}

// Summary reports what a seeding run created.
type Summary struct {
	Users      int
	Games      int
	Activities int
}

// Seeder populates the database with a consistent friend graph.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	friends *service.FriendService
	opts    Options
}

// NewSeeder returns a Seeder. Friend edges are written through the friend
// state machine so the seeded graph obeys the same invariants as live data.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{
		db:      db,
		factory: NewFactory(db, opts),
		friends: service.NewFriendService(repository.NewFriendEdgeStore(db), featureflags.NewManager("")),
		opts:    opts,
	}
}

// Seed populates the database with test data
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	return NewSeeder(db, opts).Run(ctx)
}

// Run creates users, the game catalog, activity and friendships.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	log.Printf("seeding %d users", s.opts.NumUsers)

	if s.opts.ShouldClean && !s.opts.DryRun {
		if err := clearData(s.db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	var games []models.Game
	if !s.opts.DryRun {
		var err error
		if games, err = Games(s.db); err != nil {
			return nil, err
		}
	}

	users, err := s.createUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("created %d users", len(users))

	activities, err := s.createActivity(users, games)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	if !s.opts.DryRun {
		if err := s.createFriendGraph(ctx, users); err != nil {
			return nil, fmt.Errorf("failed to create friendships: %w", err)
		}
	}

	log.Println("database seeding completed")
	return &Summary{Users: len(users), Games: len(games), Activities: activities}, nil
}

func clearData(db *gorm.DB) error {
	log.Println("clearing existing data")
	return db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.FriendEdge{}, &models.ActivityRecord{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Seeder) createUsers() ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		var overrides []func(*models.User)
		if i < len(DemoUsers) {
			name := DemoUsers[i]
			overrides = append(overrides, func(u *models.User) {
				u.Username = name
				u.Email = name + "@example.com"
			})
		}
		u, err := s.factory.CreateUser(overrides...)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Seeder) createActivity(users []*models.User, games []models.Game) (int, error) {
	records := make([]*models.ActivityRecord, 0, len(users)*(s.opts.ActivityPerUser+1))
	for _, u := range users {
		records = append(records, s.factory.BuildConnection(u, s.factory.rnd.Intn(3) == 0))
		for i := 0; i < s.opts.ActivityPerUser; i++ {
			var game *models.Game
			if len(games) > 0 && s.factory.rnd.Intn(4) != 0 {
				game = &games[s.factory.rnd.Intn(len(games))]
			}
			records = append(records, s.factory.BuildActivity(u, game))
		}
	}
	return len(records), s.factory.CreateActivityBatch(records)
}

// createFriendGraph has each user request FriendsPerUser others, which then
// approve, and leaves InvitesPerUser requests pending.
func (s *Seeder) createFriendGraph(ctx context.Context, users []*models.User) error {
	if len(users) < 2 {
		return nil
	}
	want := s.opts.FriendsPerUser + s.opts.InvitesPerUser
	if want <= 0 {
		return nil
	}
	for i, u := range users {
		// One spare pick covers the case where the user draws itself.
		n := 0
		for _, idx := range s.factory.pick(len(users), want+1) {
			if n == want {
				break
			}
			if idx == i {
				continue
			}
			other := users[idx]
			if err := s.friends.Request(ctx, u.ID, []uint{other.ID}); err != nil {
				return err
			}
			if n < s.opts.FriendsPerUser {
				if err := s.friends.Approve(ctx, other.ID, []uint{u.ID}); err != nil {
					return err
				}
			}
			n++
		}
	}
	return nil
}
