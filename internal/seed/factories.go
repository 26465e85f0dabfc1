// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"playrewards/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rnd  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
	// password hash shared by every generated user
	hashed string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	return &Factory{
		db:     db,
		opts:   opts,
		rnd:    rand.New(rand.NewSource(seed)), // #nosec G404: acceptable for seeding
		nextID: 1000,
	}
}

func (f *Factory) password() (string, error) {
	if f.opts.SkipBcrypt {
		return defaultPassword, nil
	}
	if f.hashed == "" {
		h, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("hash seed password: %w", err)
		}
		f.hashed = string(h)
	}
	return f.hashed, nil
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	pw, err := f.password()
	if err != nil {
		return nil, err
	}
	handle := gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999))
	user := &models.User{
		Username: handle,
		Email:    fmt.Sprintf("%s_%s@example.com", handle, gofakeit.LetterN(6)),
		Password: pw,
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// pastTime returns a moment within the last MaxDays.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 14
	}
	back := time.Duration(f.rnd.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rnd.Intn(24))*time.Hour +
		time.Duration(f.rnd.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// BuildConnection builds a presence record for user without persisting it.
func (f *Factory) BuildConnection(user *models.User, online bool) *models.ActivityRecord {
	status := models.PresenceOffline
	if online {
		status = models.PresenceOnline
	}
	return &models.ActivityRecord{
		UserID:      user.ID,
		Type:        models.ActivityTypeConnection,
		Description: status,
		CreatedAt:   f.pastTime(),
	}
}

// BuildActivity builds a gameplay record for user. With a game the record
// points at it; otherwise it carries a free-form description.
func (f *Factory) BuildActivity(user *models.User, game *models.Game) *models.ActivityRecord {
	rec := &models.ActivityRecord{
		UserID:    user.ID,
		Type:      models.ActivityTypeActivity,
		CreatedAt: f.pastTime(),
	}
	if game != nil {
		id := game.ID
		rec.Description = "Played " + game.Name
		rec.LogableType = models.LogableTypeGames
		rec.LogableID = &id
		return rec
	}
	rec.Description = fmt.Sprintf("Claimed %d %s", gofakeit.Number(5, 500), gofakeit.RandomString([]string{"coins", "gems", "tickets"}))
	return rec
}

// CreateActivityBatch persists activity records in a single DB call when possible.
func (f *Factory) CreateActivityBatch(records []*models.ActivityRecord) error {
	if len(records) == 0 {
		return nil
	}
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateActivityBatch: %d records (no DB write)", len(records))
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 200
	}
	return f.db.CreateInBatches(records, batch).Error
}

// pick returns k distinct indexes from [0, n).
func (f *Factory) pick(n, k int) []int {
	if k > n {
		k = n
	}
	return f.rnd.Perm(n)[:k]
}
