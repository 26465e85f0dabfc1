package service

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"playrewards/internal/models"
	"playrewards/internal/observability"

	"golang.org/x/sync/errgroup"
)

// DefaultDescription is shown for users with no activity on record.
const DefaultDescription = "No recent activity"

// Defaults used when EnricherConfig leaves a field unset.
const (
	defaultActivityLookback      = 20
	defaultEnrichmentConcurrency = 8
)

// PresenceFilter selects users by connection status.
type PresenceFilter string

// Presence filters accepted by list and discovery queries.
const (
	PresenceAll     PresenceFilter = "all"
	PresenceOnline  PresenceFilter = models.PresenceOnline
	PresenceOffline PresenceFilter = models.PresenceOffline
)

// Perspective is how the caller relates to the enriched user. It is empty for
// discovery candidates.
type Perspective struct {
	Relation     FriendListRelation
	FriendStatus models.FriendStatus
}

// DisplayRecord is a user decorated with presence and activity.
type DisplayRecord struct {
	ID             uint                `json:"id"`
	Username       string              `json:"username"`
	Avatar         string              `json:"avatar"`
	Status         string              `json:"status"`
	Description    string              `json:"description"`
	LastActivityAt int64               `json:"last_activity_at"`
	DisplayText    string              `json:"display_text"`
	Relation       FriendListRelation  `json:"relation,omitempty"`
	FriendStatus   models.FriendStatus `json:"friend_status,omitempty"`
}

// Online reports whether the record's status is online.
func (d DisplayRecord) Online() bool {
	return d.Status == models.PresenceOnline
}

// Subject is one user to enrich together with the caller's view of them.
type Subject struct {
	User        models.UserSummary
	Perspective Perspective
}

// EnricherConfig tunes ActivityEnricher.
type EnricherConfig struct {
	// Lookback is how many recent activity records are read per user.
	Lookback int
	// Concurrency bounds parallel lookups within one EnrichAll call.
	Concurrency int
}

// ActivityEnricher decorates users with presence and activity derived from
// the activity log. It never writes.
type ActivityEnricher struct {
	activity    ActivityReader
	games       GameLookup
	lookback    int
	concurrency int
}

// NewActivityEnricher returns an ActivityEnricher. games may be nil, in which
// case game activity keeps its logged description.
func NewActivityEnricher(activity ActivityReader, games GameLookup, cfg EnricherConfig) *ActivityEnricher {
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaultActivityLookback
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultEnrichmentConcurrency
	}
	return &ActivityEnricher{
		activity:    activity,
		games:       games,
		lookback:    cfg.Lookback,
		concurrency: cfg.Concurrency,
	}
}

// Enrich builds the display record for one user.
func (e *ActivityEnricher) Enrich(ctx context.Context, subject models.UserSummary, p Perspective) (DisplayRecord, error) {
	rec := DisplayRecord{
		ID:           subject.ID,
		Username:     subject.Username,
		Avatar:       subject.Avatar,
		Status:       models.PresenceOffline,
		Description:  DefaultDescription,
		Relation:     p.Relation,
		FriendStatus: p.FriendStatus,
	}

	records, err := e.activity.GetLatestActivity(ctx, subject.ID, e.lookback)
	if err != nil {
		return DisplayRecord{}, err
	}

	var latest time.Time
	var connection, activity *models.ActivityRecord
	for i := range records {
		r := &records[i]
		if r.CreatedAt.After(latest) {
			latest = r.CreatedAt
		}
		switch r.Type {
		case models.ActivityTypeConnection:
			if connection == nil || r.CreatedAt.After(connection.CreatedAt) {
				connection = r
			}
		case models.ActivityTypeActivity:
			if activity == nil || r.CreatedAt.After(activity.CreatedAt) {
				activity = r
			}
		}
	}

	if !latest.IsZero() {
		rec.LastActivityAt = latest.Unix()
	}
	if connection != nil {
		if status := strings.ToLower(strings.TrimSpace(connection.Description)); status != "" {
			rec.Status = status
		}
	}
	if activity != nil {
		desc, err := e.describe(ctx, activity)
		if err != nil {
			return DisplayRecord{}, err
		}
		rec.Description = desc
	}
	rec.DisplayText = displayText(rec.Online(), rec.Description, activity != nil)
	return rec, nil
}

// describe turns an activity record into its display description, naming the
// game when the record points at one that still exists.
func (e *ActivityEnricher) describe(ctx context.Context, r *models.ActivityRecord) (string, error) {
	desc := strings.TrimSpace(r.Description)
	if e.games != nil && r.LogableType == models.LogableTypeGames && r.LogableID != nil {
		game, err := e.games.GetGameByID(ctx, *r.LogableID)
		if err != nil {
			return "", err
		}
		if game != nil && game.Name != "" {
			return "Playing " + game.Name, nil
		}
	}
	if desc == "" {
		return DefaultDescription, nil
	}
	return desc, nil
}

func displayText(online bool, description string, hasActivity bool) string {
	if !hasActivity {
		if online {
			return "Online"
		}
		return "Offline"
	}
	if online {
		return "Currently " + lowerFirst(description)
	}
	return "Last seen " + lowerFirst(description)
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// EnrichAll enriches subjects concurrently and returns records in input
// order. source labels the latency metric. The first failure cancels the rest.
func (e *ActivityEnricher) EnrichAll(ctx context.Context, source string, subjects []Subject) ([]DisplayRecord, error) {
	start := time.Now()
	defer func() {
		observability.EnrichmentLatency.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}()

	out := make([]DisplayRecord, len(subjects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, s := range subjects {
		g.Go(func() error {
			rec, err := e.Enrich(gctx, s.User, s.Perspective)
			if err != nil {
				return err
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FilterByPresence keeps records matching filter. PresenceAll and the empty
// filter keep everything. Any status other than online counts as offline.
func FilterByPresence(records []DisplayRecord, filter PresenceFilter) []DisplayRecord {
	if filter == "" || filter == PresenceAll {
		return records
	}
	out := make([]DisplayRecord, 0, len(records))
	for _, r := range records {
		if r.Online() == (filter == PresenceOnline) {
			out = append(out, r)
		}
	}
	return out
}
