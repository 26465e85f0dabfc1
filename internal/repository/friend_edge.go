// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"playrewards/internal/database"
	"playrewards/internal/models"
	"playrewards/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Direction selects which endpoint of an edge FindByOwner matches on.
type Direction int

const (
	// DirectionOutgoing matches edges owned by the user.
	DirectionOutgoing Direction = iota
	// DirectionIncoming matches edges pointing at the user.
	DirectionIncoming
)

// EdgeSpec describes one edge to insert.
type EdgeSpec struct {
	OwnerID    uint
	FriendedID uint
	Status     models.FriendStatus
}

// FindOptions filters FindByOwner. An empty Status matches any status.
type FindOptions struct {
	Direction Direction
	Status    models.FriendStatus
}

// FriendEdgeStore persists directed friend edges. Only live (not soft-deleted)
// edges are ever returned or mutated.
type FriendEdgeStore interface {
	CreateEdges(ctx context.Context, edges []EdgeSpec) error
	UpdateStatus(ctx context.Context, ownerIDs []uint, friendedID uint, status models.FriendStatus) error
	SoftDelete(ctx context.Context, ownerIDs []uint, friendedID uint) error
	FindByOwner(ctx context.Context, userID uint, opts FindOptions) ([]models.FriendEdge, error)
	FindAllRelated(ctx context.Context, userID uint) ([]models.FriendEdge, error)
	FindPair(ctx context.Context, userA, userB uint) ([]models.FriendEdge, error)
	LockPair(ctx context.Context, userA, userB uint) error
	WithinTransaction(ctx context.Context, fn func(tx FriendEdgeStore) error) error
}

type friendEdgeStore struct {
	db      *gorm.DB
	log     *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewFriendEdgeStore returns a FriendEdgeStore backed by db.
func NewFriendEdgeStore(db *gorm.DB) FriendEdgeStore {
	return &friendEdgeStore{
		db:      db,
		log:     observability.NewRepoLogger("friend_edges"),
		metrics: observability.NewDatabaseMetrics("friend_edges"),
	}
}

// CreateEdges inserts all edges in one statement. The insert runs in a nested
// transaction so that, inside an outer transaction, a unique violation only
// rolls back to the savepoint and the caller may carry on.
func (r *friendEdgeStore) CreateEdges(ctx context.Context, edges []EdgeSpec) error {
	if len(edges) == 0 {
		return nil
	}
	defer r.metrics.TrackQuery("create")()

	rows := make([]models.FriendEdge, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, models.FriendEdge{OwnerID: e.OwnerID, FriendedID: e.FriendedID, Status: e.Status})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(&rows).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return models.NewConstraintViolation("friend edge already exists", err)
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}

	r.log.LogCreate(ctx, map[string]interface{}{"count": len(rows)})
	return nil
}

func (r *friendEdgeStore) UpdateStatus(ctx context.Context, ownerIDs []uint, friendedID uint, status models.FriendStatus) error {
	if len(ownerIDs) == 0 {
		return nil
	}
	defer r.metrics.TrackQuery("update_status")()

	res := r.db.WithContext(ctx).
		Model(&models.FriendEdge{}).
		Where("owner_id IN ? AND friended_id = ?", ownerIDs, friendedID).
		Update("status", status)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update_status")
		return models.NewInternalError(res.Error)
	}

	r.log.LogUpdate(ctx, map[string]interface{}{
		"friended_id": friendedID,
		"status":      status,
		"rows":        res.RowsAffected,
	})
	return nil
}

func (r *friendEdgeStore) SoftDelete(ctx context.Context, ownerIDs []uint, friendedID uint) error {
	if len(ownerIDs) == 0 {
		return nil
	}
	defer r.metrics.TrackQuery("soft_delete")()

	res := r.db.WithContext(ctx).
		Where("owner_id IN ? AND friended_id = ?", ownerIDs, friendedID).
		Delete(&models.FriendEdge{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "soft_delete")
		return models.NewInternalError(res.Error)
	}

	r.log.LogDelete(ctx, map[string]interface{}{
		"friended_id": friendedID,
		"rows":        res.RowsAffected,
	})
	return nil
}

// FindByOwner lists live edges on one side of userID with both endpoint users preloaded.
func (r *friendEdgeStore) FindByOwner(ctx context.Context, userID uint, opts FindOptions) ([]models.FriendEdge, error) {
	defer r.metrics.TrackQuery("find_by_owner")()
	span, ctx := r.trace(ctx, "FindByOwner")
	defer span.End()

	column := "owner_id"
	if opts.Direction == DirectionIncoming {
		column = "friended_id"
	}

	q := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Friended").
		Where(column+" = ?", userID)
	if opts.Status != "" {
		q = q.Where("status = ?", opts.Status)
	}

	var edges []models.FriendEdge
	if err := q.Order("created_at DESC, id DESC").Find(&edges).Error; err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

// FindAllRelated returns every outgoing live edge of userID plus incoming pending invites.
func (r *friendEdgeStore) FindAllRelated(ctx context.Context, userID uint) ([]models.FriendEdge, error) {
	defer r.metrics.TrackQuery("find_all_related")()
	span, ctx := r.trace(ctx, "FindAllRelated")
	defer span.End()

	var edges []models.FriendEdge
	if err := r.db.WithContext(ctx).
		Where("(owner_id = ? OR (friended_id = ? AND status = ?))", userID, userID, models.FriendStatusPending).
		Find(&edges).Error; err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

// FindPair returns the live edges between two users in either direction.
// On PostgreSQL the rows are locked until the surrounding transaction ends.
func (r *friendEdgeStore) FindPair(ctx context.Context, userA, userB uint) ([]models.FriendEdge, error) {
	defer r.metrics.TrackQuery("find_pair")()

	q := r.db.WithContext(ctx).
		Where("((owner_id = ? AND friended_id = ?) OR (owner_id = ? AND friended_id = ?))", userA, userB, userB, userA)
	if database.IsPostgres(r.db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var edges []models.FriendEdge
	if err := q.Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

// LockPair takes a transaction-scoped advisory lock on the unordered pair so
// that two concurrent transitions between the same users run one after the
// other, even when neither has a row to lock yet. SQLite serializes writers
// already, so this is a no-op there.
func (r *friendEdgeStore) LockPair(ctx context.Context, userA, userB uint) error {
	if !database.IsPostgres(r.db) {
		return nil
	}
	if err := r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", pairLockKey(userA, userB)).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func pairLockKey(a, b uint) int64 {
	if a > b {
		a, b = b, a
	}
	return int64(uint64(a)<<32 | uint64(b)&0xffffffff)
}

func (r *friendEdgeStore) trace(ctx context.Context, method string) (*observability.Span, context.Context) {
	return observability.TraceRepositoryMethod(ctx, r.db.Dialector.Name(), method, "friend_edges")
}

func (r *friendEdgeStore) WithinTransaction(ctx context.Context, fn func(tx FriendEdgeStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&friendEdgeStore{db: tx, log: r.log, metrics: r.metrics})
	})
}

// isDuplicateKey reports whether err is a unique violation from any supported driver.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return isUniqueConstraintError(err)
}
