// Package channels maintains the lead-source dictionary keyed by
// category|source|level1|level2.
package channels

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hxms_backend/platform/db"
	"hxms_backend/platform/logger"
	"hxms_backend/platform/metrics"

	"github.com/jackc/pgx/v5"
)

const (
	keySeparator          = "|"
	compoundKeyConstraint = "channels_compound_key"
)

var (
	// ErrNotFound is returned when no channel has the key.
	ErrNotFound = errors.New("channel not found")
	// ErrConflict is returned when an insert hits the compound key.
	ErrConflict = errors.New("channel compound key conflict")
)

// Attribution is the four-part channel classification carried by a lead.
type Attribution struct {
	Category string `json:"category"`
	Source   string `json:"source"`
	Level1   string `json:"level1"`
	Level2   string `json:"level2"`
}

// Normalized trims every part; absent levels become empty strings.
func (a Attribution) Normalized() Attribution {
	return Attribution{
		Category: strings.TrimSpace(a.Category),
		Source:   strings.TrimSpace(a.Source),
		Level1:   strings.TrimSpace(a.Level1),
		Level2:   strings.TrimSpace(a.Level2),
	}
}

// IsEmpty reports whether no part is set.
func (a Attribution) IsEmpty() bool {
	n := a.Normalized()
	return n.Category == "" && n.Source == "" && n.Level1 == "" && n.Level2 == ""
}

// Key builds the compound dictionary key.
func (a Attribution) Key() string {
	n := a.Normalized()
	return strings.Join([]string{n.Category, n.Source, n.Level1, n.Level2}, keySeparator)
}

// Channel is a dictionary row.
type Channel struct {
	ID          int64  `json:"id"`
	CompoundKey string `json:"compoundKey"`
	Attribution
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the persistence the service needs.
type Store interface {
	FindByKey(ctx context.Context, key string) (Channel, error)
	Insert(ctx context.Context, key string, a Attribution) (Channel, error)
}

// Service implements the channel normalizer.
type Service struct {
	store   Store
	metrics *metrics.Metrics
	log     *logger.Logger
}

// NewService creates a channel Service.
func NewService(store Store, m *metrics.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, metrics: m, log: log}
}

// FindOrCreate returns the dictionary row for a, creating it on first sight.
// An attribution with no parts links no channel and returns nil.
func (s *Service) FindOrCreate(ctx context.Context, a Attribution) (*Channel, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	a = a.Normalized()
	key := a.Key()

	existing, err := s.store.FindByKey(ctx, key)
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find channel: %w", err)
	}

	created, err := s.store.Insert(ctx, key, a)
	if err == nil {
		return &created, nil
	}
	if !errors.Is(err, ErrConflict) {
		return nil, fmt.Errorf("create channel: %w", err)
	}

	s.metrics.IncFindOrCreateConflict("channel")
	s.log.WithContext(ctx).Info("channel insert raced, re-reading", "key", key)

	existing, err = s.store.FindByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("re-read channel after conflict: %w", err)
	}
	return &existing, nil
}

// Repository is the PostgreSQL channel store.
type Repository struct {
	db db.DBTX
}

// NewRepository creates a channel repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

var _ Store = (*Repository)(nil)

// FindByKey loads a channel by compound key.
func (r *Repository) FindByKey(ctx context.Context, key string) (Channel, error) {
	var ch Channel
	err := r.db.QueryRow(ctx, `
		SELECT id, compound_key, category, source, level1, level2, created_at
		FROM channels
		WHERE compound_key = $1`, key,
	).Scan(&ch.ID, &ch.CompoundKey, &ch.Category, &ch.Source, &ch.Level1, &ch.Level2, &ch.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Channel{}, ErrNotFound
	}
	if err != nil {
		return Channel{}, fmt.Errorf("find channel: %w", err)
	}
	return ch, nil
}

// Insert creates a channel. A compound key collision returns ErrConflict.
func (r *Repository) Insert(ctx context.Context, key string, a Attribution) (Channel, error) {
	var ch Channel
	err := r.db.QueryRow(ctx, `
		INSERT INTO channels (compound_key, category, source, level1, level2)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, compound_key, category, source, level1, level2, created_at`,
		key, a.Category, a.Source, a.Level1, a.Level2,
	).Scan(&ch.ID, &ch.CompoundKey, &ch.Category, &ch.Source, &ch.Level1, &ch.Level2, &ch.CreatedAt)
	if db.IsUniqueViolation(err, compoundKeyConstraint) {
		return Channel{}, ErrConflict
	}
	if err != nil {
		return Channel{}, fmt.Errorf("insert channel: %w", err)
	}
	return ch, nil
}
