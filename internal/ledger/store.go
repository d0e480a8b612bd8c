package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amoghcc/coffee-shop-rewards/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Candidate is a transaction that has not been appended yet. The store fills
// in ID, Seq and CreatedAt at append time.
type Candidate struct {
	Store       string
	AmountCents int64
	Points      int64
	Source      string
}

func (c Candidate) check() error {
	switch c.Source {
	case models.SourceManual, models.SourceOCR:
		if c.AmountCents < 0 {
			return fmt.Errorf("negative amount for source %q", c.Source)
		}
		if c.Points < 0 {
			return fmt.Errorf("negative points for source %q", c.Source)
		}
	case models.SourceRedemption:
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	if c.Store == "" {
		return fmt.Errorf("empty store name")
	}
	return nil
}

// Store is the append-only transaction log, the single source of truth for
// balances. Appends for the same user are serialized by a per-user mutex so
// sequence numbers are assigned without gaps or duplicates; different users
// append fully in parallel.
type Store struct {
	db    *gorm.DB
	feed  *Feed
	locks sync.Map // userID -> *sync.Mutex
}

// NewStore wraps db as a transaction log. feed may be nil when no live
// observers are needed (e.g. in tests).
func NewStore(db *gorm.DB, feed *Feed) *Store {
	return &Store{db: db, feed: feed}
}

func (s *Store) userLock(userID string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Append assigns the next sequence number for userID and durably records the
// candidate. The row is written in a single database transaction: either the
// transaction exists with its sequence number, or nothing was written.
func (s *Store) Append(ctx context.Context, userID string, cand Candidate) (models.Transaction, error) {
	return s.AppendIf(ctx, userID, cand, nil)
}

// AppendIf is Append with a guard: when cond is non-nil it runs inside the
// per-user critical section against the committed balance and tail sequence,
// and the append happens only if cond returns nil. This is the primitive the
// redemption path uses to rule out double-spends.
//
// cond must be fast and must not block on external calls; it runs while the
// user's append lock is held.
func (s *Store) AppendIf(ctx context.Context, userID string, cand Candidate, cond func(balance int64, tailSeq uint64) error) (models.Transaction, error) {
	if userID == "" {
		return models.Transaction{}, fmt.Errorf("empty user id")
	}
	if err := cand.check(); err != nil {
		return models.Transaction{}, fmt.Errorf("invalid candidate: %w", err)
	}

	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	record := models.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Store:       cand.Store,
		AmountCents: cand.AmountCents,
		Points:      cand.Points,
		Source:      cand.Source,
		CreatedAt:   time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tail struct {
			Seq     uint64
			Balance int64
		}
		row := tx.Model(&models.Transaction{}).
			Select("COALESCE(MAX(seq), 0) AS seq, COALESCE(SUM(points), 0) AS balance").
			Where("user_id = ?", userID).
			Scan(&tail)
		if row.Error != nil {
			return row.Error
		}

		if cond != nil {
			if err := cond(tail.Balance, tail.Seq); err != nil {
				return err
			}
		}

		record.Seq = tail.Seq + 1
		return tx.Create(&record).Error
	})
	if err != nil {
		if _, ok := err.(condError); ok {
			return models.Transaction{}, err
		}
		return models.Transaction{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if s.feed != nil {
		// published while the append lock is held, so feed order matches
		// sequence order per user
		s.feed.publish(record)
	}
	return record, nil
}

// condError marks errors produced by an AppendIf condition so they pass
// through without being reported as storage failures.
type condError struct{ err error }

func (e condError) Error() string { return e.err.Error() }
func (e condError) Unwrap() error { return e.err }

// CondErr wraps err for use inside an AppendIf condition.
func CondErr(err error) error { return condError{err: err} }

// List returns all of userID's transactions with Seq > sinceSeq, oldest
// first. A caller can resume from any sequence number it has observed; the
// returned prefix never changes once seen.
func (s *Store) List(ctx context.Context, userID string, sinceSeq uint64) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND seq > ?", userID, sinceSeq).
		Order("seq ASC").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return txs, nil
}

// TailSeq returns the highest sequence number assigned to userID, 0 when the
// ledger is empty.
func (s *Store) TailSeq(ctx context.Context, userID string) (uint64, error) {
	var seq uint64
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(MAX(seq), 0)").
		Where("user_id = ?", userID).
		Scan(&seq).Error
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return seq, nil
}
