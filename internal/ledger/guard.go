package ledger

import (
	"context"
	"errors"

	"github.com/amoghcc/coffee-shop-rewards/internal/models"
)

// RedemptionStore is the store label written on redemption transactions.
const RedemptionStore = "Reward Redemption"

// Guard coordinates redemptions so a balance can never go negative, no
// matter how the attempts interleave. It reads the balance, then performs a
// conditional append that re-checks the balance inside the store's per-user
// critical section; losing a race to a concurrent redemption triggers one
// retry of the whole cycle.
type Guard struct {
	store     *Store
	projector *Projector
	threshold int64
}

// NewGuard builds a redemption guard spending fixed blocks of threshold
// points. threshold must be positive.
func NewGuard(store *Store, projector *Projector, threshold int64) *Guard {
	if threshold <= 0 {
		threshold = 100
	}
	return &Guard{store: store, projector: projector, threshold: threshold}
}

// Threshold returns the fixed redemption block size.
func (g *Guard) Threshold() int64 { return g.threshold }

// errStaleBalance signals that the balance moved between the initial read
// and the guarded append.
var errStaleBalance = errors.New("stale balance")

// Redeem spends one block of points for userID. It fails with
// ErrInsufficientPoints when the durable balance is below the threshold
// (no side effect), and with ErrRedemptionConflict under persistent
// contention. On success the appended redemption transaction is returned
// and the resulting balance is guaranteed to be >= 0.
func (g *Guard) Redeem(ctx context.Context, userID string) (models.Transaction, error) {
	cand := Candidate{
		Store:       RedemptionStore,
		AmountCents: 0,
		Points:      -g.threshold,
		Source:      models.SourceRedemption,
	}

	// one retry after losing to a concurrent redemption
	for attempt := 0; attempt < 2; attempt++ {
		balance, err := g.projector.Balance(ctx, userID)
		if err != nil {
			return models.Transaction{}, err
		}
		if balance < g.threshold {
			return models.Transaction{}, ErrInsufficientPoints
		}

		record, err := g.store.AppendIf(ctx, userID, cand, func(durable int64, _ uint64) error {
			if durable < g.threshold {
				return CondErr(errStaleBalance)
			}
			return nil
		})
		if errors.Is(err, errStaleBalance) {
			continue
		}
		if err != nil {
			return models.Transaction{}, err
		}
		return record, nil
	}
	return models.Transaction{}, ErrRedemptionConflict
}
