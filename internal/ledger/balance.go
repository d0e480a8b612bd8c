package ledger

import (
	"context"
	"fmt"

	"github.com/amoghcc/coffee-shop-rewards/internal/models"

	"gorm.io/gorm"
)

// Projector derives point balances from the transaction log. The balance is
// never stored: every read is a fold (SUM) over committed rows, so it can
// only ever observe the log at a whole sequence number, never mid-append.
type Projector struct {
	db *gorm.DB
}

func NewProjector(db *gorm.DB) *Projector {
	return &Projector{db: db}
}

// Balance returns the current point total for userID: the sum of Points over
// every transaction in the user's ledger. An empty ledger yields 0.
func (p *Projector) Balance(ctx context.Context, userID string) (int64, error) {
	return p.BalanceAt(ctx, userID, 0)
}

// BalanceAt returns the balance as of sequence number seq; seq = 0 means the
// full log. Used by observers that want a total consistent with a List they
// already hold.
func (p *Projector) BalanceAt(ctx context.Context, userID string, seq uint64) (int64, error) {
	q := p.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ?", userID)
	if seq > 0 {
		q = q.Where("seq <= ?", seq)
	}

	var total int64
	if err := q.Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return total, nil
}

// Fold recomputes a balance from an in-memory transaction list. It is the
// reference implementation the SQL aggregate must agree with.
func Fold(txs []models.Transaction) int64 {
	var total int64
	for i := range txs {
		total += txs[i].Points
	}
	return total
}
