package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amoghcc/coffee-shop-rewards/internal/config"
	"github.com/amoghcc/coffee-shop-rewards/internal/ledger"
	"github.com/amoghcc/coffee-shop-rewards/internal/models"
	"github.com/amoghcc/coffee-shop-rewards/internal/util"

	"github.com/gin-gonic/gin"
)

// TransactionHandler exposes the ledger over HTTP: manual entry, listing,
// balance and redemption. All mutations go through the store's append
// primitive; nothing here writes rows directly.
type TransactionHandler struct {
	Store     *ledger.Store
	Projector *ledger.Projector
	Guard     *ledger.Guard
	Rewards   config.RewardsConfig
}

func NewTransactionHandler(store *ledger.Store, projector *ledger.Projector, guard *ledger.Guard, rewards config.RewardsConfig) *TransactionHandler {
	return &TransactionHandler{
		Store:     store,
		Projector: projector,
		Guard:     guard,
		Rewards:   rewards,
	}
}

// ---------- request/response shapes ----------

type createTransactionReq struct {
	Store  string `json:"store" binding:"required,max=128"`
	Amount string `json:"amount" binding:"required"`
}

type transactionResp struct {
	ID          string    `json:"id"`
	Seq         uint64    `json:"seq"`
	Store       string    `json:"store"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"` // formatted, for display
	Points      int64     `json:"points"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTransactionResp(t *models.Transaction) transactionResp {
	return transactionResp{
		ID:          t.ID,
		Seq:         t.Seq,
		Store:       t.Store,
		AmountCents: t.AmountCents,
		Amount:      formatCentsToAmount(t.AmountCents),
		Points:      t.Points,
		Source:      t.Source,
		CreatedAt:   t.CreatedAt,
	}
}

// ---------- helpers ----------

// parseAmount parses a currency string ("12.50") into a float, rejecting
// junk and non-finite values.
func parseAmount(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrRange
	}
	return f, nil
}

// formatCentsToAmount renders cents as a two-decimal currency string.
func formatCentsToAmount(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100.0, 'f', 2, 64)
}

// ---------- manual entry ----------

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	req.Store = strings.TrimSpace(req.Store)
	if req.Store == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "store is required")
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil || amount <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid amount")
		return
	}
	if amount > h.Rewards.MaxReceiptTotal {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "amount exceeds bound")
		return
	}

	cand := ledger.Candidate{
		Store:       req.Store,
		AmountCents: int64(math.Round(amount * 100)),
		Points:      int64(math.Round(amount * float64(h.Rewards.PointsPerUnit))),
		Source:      models.SourceManual,
	}

	record, err := h.Store.Append(c.Request.Context(), user.UID, cand)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save transaction")
		return
	}

	util.Success(c, util.Response{
		"transaction": toTransactionResp(&record),
	})
}

// ---------- listing ----------

// ListTransactions returns the user's ledger after an optional ?since=<seq>
// cursor, plus the balance consistent with the returned tail. Observers that
// missed feed events re-list from their last seen sequence number.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var since uint64
	if s := c.Query("since"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid since cursor")
			return
		}
		since = v
	}

	txs, err := h.Store.List(c.Request.Context(), user.UID, since)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to list transactions")
		return
	}

	items := make([]transactionResp, 0, len(txs))
	latest := since
	for i := range txs {
		items = append(items, toTransactionResp(&txs[i]))
		if txs[i].Seq > latest {
			latest = txs[i].Seq
		}
	}
	if len(txs) == 0 {
		// an empty page still reports the real tail, so the caller's cursor
		// and the balance below agree even if the cursor was stale
		latest, err = h.Store.TailSeq(c.Request.Context(), user.UID)
		if err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to list transactions")
			return
		}
	}

	// balance as of latest, not "now": a racing append must not make the
	// envelope's balance run ahead of its latest_seq
	balance, err := h.Projector.BalanceAt(c.Request.Context(), user.UID, latest)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to compute balance")
		return
	}

	util.Success(c, util.Response{
		"items":      items,
		"balance":    balance,
		"latest_seq": latest,
	})
}

func (h *TransactionHandler) GetBalance(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	balance, err := h.Projector.Balance(c.Request.Context(), user.UID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to compute balance")
		return
	}

	util.Success(c, util.Response{
		"balance":          balance,
		"redeem_threshold": h.Guard.Threshold(),
	})
}

// ---------- redemption ----------

func (h *TransactionHandler) Redeem(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	record, err := h.Guard.Redeem(c.Request.Context(), user.UID)
	switch {
	case errors.Is(err, ledger.ErrInsufficientPoints):
		util.Error(c, http.StatusConflict, util.CodeInsufficientPoints, "not enough points")
		return
	case errors.Is(err, ledger.ErrRedemptionConflict):
		util.Error(c, http.StatusConflict, util.CodeRedeemConflict, "redemption conflict, please retry")
		return
	case err != nil:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to redeem")
		return
	}

	balance, err := h.Projector.Balance(c.Request.Context(), user.UID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to compute balance")
		return
	}

	util.Success(c, util.Response{
		"transaction": toTransactionResp(&record),
		"balance":     balance,
	})
}
