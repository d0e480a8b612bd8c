package ocr

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/amoghcc/coffee-shop-rewards/internal/ledger"
	"github.com/amoghcc/coffee-shop-rewards/internal/models"
)

// UnknownStore is substituted when the recognition service could not name
// the store, matching the service's own fallback label.
const UnknownStore = "Unknown Store"

const maxStoreLen = 128

// ValidationError describes why an externally-produced recognition result
// was rejected. Nothing rejected here ever reaches the ledger.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// Validator bounds-checks recognition results before they become trusted
// transactions. The recognition service is untrusted input: totals may be
// missing, negative, non-finite or absurdly large, and store names may be
// arbitrary text.
type Validator struct {
	pointsPerUnit int
	maxTotal      float64
}

// NewValidator builds a validator awarding pointsPerUnit points per whole
// currency unit and rejecting totals above maxTotal.
func NewValidator(pointsPerUnit int, maxTotal float64) *Validator {
	if pointsPerUnit <= 0 {
		pointsPerUnit = 10
	}
	if maxTotal <= 0 {
		maxTotal = 10000
	}
	return &Validator{pointsPerUnit: pointsPerUnit, maxTotal: maxTotal}
}

// Validate turns a raw recognition result into an appendable candidate with
// source ocr, or fails with *ValidationError. It has no side effects; the
// caller decides whether to append.
func (v *Validator) Validate(raw Result) (ledger.Candidate, error) {
	total := raw.Total
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return ledger.Candidate{}, &ValidationError{Reason: "total is not a finite number"}
	}
	if total < 0 {
		return ledger.Candidate{}, &ValidationError{Reason: "total is negative"}
	}
	if total > v.maxTotal {
		return ledger.Candidate{}, &ValidationError{Reason: "amount exceeds bound"}
	}

	store := strings.TrimSpace(raw.Store)
	if store == "" {
		store = UnknownStore
	}
	if len(store) > maxStoreLen {
		// cut on a rune boundary; a byte-offset cut could persist invalid
		// UTF-8 in the ledger
		cut := maxStoreLen
		for cut > 0 && !utf8.RuneStart(store[cut]) {
			cut--
		}
		store = store[:cut]
	}

	return ledger.Candidate{
		Store:       store,
		AmountCents: int64(math.Round(total * 100)),
		Points:      int64(math.Round(total * float64(v.pointsPerUnit))),
		Source:      models.SourceOCR,
	}, nil
}
