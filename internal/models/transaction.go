package models

import "time"

// Transaction sources. OCR-sourced rows went through ingestion validation;
// redemption rows are the only ones allowed to carry negative points.
const (
	SourceManual     = "manual"
	SourceOCR        = "ocr"
	SourceRedemption = "redemption"
)

// Transaction is one immutable entry in a user's points ledger. Rows are
// append-only: there is no update or delete path anywhere in the codebase,
// corrections are new offsetting transactions.
//
// Seq is the per-user sequence number. (UserID, Seq) is unique and strictly
// increasing per user; a balance is always a fold over a Seq prefix.
type Transaction struct {
	ID          string    `gorm:"primaryKey;size:36"`
	UserID      string    `gorm:"size:36;not null;uniqueIndex:idx_user_seq,priority:1"`
	Seq         uint64    `gorm:"not null;uniqueIndex:idx_user_seq,priority:2"`
	Store       string    `gorm:"size:128;not null"`
	AmountCents int64     `gorm:"not null"` // purchase amount in cents, 0 for redemptions
	Points      int64     `gorm:"not null"` // signed; negative only for redemptions
	Source      string    `gorm:"size:16;index;not null"`
	CreatedAt   time.Time `gorm:"index;not null"`
}
