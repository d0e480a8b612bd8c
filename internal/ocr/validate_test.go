package ocr

import (
	"errors"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/amoghcc/coffee-shop-rewards/internal/models"
)

func TestValidateAcceptsPlausibleReceipt(t *testing.T) {
	v := NewValidator(10, 10000)

	cand, err := v.Validate(Result{Store: "Cafe", Total: 12.50})
	if err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
	if cand.Store != "Cafe" {
		t.Errorf("store = %q, want %q", cand.Store, "Cafe")
	}
	if cand.Points != 125 {
		t.Errorf("points = %d, want 125", cand.Points)
	}
	if cand.AmountCents != 1250 {
		t.Errorf("amount = %d, want 1250", cand.AmountCents)
	}
	if cand.Source != models.SourceOCR {
		t.Errorf("source = %q, want %q", cand.Source, models.SourceOCR)
	}
}

func TestValidateRejectsBadTotals(t *testing.T) {
	v := NewValidator(10, 10000)

	testCases := []struct {
		name string
		raw  Result
		rsn  string
	}{
		{"negative total", Result{Store: "", Total: -5}, "total is negative"},
		{"absurdly large", Result{Store: "Cafe", Total: 1000000000}, "amount exceeds bound"},
		{"just above bound", Result{Store: "Cafe", Total: 10000.01}, "amount exceeds bound"},
		{"NaN", Result{Store: "Cafe", Total: math.NaN()}, "total is not a finite number"},
		{"Inf", Result{Store: "Cafe", Total: math.Inf(1)}, "total is not a finite number"},
	}

	for _, tc := range testCases {
		_, err := v.Validate(tc.raw)
		if err == nil {
			t.Errorf("Validate(%s) error = nil, want error", tc.name)
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Validate(%s) error = %v, want *ValidationError", tc.name, err)
			continue
		}
		if verr.Reason != tc.rsn {
			t.Errorf("Validate(%s) reason = %q, want %q", tc.name, verr.Reason, tc.rsn)
		}
	}
}

func TestValidateDefaultsMissingStore(t *testing.T) {
	v := NewValidator(10, 10000)

	testCases := []string{"", "   ", "\t"}
	for _, store := range testCases {
		cand, err := v.Validate(Result{Store: store, Total: 3.00})
		if err != nil {
			t.Fatalf("Validate(store=%q) error = %v", store, err)
		}
		if cand.Store != UnknownStore {
			t.Errorf("Validate(store=%q) store = %q, want %q", store, cand.Store, UnknownStore)
		}
	}
}

func TestValidateTruncatesLongStoreName(t *testing.T) {
	v := NewValidator(10, 10000)

	cand, err := v.Validate(Result{Store: strings.Repeat("x", 500), Total: 1})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(cand.Store) != maxStoreLen {
		t.Errorf("store length = %d, want %d", len(cand.Store), maxStoreLen)
	}
}

func TestValidateTruncationKeepsValidUTF8(t *testing.T) {
	v := NewValidator(10, 10000)

	// 3-byte runes; 128 is not a multiple of 3 so a byte-offset cut would
	// split a rune
	cand, err := v.Validate(Result{Store: strings.Repeat("猫", 100), Total: 1})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(cand.Store) > maxStoreLen {
		t.Errorf("store length = %d, want <= %d", len(cand.Store), maxStoreLen)
	}
	if !utf8.ValidString(cand.Store) {
		t.Errorf("truncated store is not valid UTF-8: %q", cand.Store)
	}
}

func TestValidateZeroTotal(t *testing.T) {
	v := NewValidator(10, 10000)

	// the recognition service returns 0.0 when it found no total at all;
	// that is a valid (if useless) receipt worth zero points
	cand, err := v.Validate(Result{Store: "Cafe", Total: 0})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cand.Points != 0 || cand.AmountCents != 0 {
		t.Errorf("zero total produced points=%d amount=%d, want 0, 0", cand.Points, cand.AmountCents)
	}
}

func TestValidateRoundsPoints(t *testing.T) {
	v := NewValidator(10, 10000)

	testCases := []struct {
		total  float64
		points int64
	}{
		{12.50, 125},
		{0.04, 0},
		{0.05, 1},
		{9.99, 100},
		{10.00, 100},
	}

	for _, tc := range testCases {
		cand, err := v.Validate(Result{Store: "Cafe", Total: tc.total})
		if err != nil {
			t.Fatalf("Validate(%v) error = %v", tc.total, err)
		}
		if cand.Points != tc.points {
			t.Errorf("Validate(%v) points = %d, want %d", tc.total, cand.Points, tc.points)
		}
	}
}
