package config

import (
	"path/filepath"
	"testing"
)

// Load is once-only for the process; a failed first load must keep failing
// on later calls instead of handing back a nil config with a nil error.
func TestLoadFailureIsSticky(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	cfg, err := Load(missing)
	if err == nil {
		t.Fatalf("Load(missing) error = nil, cfg = %+v, want error", cfg)
	}

	cfg, err = Load(missing)
	if err == nil {
		t.Fatal("second Load(missing) error = nil, want the captured error")
	}
	if cfg != nil {
		t.Errorf("second Load(missing) cfg = %+v, want nil", cfg)
	}

	if got := Get(); got != nil {
		t.Errorf("Get() after failed Load = %+v, want nil", got)
	}
}
