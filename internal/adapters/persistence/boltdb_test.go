package persistence

import (
	"path/filepath"
	"testing"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadPrice(t *testing.T) {
	s := newTestStorage(t)

	if err := s.SavePrice("icp", 12.5); err != nil {
		t.Fatalf("SavePrice failed: %v", err)
	}

	usd, at, err := s.LoadPrice("icp")
	if err != nil {
		t.Fatalf("LoadPrice failed: %v", err)
	}
	if usd != 12.5 {
		t.Errorf("usd = %f, want 12.5", usd)
	}
	if at.IsZero() {
		t.Error("expected a non-zero update timestamp")
	}
}

func TestLoadPriceMissing(t *testing.T) {
	s := newTestStorage(t)

	usd, at, err := s.LoadPrice("unknown")
	if err != nil {
		t.Fatalf("LoadPrice failed: %v", err)
	}
	if usd != 0 || !at.IsZero() {
		t.Errorf("missing entry should be (0, zero time), got (%f, %v)", usd, at)
	}
}

func TestSaveAndLoadPairSources(t *testing.T) {
	s := newTestStorage(t)

	want := []string{"sonic", "icpswap"}
	if err := s.SavePairSources("icp/ckbtc", want); err != nil {
		t.Fatalf("SavePairSources failed: %v", err)
	}

	got, err := s.LoadPairSources("icp/ckbtc")
	if err != nil {
		t.Fatalf("LoadPairSources failed: %v", err)
	}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("sources = %v, want %v", got, want)
	}

	missing, err := s.LoadPairSources("nope")
	if err != nil || missing != nil {
		t.Errorf("missing pair should be (nil, nil), got (%v, %v)", missing, err)
	}
}
