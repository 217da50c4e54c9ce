package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	s := Snapshot{
		AccountNo:   "1234567",
		Balance:     decimal.NewFromFloat(180.5),
		ReadingTime: "2025-10-10T08:00:00",
		TakenAt:     time.Now().UTC(),
	}

	if err := Save(dir, s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := Load(dir, s.AccountNo)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot to exist")
	}
	if !got.Balance.Equal(s.Balance) || got.ReadingTime != s.ReadingTime {
		t.Fatalf("snapshot mismatch: got %+v want %+v", got, s)
	}

	// second account does not clobber the first
	s2 := Snapshot{AccountNo: "7654321", Balance: decimal.NewFromInt(900), TakenAt: time.Now().UTC()}
	if err := Save(dir, s2); err != nil {
		t.Fatalf("Save s2 failed: %v", err)
	}
	if _, ok, _ := Load(dir, s.AccountNo); !ok {
		t.Fatal("first snapshot lost after saving second account")
	}

	if _, err := os.Stat(filepath.Join(dir, stateFileName)); err != nil {
		t.Fatalf("state file missing: %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	_, ok, err := Load(t.TempDir(), "nope")
	if err != nil {
		t.Fatalf("Load of empty dir must not error: %v", err)
	}
	if ok {
		t.Fatal("expected no snapshot")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, stateFileName), []byte("{not json"), 0o640); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(dir, "x"); err == nil {
		t.Fatal("expected error for corrupt state file")
	}
}
