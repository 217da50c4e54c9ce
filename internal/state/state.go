// Package state persists the balance snapshot of the most recent run so the
// next run can report the delta. Disabled entirely unless a state directory
// is configured.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot records what one completed pass saw for an account.
type Snapshot struct {
	AccountNo   string          `json:"account_no"`
	Balance     decimal.Decimal `json:"balance"`
	ReadingTime string          `json:"reading_time"`
	TakenAt     time.Time       `json:"taken_at"`
}

var mu sync.Mutex

const stateFileName = "meterwatch_state.json"

// loadAllUnlocked reads the state file WITHOUT acquiring the package mutex.
// Caller must hold the lock if concurrent access is possible.
func loadAllUnlocked(dir string) (map[string]Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]Snapshot), nil
		}
		return nil, fmt.Errorf("load state: %w", err)
	}
	out := make(map[string]Snapshot)
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return out, nil
}

// saveAllUnlocked writes the state file WITHOUT acquiring the package mutex.
func saveAllUnlocked(dir string, m map[string]Snapshot) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir state dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, stateFileName), b, 0o640); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Save persists a snapshot keyed by account number. The package mutex is held
// for the entire read-modify-write cycle to avoid lost updates.
func Save(dir string, s Snapshot) error {
	mu.Lock()
	defer mu.Unlock()
	m, err := loadAllUnlocked(dir)
	if err != nil {
		return err
	}
	m[s.AccountNo] = s
	return saveAllUnlocked(dir, m)
}

// Load returns the persisted snapshot for an account, if any.
func Load(dir, accountNo string) (Snapshot, bool, error) {
	mu.Lock()
	defer mu.Unlock()
	m, err := loadAllUnlocked(dir)
	if err != nil {
		return Snapshot{}, false, err
	}
	s, ok := m[accountNo]
	return s, ok, nil
}
