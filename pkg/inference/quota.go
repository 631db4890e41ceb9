package inference

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Ledger tracks API usage against daily and hourly limits and persists the
// counters to a JSON file, so restarts do not reset the budget. The free
// Gemini tier allows 1500 requests per day; the hourly limit spreads them
// out so one chatty evening cannot burn the whole day.
type Ledger struct {
	path        string
	dailyLimit  int
	hourlyLimit int
	now         func() time.Time

	mu    sync.Mutex
	state ledgerState
}

type ledgerState struct {
	Date       string `json:"date"`
	Hour       int    `json:"hour"`
	DailyUsed  int    `json:"daily_used"`
	HourlyUsed int    `json:"hourly_used"`
}

// NewLedger loads or creates the ledger at path. An unreadable or corrupt
// file starts a fresh ledger rather than failing.
func NewLedger(path string, dailyLimit, hourlyLimit int) *Ledger {
	l := &Ledger{
		path:        path,
		dailyLimit:  dailyLimit,
		hourlyLimit: hourlyLimit,
		now:         time.Now,
	}
	if data, err := os.ReadFile(path); err == nil {
		json.Unmarshal(data, &l.state)
	}
	return l
}

// CanUse reports whether another API call fits in the current window.
func (l *Ledger) CanUse() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll()
	return l.state.DailyUsed < l.dailyLimit && l.state.HourlyUsed < l.hourlyLimit
}

// Record counts one API call and persists the ledger.
func (l *Ledger) Record() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll()
	l.state.DailyUsed++
	l.state.HourlyUsed++
	return l.persist()
}

// Remaining reports how many calls are left today and this hour.
func (l *Ledger) Remaining() (daily, hourly int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll()
	return l.dailyLimit - l.state.DailyUsed, l.hourlyLimit - l.state.HourlyUsed
}

// roll resets counters when the day or hour has turned. Callers hold mu.
func (l *Ledger) roll() {
	now := l.now()
	date := now.Format("2006-01-02")
	if l.state.Date != date {
		l.state.Date = date
		l.state.Hour = now.Hour()
		l.state.DailyUsed = 0
		l.state.HourlyUsed = 0
		return
	}
	if l.state.Hour != now.Hour() {
		l.state.Hour = now.Hour()
		l.state.HourlyUsed = 0
	}
}

func (l *Ledger) persist() error {
	data, err := json.MarshalIndent(l.state, "", "  ")
	if err != nil {
		return fmt.Errorf("inference: marshal quota ledger: %w", err)
	}
	if dir := filepath.Dir(l.path); dir != "." {
		os.MkdirAll(dir, 0o755)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("inference: write quota ledger: %w", err)
	}
	return nil
}
