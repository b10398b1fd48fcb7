// Package ledger holds the per-run mutable state of a projection: the
// account balance ledger and the MAGI history. Each plan run owns its
// own instances; nothing here is shared between runs.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rothcast/rothcast/internal/domain"
)

// StateNotReadyError reports a read of a balance cell that has not been
// computed yet. The caller asked for state out of order; there is no
// fallback to the account's input balance.
type StateNotReadyError struct {
	AccountID domain.AccountID
	Year      int
}

func (e *StateNotReadyError) Error() string {
	return fmt.Sprintf("ledger: balance for account %q in year %d has not been computed", e.AccountID, e.Year)
}

type cell struct {
	accountID domain.AccountID
	year      int
}

// Ledger records end-of-year balances per account. Cells are
// write-once: a year's balance is set exactly once and read any number
// of times afterwards.
type Ledger struct {
	balances map[cell]decimal.Decimal
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[cell]decimal.Decimal)}
}

// Balance returns the recorded end-of-year balance. A read of a cell
// never written returns StateNotReadyError.
func (l *Ledger) Balance(id domain.AccountID, year int) (decimal.Decimal, error) {
	amt, ok := l.balances[cell{id, year}]
	if !ok {
		return decimal.Zero, &StateNotReadyError{AccountID: id, Year: year}
	}
	return amt, nil
}

// SetBalance records an end-of-year balance. Overwriting an existing
// cell is a sequencing bug in the caller and is rejected.
func (l *Ledger) SetBalance(id domain.AccountID, year int, amt decimal.Decimal) error {
	c := cell{id, year}
	if _, exists := l.balances[c]; exists {
		return fmt.Errorf("ledger: balance for account %q in year %d already recorded", id, year)
	}
	l.balances[c] = amt
	return nil
}

// History is the append-only MAGI record used for the IRMAA two-year
// lookback. Entries are immutable once recorded.
type History struct {
	magi map[int]decimal.Decimal
}

// NewHistory returns an empty MAGI history.
func NewHistory() *History {
	return &History{magi: make(map[int]decimal.Decimal)}
}

// Record appends a year's MAGI. Recording a year twice is rejected.
func (h *History) Record(year int, magi decimal.Decimal) error {
	if _, exists := h.magi[year]; exists {
		return fmt.Errorf("ledger: MAGI for year %d already recorded", year)
	}
	h.magi[year] = magi
	return nil
}

// MAGI returns the recorded value for a year, with ok reporting whether
// one exists.
func (h *History) MAGI(year int) (decimal.Decimal, bool) {
	m, ok := h.magi[year]
	return m, ok
}

// Lookback returns the MAGI from two years before the given year, with
// ok false when that year predates the simulation.
func (h *History) Lookback(year int) (decimal.Decimal, bool) {
	return h.MAGI(year - 2)
}
