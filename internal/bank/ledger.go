// Package bank holds per-identity chip balances for the life of the process.
// Balances are keyed by a stable identity string so a player keeps their
// bankroll across reconnects. Nothing is persisted.
package bank

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrInsufficientFunds indicates a debit larger than the current balance.
	ErrInsufficientFunds = errors.New("bank: insufficient funds")

	// ErrUnknownAccount indicates a transfer to an identity never seen before.
	ErrUnknownAccount = errors.New("bank: unknown account")

	// ErrInvalidAmount indicates a zero or negative amount.
	ErrInvalidAmount = errors.New("bank: amount must be positive")
)

// Balance pairs an identity with its current chip count.
type Balance struct {
	Identity string
	Amount   int
}

// Ledger is a process-wide identity -> balance store. Identities are lazily
// initialized to the starting balance the first time they are seen.
type Ledger struct {
	mu       sync.Mutex
	start    int
	balances map[string]int
}

// NewLedger creates a ledger that seeds unseen identities with start chips.
func NewLedger(start int) *Ledger {
	return &Ledger{
		start:    start,
		balances: make(map[string]int),
	}
}

// Ensure initializes the identity if unseen. It returns the current balance
// and whether this was the first sighting, which drives the welcome event.
func (l *Ledger) Ensure(identity string) (balance int, fresh bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensureLocked(identity)
}

func (l *Ledger) ensureLocked(identity string) (int, bool) {
	if bal, ok := l.balances[identity]; ok {
		return bal, false
	}
	l.balances[identity] = l.start
	return l.start, true
}

// Balance returns the identity's balance, initializing it if unseen.
func (l *Ledger) Balance(identity string) int {
	bal, _ := l.Ensure(identity)
	return bal
}

// Known reports whether the identity has been seen before.
func (l *Ledger) Known(identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.balances[identity]
	return ok
}

// Credit adds amount to the identity's balance and returns the new balance.
func (l *Ledger) Credit(identity string, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	bal, _ := l.ensureLocked(identity)
	bal += amount
	l.balances[identity] = bal
	return bal, nil
}

// Debit removes amount from the identity's balance and returns the new
// balance. The balance is untouched when funds are insufficient.
func (l *Ledger) Debit(identity string, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	bal, _ := l.ensureLocked(identity)
	if bal < amount {
		return bal, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, bal, amount)
	}
	bal -= amount
	l.balances[identity] = bal
	return bal, nil
}

// Transfer moves amount between identities. Funds are checked before either
// side is touched, so a failed transfer leaves both balances unchanged. The
// recipient must already be known; the sender is initialized if unseen.
func (l *Ledger) Transfer(from, to string, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.balances[to]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, to)
	}
	bal, _ := l.ensureLocked(from)
	if bal < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, bal, amount)
	}
	l.balances[from] = bal - amount
	l.balances[to] += amount
	return nil
}

// Snapshot returns all balances sorted by identity, for round summaries and
// the admin state dump.
func (l *Ledger) Snapshot() []Balance {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Balance, 0, len(l.balances))
	for id, bal := range l.balances {
		out = append(out, Balance{Identity: id, Amount: bal})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}
