// Package escrow is the funds primitive the session manager books against.
// The real transfer rail is external; Ledger is the in-process implementation
// used by tests, the exhibition runner, and the default server wiring.
package escrow

import (
	"errors"
	"sync"
)

var (
	ErrInsufficient = errors.New("escrow: insufficient held funds")
	ErrRejected     = errors.New("escrow: transfer rejected")
)

// Vault receives escrowed funds and pays them out. Transfer is fallible; the
// caller must not adjust its own bookkeeping unless Transfer returns nil.
type Vault interface {
	Receive(from string, amount uint64) error
	Transfer(to string, amount uint64) error
	Balance() uint64
}

// Ledger is an in-memory vault. transferHook, when set, runs before a payout
// and can reject it (test seam for simulating rail failures).
type Ledger struct {
	mu           sync.Mutex
	held         uint64
	paid         map[string]uint64
	transferHook func(to string, amount uint64) error
}

func NewLedger() *Ledger {
	return &Ledger{paid: make(map[string]uint64)}
}

func (l *Ledger) SetTransferHook(fn func(to string, amount uint64) error) {
	l.mu.Lock()
	l.transferHook = fn
	l.mu.Unlock()
}

func (l *Ledger) Receive(from string, amount uint64) error {
	l.mu.Lock()
	l.held += amount
	l.mu.Unlock()
	return nil
}

func (l *Ledger) Transfer(to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.transferHook != nil {
		if err := l.transferHook(to, amount); err != nil {
			return err
		}
	}
	if amount > l.held {
		return ErrInsufficient
	}
	l.held -= amount
	l.paid[to] += amount
	return nil
}

func (l *Ledger) Balance() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// Paid reports the total transferred to an identity so far.
func (l *Ledger) Paid(to string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paid[to]
}
