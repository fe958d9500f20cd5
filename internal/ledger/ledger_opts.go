package ledger

import "time"

type LedgerOpt func(*Ledger)

// WithClock replaces the time source used for timestamps and archive labels.
func WithClock(now func() time.Time) LedgerOpt {
	return func(l *Ledger) {
		l.now = now
	}
}
