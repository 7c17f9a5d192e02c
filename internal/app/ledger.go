package app

import "fibra-quiz-service/internal/domain"

// Ledger is the append-only record of answered questions for one attempt.
// Entries are never edited or removed; readers only ever get copies.
type Ledger struct {
	entries []domain.LedgerEntry
	correct int
}

func (l *Ledger) Append(entry domain.LedgerEntry) {
	l.entries = append(l.entries, entry)
	if entry.Correct {
		l.correct++
	}
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

// CorrectCount is the running number of correct entries.
func (l *Ledger) CorrectCount() int {
	return l.correct
}

// Snapshot returns a copy of all entries in insertion order.
func (l *Ledger) Snapshot() []domain.LedgerEntry {
	out := make([]domain.LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
