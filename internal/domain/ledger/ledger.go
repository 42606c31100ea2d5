// Package ledger holds the ordered rounds of one game and folds them into
// aggregate scores and stroke tallies.
package ledger

import (
	"fmt"

	"github.com/okian/jasstafel/internal/domain/model"
)

// Ledger is an append-mostly list of finalized rounds.
// Records[i].SequenceNumber == i holds at all times.
//
// A Ledger is not safe for concurrent use; the owning session serializes access.
type Ledger struct {
	records []model.RoundRecord
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Append adds rec to the end of the ledger.
func (l *Ledger) Append(rec model.RoundRecord) error {
	if rec.SequenceNumber != len(l.records) {
		return fmt.Errorf("%w: got sequence %d, want %d", ErrSequence, rec.SequenceNumber, len(l.records))
	}
	l.records = append(l.records, rec.Clone())
	return nil
}

// TruncateAndAppend discards every record after upto and appends rec with
// sequence upto+1. It returns the number of discarded records. upto may be -1
// to replace the whole ledger with rec.
func (l *Ledger) TruncateAndAppend(upto int, rec model.RoundRecord) (int, error) {
	if upto < -1 || upto >= len(l.records) {
		return 0, fmt.Errorf("%w: truncation index %d outside [-1, %d]", ErrSequence, upto, len(l.records)-1)
	}
	if rec.SequenceNumber != upto+1 {
		return 0, fmt.Errorf("%w: got sequence %d, want %d", ErrSequence, rec.SequenceNumber, upto+1)
	}

	discarded := len(l.records) - (upto + 1)
	// Zero the tail so truncated records do not linger in the backing array.
	for i := upto + 1; i < len(l.records); i++ {
		l.records[i] = model.RoundRecord{}
	}
	l.records = append(l.records[:upto+1], rec.Clone())
	return discarded, nil
}

// Replace swaps in a record array received from a remote peer. The ledger is
// left untouched when the array is not contiguous from zero.
func (l *Ledger) Replace(records []model.RoundRecord) error {
	for i := range records {
		if records[i].SequenceNumber != i {
			return fmt.Errorf("%w: record %d carries sequence %d", ErrSequence, i, records[i].SequenceNumber)
		}
	}
	next := make([]model.RoundRecord, len(records))
	for i := range records {
		next[i] = records[i].Clone()
	}
	l.records = next
	return nil
}

// At returns a copy of the record at index i.
func (l *Ledger) At(i int) (model.RoundRecord, bool) {
	if i < 0 || i >= len(l.records) {
		return model.RoundRecord{}, false
	}
	return l.records[i].Clone(), true
}

// Latest returns a copy of the last record.
func (l *Ledger) Latest() (model.RoundRecord, bool) {
	return l.At(len(l.records) - 1)
}

// Records returns copies of every record in order.
func (l *Ledger) Records() []model.RoundRecord {
	out := make([]model.RoundRecord, len(l.records))
	for i := range l.records {
		out[i] = l.records[i].Clone()
	}
	return out
}

// Fold recomputes the aggregate state from scratch over every record.
func (l *Ledger) Fold() model.AggregateState {
	return FoldPrefix(l.records, len(l.records))
}

// FoldUpTo folds records 0..n-1. n is clamped to the ledger length.
func (l *Ledger) FoldUpTo(n int) model.AggregateState {
	return FoldPrefix(l.records, n)
}

// FoldPrefix folds the first n records of records. It is pure and total:
// the same prefix always yields the same state.
func FoldPrefix(records []model.RoundRecord, n int) model.AggregateState {
	n = min(max(n, 0), len(records))

	agg := model.AggregateState{StrokeTally: model.NewStrokeTally()}
	for i := 0; i < n; i++ {
		rec := &records[i]
		for _, t := range model.Teams() {
			agg.Scores.Add(t, rec.PointsFor(t)+rec.WeisPoints.Get(t))
		}
		for _, ev := range rec.StrokesAwarded {
			agg.StrokeTally.For(ev.Team)[ev.Kind] += ev.Marks
		}
	}
	agg.Rounds = n
	return agg
}
