package application

import "github.com/chadvangaalen/sfr/internal/domain"

// pendingBuffer holds not-yet-sent report records in arrival order. All
// mutation happens on the single producer path, so it carries no lock; the
// drained slice is a copy so later appends cannot alias into an in-flight
// batch.
type pendingBuffer struct {
	records []domain.ReportRecord
}

func (b *pendingBuffer) append(r domain.ReportRecord) {
	b.records = append(b.records, r)
}

// removeWhere discards every pending record matching the predicate, used to
// coalesce repeated full-list reports so only the latest survives.
func (b *pendingBuffer) removeWhere(match func(domain.ReportRecord) bool) {
	kept := b.records[:0]
	for _, r := range b.records {
		if !match(r) {
			kept = append(kept, r)
		}
	}
	b.records = kept
}

func (b *pendingBuffer) drainAll() []domain.ReportRecord {
	if len(b.records) == 0 {
		return nil
	}
	drained := make([]domain.ReportRecord, len(b.records))
	copy(drained, b.records)
	b.records = b.records[:0]
	return drained
}

func (b *pendingBuffer) len() int { return len(b.records) }
