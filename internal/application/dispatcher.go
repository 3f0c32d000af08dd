package application

import "github.com/chadvangaalen/sfr/internal/domain"

// maybeFlush decides, after processing one journal entry, whether the
// pending buffer should be handed to the delivery worker now: whenever the
// entry appended new records, or on a terminating event. Held records wait
// for the next mandatory flush point otherwise.
func (e *Engine) maybeFlush(hadNewRecords, isTerminating bool) {
	if e.buffer.len() == 0 {
		return
	}
	if !hadNewRecords && !isTerminating {
		return
	}
	e.enqueueBatch(nil)
}

// enqueueBatch drains the buffer into an independent batch and hands it to
// the worker queue. The buffer is free to accept new records immediately.
func (e *Engine) enqueueBatch(callback func(*domain.Reply)) {
	batch := domain.Batch{
		Header: domain.BatchHeader{
			CommanderName:       e.session.Commander,
			CommanderFrontierID: e.session.FrontierID,
			Version:             e.version,
		},
		Events: e.buffer.drainAll(),
	}
	e.worker.enqueue(batch, callback)
}
