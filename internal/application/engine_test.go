package application

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chadvangaalen/sfr/internal/domain"
)

// captureSender records every batch and answers with an all-200 reply unless
// a custom reply function is set.
type captureSender struct {
	mu      sync.Mutex
	batches []domain.Batch
	reply   func(domain.Batch) (*domain.Reply, error)
}

func (s *captureSender) Send(_ context.Context, batch domain.Batch) (*domain.Reply, error) {
	s.mu.Lock()
	s.batches = append(s.batches, batch)
	s.mu.Unlock()
	if s.reply != nil {
		return s.reply(batch)
	}
	return okReply(len(batch.Events)), nil
}

func (s *captureSender) sent() []domain.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Batch, len(s.batches))
	copy(out, s.batches)
	return out
}

func okReply(events int) *domain.Reply {
	reply := &domain.Reply{Header: domain.ReplyStatus{EventStatus: 200}}
	for i := 0; i < events; i++ {
		reply.Events = append(reply.Events, domain.ReplyEvent{EventStatus: 200})
	}
	return reply
}

func newTestEngine(t *testing.T) (*Engine, *captureSender) {
	t.Helper()
	sender := &captureSender{}
	return New(Options{Sender: sender}), sender
}

func eventNames(batch domain.Batch) []string {
	names := make([]string, 0, len(batch.Events))
	for _, r := range batch.Events {
		names = append(names, r.EventName)
	}
	return names
}

func payloadOf(t *testing.T, r domain.ReportRecord) domain.Payload {
	t.Helper()
	p, ok := r.EventData.(domain.Payload)
	require.True(t, ok, "event data of %s is %T, want Payload", r.EventName, r.EventData)
	return p
}

func handle(t *testing.T, e *Engine, system, station string, entry domain.Event, state *domain.PlayerState) {
	t.Helper()
	require.NoError(t, e.HandleJournalEntry("Norman Jayden", false, system, station, entry, state))
}

func TestHandleProfileReportsOnCreditDrift(t *testing.T) {
	e, sender := newTestEngine(t)

	e.HandleProfile(1000, 0)  // nothing reported yet, always sends
	e.HandleProfile(1040, 0)  // within 5 percent, dropped
	e.HandleProfile(2000, 10) // drifted, sends
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 2)

	first := payloadOf(t, batches[0].Events[0])
	credits, _ := first.Get("commanderCredits")
	require.EqualValues(t, 1000, credits)

	second := payloadOf(t, batches[1].Events[0])
	credits, _ = second.Get("commanderCredits")
	require.EqualValues(t, 2000, credits)
	loan, _ := second.Get("commanderLoan")
	require.EqualValues(t, 10, loan)
}

func TestTrainingSystemsAreIgnored(t *testing.T) {
	e, sender := newTestEngine(t)

	for _, system := range []string{"CQC", "Training", "Destination"} {
		handle(t, e, system, "", domain.Event{
			"event":     "Docked",
			"timestamp": "t1",
		}, &domain.PlayerState{})
	}
	e.Stop()

	require.Empty(t, sender.sent())
}

func TestAccountSwitchFlushesUnderOldIdentity(t *testing.T) {
	sender := &captureSender{}
	e := New(Options{Sender: sender})

	friends := domain.Event{
		"event":     "Friends",
		"timestamp": "t1",
		"Status":    "Added",
		"Name":      "Scott Shelby",
	}

	require.NoError(t, e.HandleJournalEntry("First", false, "Sol", "", friends, &domain.PlayerState{FrontierID: "F1"}))
	require.NoError(t, e.HandleJournalEntry("Second", false, "Sol", "", friends, &domain.PlayerState{FrontierID: "F2"}))
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 2)
	require.Equal(t, "First", batches[0].Header.CommanderName)
	require.Equal(t, "F1", batches[0].Header.CommanderFrontierID)
	require.Equal(t, "Second", batches[1].Header.CommanderName)
}

func TestBatchHeaderCarriesVersion(t *testing.T) {
	sender := &captureSender{}
	e := New(Options{Sender: sender, Version: "9.9.9"})

	e.HandleProfile(500, 0)
	e.Stop()

	batches := sender.sent()
	require.Len(t, batches, 1)
	require.Equal(t, "9.9.9", batches[0].Header.Version)
}

func TestStationURLFallsBackToSystem(t *testing.T) {
	e, _ := newTestEngine(t)
	defer e.Stop()

	e.SetDisplayURLs("https://example.test/system", "")
	require.Equal(t, "https://example.test/system", e.SystemURL())
	require.Equal(t, "https://example.test/system", e.StationURL())

	e.SetDisplayURLs("https://example.test/system", "https://example.test/station")
	require.Equal(t, "https://example.test/station", e.StationURL())
}
