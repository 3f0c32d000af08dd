package application

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/chadvangaalen/sfr/internal/domain"
	"github.com/chadvangaalen/sfr/internal/ports"
)

// ReportVersion is the protocol version stamped into every batch header.
const ReportVersion = "2.0.0"

// creditRatio is the drift that triggers a fresh credits report from a
// profile snapshot: 5% either way since the last reported figure.
const creditRatio = 1.05

// Options configures an Engine. Sender is required; everything else has a
// usable default.
type Options struct {
	Sender    ports.BatchSender
	Alerter   ports.Alerter
	Clock     ports.Clock
	Logger    *log.Logger
	QueueSize int
	Version   string
}

// Engine is the event-translation and batched-delivery core: it owns the
// session state and pending buffer (producer context only) and a single
// background delivery worker.
type Engine struct {
	session domain.SessionState
	buffer  pendingBuffer
	worker  *deliveryWorker
	clock   ports.Clock
	log     *log.Logger
	version string

	// Display side values, written by the producer/notification consumer
	// and read by the UI.
	mu         sync.Mutex
	systemURL  string
	stationURL string
}

func New(opts Options) *Engine {
	if opts.Sender == nil {
		panic("application: Options.Sender is required")
	}
	if opts.Alerter == nil {
		opts.Alerter = ports.AlerterFunc(func(string) {})
	}
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Version == "" {
		opts.Version = ReportVersion
	}

	e := &Engine{
		worker:  newDeliveryWorker(opts.Sender, opts.Alerter, opts.Logger, opts.QueueSize),
		clock:   opts.Clock,
		log:     opts.Logger,
		version: opts.Version,
	}
	// A fresh engine starts inside the new-session window, like a freshly
	// loaded game: the starting dump fires on the first inventory event even
	// when the host never feeds a LoadGame entry.
	e.session.ResetForNewGame()
	return e
}

// HandleJournalEntry translates one journal entry, in arrival order, into
// zero or more queued reports and possibly a flush. It must be called from
// a single goroutine. A failed derivation is logged and returned as an
// error; subsequent entries are processed normally.
func (e *Engine) HandleJournalEntry(cmdr string, isBeta bool, system, station string, entry domain.Event, state *domain.PlayerState) error {
	_ = isBeta

	if domain.IsTrainingSystem(system) {
		return nil
	}

	// Flush any unsent reports under the previous identity before adopting
	// a new account.
	if cmdr != "" && cmdr != e.session.Commander {
		e.Flush(nil)
	}

	e.session.Commander = cmdr
	e.session.FrontierID = state.FrontierID
	e.session.Multicrew = state.Role != ""

	name := entry.Name()
	switch {
	case name == "LoadGame" || e.session.IsNewUser():
		if name == "LoadGame" {
			// Credentials entered at the loading screen behave like a new
			// session.
			e.session.ResetForNewGame()
		} else {
			e.session.ResetForNewUser()
		}
		e.setDisplayURLs("", "")
	case name == "Resurrect" || name == "ShipyardBuy" || name == "ShipyardSell" || name == "SellShipOnRebuy":
		e.session.ClearCreditsMarker()
	case name == "ShipyardNew" || name == "ShipyardSwap" || (name == "Location" && entry.Bool("Docked")):
		e.session.SuppressNextDock()
	}

	if err := e.translate(system, station, entry, state); err != nil {
		e.log.Printf("translate %s: %v", name, err)
		return fmt.Errorf("translate %s: %w", name, err)
	}
	if err := e.translateTrailing(system, station, entry, state); err != nil {
		e.log.Printf("translate %s: %v", name, err)
		return fmt.Errorf("translate %s: %w", name, err)
	}

	e.session.EndNewUserWindow()
	return nil
}

// SetCredentials marks the session new-user after first receipt of a
// private API credential; the full starting state is dumped on the next
// journal entry.
func (e *Engine) SetCredentials() {
	e.session.MarkNewUser()
}

// HandleProfile re-reports credits from a companion profile snapshot when
// they have drifted at least 5% from the last reported figure.
func (e *Engine) HandleProfile(credits, loan int64) {
	last := e.session.LastCredits()
	if last != 0 {
		upper := float64(last) * creditRatio
		lower := float64(last) / creditRatio
		if float64(credits) < upper && float64(credits) > lower {
			return
		}
	}

	ts := e.clock.Now().UTC().Format(time.RFC3339)
	e.addEvent("setCommanderCredits", ts, domain.Payload{
		{Key: "commanderCredits", Value: credits},
		{Key: "commanderLoan", Value: loan},
	})
	e.session.SetLastCredits(credits)
	e.maybeFlush(true, false)
}

// Flush snapshots the pending buffer into a batch and enqueues it. With a
// callback, the reply (or nil after exhausted retries) goes to the callback
// and default interpretation is skipped.
func (e *Engine) Flush(callback func(*domain.Reply)) {
	if e.buffer.len() == 0 {
		return
	}
	e.enqueueBatch(callback)
}

// Stop sends any unsent reports and shuts the delivery worker down,
// waiting for in-flight batches to finish.
func (e *Engine) Stop() {
	e.Flush(nil)
	e.worker.stop()
}

// Notifications is the side channel carrying location/ship reply payloads
// from the delivery worker to the consumer context.
func (e *Engine) Notifications() <-chan domain.Notification { return e.worker.notify }

// LastLocation returns the reply payload of the most recent
// location-changing record.
func (e *Engine) LastLocation() map[string]any { return e.worker.lastLocationData() }

// LastShip returns the reply payload of the most recent ship-changing
// record.
func (e *Engine) LastShip() map[string]any { return e.worker.lastShipData() }

// Health is the observable two-state delivery status.
func (e *Engine) Health() Health { return e.worker.healthState() }

// Commander returns the active commander identity.
func (e *Engine) Commander() string { return e.session.Commander }

// Pending returns the number of unsent reports. Producer context only.
func (e *Engine) Pending() int { return e.buffer.len() }

// SetDisplayURLs records the display links derived from the latest
// location reply, honoring the host's provider preference.
func (e *Engine) SetDisplayURLs(system, station string) { e.setDisplayURLs(system, station) }

func (e *Engine) setDisplayURLs(system, station string) {
	e.mu.Lock()
	e.systemURL = system
	e.stationURL = station
	e.mu.Unlock()
}

func (e *Engine) clearStationURL() {
	e.mu.Lock()
	e.stationURL = ""
	e.mu.Unlock()
}

func (e *Engine) clearSystemURL() {
	e.mu.Lock()
	e.systemURL = ""
	e.mu.Unlock()
}

// SystemURL returns the display link for the current system, if known.
func (e *Engine) SystemURL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.systemURL
}

// StationURL returns the display link for the current station, falling back
// to the system link.
func (e *Engine) StationURL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stationURL != "" {
		return e.stationURL
	}
	return e.systemURL
}

func (e *Engine) addEvent(name, timestamp string, data any) {
	e.buffer.append(domain.ReportRecord{
		EventName:      name,
		EventTimestamp: timestamp,
		EventData:      data,
	})
}
