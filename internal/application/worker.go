package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/chadvangaalen/sfr/internal/domain"
	"github.com/chadvangaalen/sfr/internal/ports"
)

// Health is the observable two-state delivery status rendered by the host.
type Health int32

const (
	HealthOnline Health = iota
	HealthError
)

func (h Health) String() string {
	if h == HealthError {
		return "Error"
	}
	return "Online"
}

// deliveryAttempts bounds the immediate retries per batch. No reply after
// this many attempts is a transport failure.
const deliveryAttempts = 3

type workItem struct {
	batch    domain.Batch
	callback func(*domain.Reply)
}

// deliveryWorker is the single background goroutine draining the batch
// queue. Closing the queue channel is the shutdown signal; batches already
// enqueued are processed first, then done is closed.
type deliveryWorker struct {
	sender  ports.BatchSender
	alerter ports.Alerter
	log     *log.Logger

	queue  chan workItem
	done   chan struct{}
	notify chan domain.Notification
	health atomic.Int32

	mu           sync.Mutex
	lastLocation map[string]any
	lastShip     map[string]any
}

func newDeliveryWorker(sender ports.BatchSender, alerter ports.Alerter, logger *log.Logger, queueSize int) *deliveryWorker {
	w := &deliveryWorker{
		sender:  sender,
		alerter: alerter,
		log:     logger,
		queue:   make(chan workItem, queueSize),
		done:    make(chan struct{}),
		notify:  make(chan domain.Notification, 16),
	}
	go w.loop()
	return w
}

func (w *deliveryWorker) enqueue(batch domain.Batch, callback func(*domain.Reply)) {
	w.queue <- workItem{batch: batch, callback: callback}
}

func (w *deliveryWorker) stop() {
	close(w.queue)
	<-w.done
}

func (w *deliveryWorker) loop() {
	defer close(w.done)
	for item := range w.queue {
		w.deliver(item)
	}
}

func (w *deliveryWorker) deliver(item workItem) {
	var reply *domain.Reply
	for attempt := 1; attempt <= deliveryAttempts; attempt++ {
		r, err := w.sender.Send(context.Background(), item.batch)
		if err != nil {
			w.log.Printf("send batch attempt %d/%d: %v", attempt, deliveryAttempts, err)
			continue
		}
		reply = r
		break
	}

	if reply == nil {
		if item.callback != nil {
			item.callback(nil)
			return
		}
		w.alerter.Alert("Error: can't connect to SFR")
		w.health.Store(int32(HealthError))
		return
	}

	if item.callback != nil {
		item.callback(reply)
		return
	}
	w.interpret(item.batch, reply)
}

func (w *deliveryWorker) interpret(batch domain.Batch, reply *domain.Reply) {
	if !domain.StatusOK(reply.Header.EventStatus) {
		// Fatal batch rejection: log the offending batch with the reply.
		payload, _ := json.MarshalIndent(batch, "", "  ")
		w.log.Printf("batch rejected: %d %s\n%s", reply.Header.EventStatus, reply.Header.EventStatusText, payload)
		w.alerter.Alert(fmt.Sprintf("Error: SFR %s", headerStatusText(reply.Header)))
		w.health.Store(int32(HealthError))
		return
	}

	w.health.Store(int32(HealthOnline))

	n := len(batch.Events)
	if len(reply.Events) < n {
		n = len(reply.Events)
	}
	for i := 0; i < n; i++ {
		sent := batch.Events[i]
		got := reply.Events[i]

		if got.EventStatus != 200 {
			body, _ := json.Marshal(sent)
			w.log.Printf("event status %d %s: %s", got.EventStatus, got.EventStatusText, body)
			if !domain.StatusOK(got.EventStatus) {
				w.alerter.Alert(fmt.Sprintf("Error: SFR %s, %s", sent.EventName, eventStatusText(got)))
			}
		}

		// Location and ship replies feed the side channel regardless of
		// their own status.
		switch {
		case domain.IsLocationReport(sent.EventName):
			w.mu.Lock()
			w.lastLocation = got.EventData
			w.mu.Unlock()
			w.post(domain.Notification{Kind: domain.NotificationLocation, Data: got.EventData})
		case domain.IsShipReport(sent.EventName):
			w.mu.Lock()
			w.lastShip = got.EventData
			w.mu.Unlock()
			w.post(domain.Notification{Kind: domain.NotificationShip, Data: got.EventData})
		}
	}
}

func (w *deliveryWorker) post(n domain.Notification) {
	select {
	case w.notify <- n:
	default:
		w.log.Printf("notification dropped: %s", n.Kind)
	}
}

func (w *deliveryWorker) healthState() Health {
	return Health(w.health.Load())
}

func (w *deliveryWorker) lastLocationData() map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastLocation
}

func (w *deliveryWorker) lastShipData() map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastShip
}

func headerStatusText(h domain.ReplyStatus) string {
	if h.EventStatusText != "" {
		return h.EventStatusText
	}
	return fmt.Sprintf("%d", h.EventStatus)
}

func eventStatusText(ev domain.ReplyEvent) string {
	if ev.EventStatusText != "" {
		return ev.EventStatusText
	}
	return fmt.Sprintf("%d", ev.EventStatus)
}
