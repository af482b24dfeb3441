package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/dukerupert/mom/internal/model"
	"github.com/dukerupert/mom/internal/notify"
)

// deliveryQueueSize bounds how many tick batches may wait behind an
// unanswered permission prompt before new batches are dropped.
const deliveryQueueSize = 16

// batch is the set of events one tick found due.
type batch struct {
	at     time.Time
	events []DueEvent
}

type Kind string

const (
	KindMedication  Kind = "medication"
	KindAppointment Kind = "appointment"
)

// DueEvent is one reminder that should be shown now.
type DueEvent struct {
	Kind  Kind   `json:"kind"`
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Snapshot is a read-only copy of the reminder collections taken at the
// start of a tick.
type Snapshot struct {
	Medications  []model.Medication
	Appointments []model.Appointment
}

// Source supplies a fresh snapshot on every tick.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Snapshot, error)

func (f SourceFunc) Snapshot(ctx context.Context) (Snapshot, error) { return f(ctx) }

// Notifier is the delivery side of a tick. *notify.Gate implements it.
type Notifier interface {
	RequestPermission(ctx context.Context) (notify.State, error)
	CanNotify() bool
	Deliver(title, body string)
}

type dedupKey struct {
	kind Kind
	id   string
}

// Scheduler decides which reminders are due and hands them to a Notifier.
// Each reminder fires once per occurrence: once per calendar day for a
// medication, once per instant for an appointment.
type Scheduler struct {
	cfg    Config
	clock  Clock
	logger *slog.Logger

	mu    sync.Mutex
	sent  map[dedupKey]time.Time
	onDue func(DueEvent)
}

// New creates a scheduler. Zero fields in cfg take their defaults and a nil
// clock means the wall clock.
func New(cfg Config, clock Clock, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{
		cfg:    cfg.withDefaults(),
		clock:  clock,
		logger: logger,
		sent:   make(map[dedupKey]time.Time),
	}
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Now returns the scheduler clock's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// OnDue registers a callback invoked on the tick goroutine for every due
// event, before delivery. Set it before Start.
func (s *Scheduler) OnDue(fn func(DueEvent)) {
	s.mu.Lock()
	s.onDue = fn
	s.mu.Unlock()
}

// EvaluateTick returns the reminders due at now that have not fired yet for
// their current occurrence, and records them as fired. Medications come
// first, then appointments, each in input order. Entries with unparseable
// times are skipped.
func (s *Scheduler) EvaluateTick(now time.Time, meds []model.Medication, appts []model.Appointment) []DueEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune(now)

	var events []DueEvent
	for _, m := range meds {
		ev, occurrence, ok := s.medicationDue(now, m)
		if !ok {
			continue
		}
		if s.fired(dedupKey{KindMedication, m.ID}, occurrence) {
			continue
		}
		events = append(events, ev)
	}
	for _, a := range appts {
		ev, occurrence, ok := s.appointmentDue(now, a)
		if !ok {
			continue
		}
		if s.fired(dedupKey{KindAppointment, a.ID}, occurrence) {
			continue
		}
		events = append(events, ev)
	}
	return events
}

// Preview returns the reminders due at now without consulting or touching
// the dedup state.
func (s *Scheduler) Preview(now time.Time, meds []model.Medication, appts []model.Appointment) []DueEvent {
	var events []DueEvent
	for _, m := range meds {
		if ev, _, ok := s.medicationDue(now, m); ok {
			events = append(events, ev)
		}
	}
	for _, a := range appts {
		if ev, _, ok := s.appointmentDue(now, a); ok {
			events = append(events, ev)
		}
	}
	return events
}

// fired reports whether key already fired for occurrence and marks it
// fired otherwise. Caller holds s.mu.
func (s *Scheduler) fired(key dedupKey, occurrence time.Time) bool {
	if last, ok := s.sent[key]; ok && last.Equal(occurrence) {
		return true
	}
	s.sent[key] = occurrence
	return false
}

// prune drops dedup entries that can never match again: medication days
// before today and appointment instants already passed. Caller holds s.mu.
func (s *Scheduler) prune(now time.Time) {
	today := startOfDay(now)
	for key, occurrence := range s.sent {
		switch key.kind {
		case KindMedication:
			if occurrence.Before(today) {
				delete(s.sent, key)
			}
		case KindAppointment:
			if !occurrence.After(now) {
				delete(s.sent, key)
			}
		}
	}
}

func (s *Scheduler) medicationDue(now time.Time, m model.Medication) (DueEvent, time.Time, bool) {
	if !m.Active {
		return DueEvent{}, time.Time{}, false
	}

	hour, minute, err := ParseTimeOfDay(m.Time, now.Location())
	if err != nil {
		s.logger.Debug("skip medication", "id", m.ID, "error", err)
		return DueEvent{}, time.Time{}, false
	}

	y, mo, d := now.Date()
	scheduled := time.Date(y, mo, d, hour, minute, 0, 0, now.Location())
	if absDuration(now.Sub(scheduled)) >= s.cfg.MedicationWindow {
		return DueEvent{}, time.Time{}, false
	}

	dose := m.Dose
	if dose == "" {
		dose = "-"
	}
	return DueEvent{
		Kind:  KindMedication,
		ID:    m.ID,
		Title: "Medication time: " + m.Name,
		Body:  fmt.Sprintf("Dose: %s now", dose),
	}, startOfDay(now), true
}

func (s *Scheduler) appointmentDue(now time.Time, a model.Appointment) (DueEvent, time.Time, bool) {
	at, err := ParseInstant(a.Datetime, now.Location())
	if err != nil {
		s.logger.Debug("skip appointment", "id", a.ID, "error", err)
		return DueEvent{}, time.Time{}, false
	}

	delta := at.Sub(now)
	if delta <= 0 || delta >= s.cfg.AppointmentLookahead {
		return DueEvent{}, time.Time{}, false
	}

	return DueEvent{
		Kind:  KindAppointment,
		ID:    a.ID,
		Title: "Upcoming appointment: " + a.Title,
		Body:  inMinutes(delta),
	}, at, true
}

// Handle controls a running scheduler loop.
type Handle struct {
	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

// Stop cancels the loop and waits for the current tick to finish. It is
// safe to call more than once and on a nil handle. Deliveries already
// handed to the notifier are not recalled.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(h.cancel)
	<-h.done
}

// Start evaluates the snapshot from src every PollInterval until ctx is done
// or the returned handle is stopped. Due events are delivered through n on a
// separate goroutine so that a pending permission prompt never delays
// evaluation. A nil n evaluates without delivering.
func (s *Scheduler) Start(ctx context.Context, src Source, n Notifier) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	queue := make(chan batch, deliveryQueueSize)
	ticker := s.clock.NewTicker(s.cfg.PollInterval)

	if n != nil {
		go s.deliverLoop(ctx, queue, n)
	}

	go func() {
		defer close(h.done)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C():
				s.tick(ctx, now, src, queue, n != nil)
			}
		}
	}()

	s.logger.Info("reminder scheduler started",
		"interval", s.cfg.PollInterval,
		"medication_window", s.cfg.MedicationWindow,
		"appointment_lookahead", s.cfg.AppointmentLookahead,
	)
	return h
}

func (s *Scheduler) tick(ctx context.Context, now time.Time, src Source, queue chan<- batch, deliver bool) {
	snap, err := src.Snapshot(ctx)
	if err != nil {
		s.logger.Error("load reminder snapshot", "error", err)
		return
	}

	events := s.EvaluateTick(now, snap.Medications, snap.Appointments)
	if len(events) == 0 {
		return
	}
	s.logger.Info("reminders due", "count", len(events))

	s.mu.Lock()
	onDue := s.onDue
	s.mu.Unlock()
	if onDue != nil {
		for _, ev := range events {
			onDue(ev)
		}
	}

	if !deliver {
		return
	}
	select {
	case queue <- batch{at: now, events: events}:
	default:
		s.logger.Warn("delivery queue full, dropping reminders", "count", len(events))
	}
}

func (s *Scheduler) deliverLoop(ctx context.Context, queue <-chan batch, n Notifier) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-queue:
			for _, ev := range b.events {
				s.deliver(ctx, n, b.at, ev)
			}
		}
	}
}

// deliver shows ev unless the tick that produced it is more than one poll
// interval old by the time permission is settled. A later tick has already
// taken its place and its text no longer matches the clock.
func (s *Scheduler) deliver(ctx context.Context, n Notifier, dueAt time.Time, ev DueEvent) {
	if _, err := n.RequestPermission(ctx); err != nil && !errors.Is(err, notify.ErrUnsupported) {
		s.logger.Debug("permission request", "id", ev.ID, "error", err)
	}
	if age := s.clock.Now().Sub(dueAt); age > s.cfg.PollInterval {
		s.logger.Debug("stale reminder dropped", "kind", ev.Kind, "id", ev.ID, "age", age)
		return
	}
	if !n.CanNotify() {
		s.logger.Debug("reminder not delivered", "kind", ev.Kind, "id", ev.ID)
		return
	}
	n.Deliver(ev.Title, ev.Body)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func inMinutes(d time.Duration) string {
	n := int(math.Round(d.Minutes()))
	switch n {
	case 0:
		return "In less than a minute"
	case 1:
		return "In 1 minute"
	}
	return fmt.Sprintf("In %d minutes", n)
}
