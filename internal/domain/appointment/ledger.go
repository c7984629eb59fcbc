package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/docfinder/docfinder/internal/domain/doctor"
	"github.com/docfinder/docfinder/internal/platform/telemetry"
)

// Ledger is the appointment list backed by a Slot. The slot is the only
// source of truth: every operation re-reads it, and no copy is cached.
//
// Mutations hold mu for the whole read-modify-write so concurrent requests
// cannot lose each other's bookings. Observers are notified after the write
// completes, outside the lock.
type Ledger struct {
	slot    Slot
	logger  zerolog.Logger
	metrics *telemetry.Metrics

	mu sync.Mutex

	obsMu     sync.Mutex
	observers []observer
	nextObsID int
}

type observer struct {
	id int
	fn func()
}

// NewLedger creates a ledger over slot. metrics may be nil.
func NewLedger(slot Slot, logger zerolog.Logger, metrics *telemetry.Metrics) *Ledger {
	return &Ledger{
		slot:    slot,
		logger:  logger.With().Str("component", "ledger").Logger(),
		metrics: metrics,
	}
}

// List returns the current entries in insertion order. It never fails: an
// absent slot, an unreadable slot and a corrupt payload all yield an empty
// list.
func (l *Ledger) List(ctx context.Context) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read(ctx)
}

// Add appends e and persists the list. Observers are notified only when the
// write succeeds.
func (l *Ledger) Add(ctx context.Context, e Entry) error {
	l.mu.Lock()
	entries, err := l.load(ctx)
	if err != nil {
		l.mu.Unlock()
		l.metrics.ObserveLedger("add", 0, err)
		return err
	}
	entries = append(entries, e.Clone())
	err = l.write(ctx, entries)
	l.mu.Unlock()

	l.metrics.ObserveLedger("add", len(entries), err)
	if err != nil {
		return err
	}
	l.logger.Debug().Int("doctor_id", e.Doctor.ID).Int("size", len(entries)).Msg("appointment added")
	l.notify()
	return nil
}

// Book snapshots d into a new entry and adds it.
func (l *Ledger) Book(ctx context.Context, d doctor.Doctor, date, time string) (Entry, error) {
	e := NewEntry(d, date, time)
	if err := l.Add(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Cancel removes the entry at the 0-based index. An index outside the list
// is a no-op: nothing is written and no observer fires.
func (l *Ledger) Cancel(ctx context.Context, index int) error {
	l.mu.Lock()
	entries, err := l.load(ctx)
	if err != nil {
		l.mu.Unlock()
		l.metrics.ObserveLedger("cancel", 0, err)
		return err
	}
	if index < 0 || index >= len(entries) {
		l.mu.Unlock()
		return nil
	}
	entries = slices.Delete(entries, index, index+1)
	err = l.write(ctx, entries)
	l.mu.Unlock()

	l.metrics.ObserveLedger("cancel", len(entries), err)
	if err != nil {
		return err
	}
	l.logger.Debug().Int("index", index).Int("size", len(entries)).Msg("appointment cancelled")
	l.notify()
	return nil
}

// Subscribe registers fn to be called after every successful mutation. The
// returned function removes the registration and may be called more than
// once.
func (l *Ledger) Subscribe(fn func()) (unsubscribe func()) {
	l.obsMu.Lock()
	id := l.nextObsID
	l.nextObsID++
	l.observers = append(l.observers, observer{id: id, fn: fn})
	l.obsMu.Unlock()

	return func() {
		l.obsMu.Lock()
		defer l.obsMu.Unlock()
		l.observers = slices.DeleteFunc(l.observers, func(o observer) bool { return o.id == id })
	}
}

func (l *Ledger) notify() {
	l.obsMu.Lock()
	fns := make([]func(), len(l.observers))
	for i, o := range l.observers {
		fns[i] = o.fn
	}
	l.obsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// read is the lenient view used by List: backend errors degrade to an
// empty list.
func (l *Ledger) read(ctx context.Context) []Entry {
	entries, err := l.load(ctx)
	if err != nil {
		return []Entry{}
	}
	return entries
}

// load returns the stored entries. An absent slot or a malformed payload
// counts as empty; any other backend error is returned so mutations never
// overwrite bookings they could not read.
func (l *Ledger) load(ctx context.Context) ([]Entry, error) {
	data, err := l.slot.Load(ctx)
	if errors.Is(err, ErrSlotEmpty) {
		return []Entry{}, nil
	}
	if err != nil {
		l.logger.Error().Err(err).Msg("read appointment slot")
		return nil, fmt.Errorf("read appointment slot: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		l.logger.Warn().Err(err).Msg("appointment slot holds malformed data, treating as empty")
		return []Entry{}, nil
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func (l *Ledger) write(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode appointments: %w", err)
	}
	if err := l.slot.Store(ctx, data); err != nil {
		l.logger.Error().Err(err).Msg("write appointment slot")
		return err
	}
	return nil
}
