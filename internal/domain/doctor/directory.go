package doctor

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/docfinder/docfinder/internal/domain/filter"
	"github.com/docfinder/docfinder/internal/platform/telemetry"
)

// Directory holds the single fetched doctor batch. Until a fetch completes
// it reports Loading and an empty list; after a failed fetch it reports
// FetchFailed and an empty list.
type Directory struct {
	source  Source
	logger  zerolog.Logger
	metrics *telemetry.Metrics

	mu          sync.RWMutex
	doctors     []Doctor
	loading     bool
	fetchFailed bool
}

// NewDirectory creates a Directory that has not fetched yet. metrics may be nil.
func NewDirectory(source Source, logger zerolog.Logger, metrics *telemetry.Metrics) *Directory {
	return &Directory{
		source:  source,
		logger:  logger,
		metrics: metrics,
		doctors: []Doctor{},
		loading: true,
	}
}

// Load fetches and normalizes the doctor list. A failed fetch is absorbed
// into the FetchFailed flag and returned for callers that want to log or
// exit on it. A cancelled ctx leaves the previous state in place.
func (d *Directory) Load(ctx context.Context) error {
	d.mu.Lock()
	wasLoading := d.loading
	d.loading = true
	d.mu.Unlock()

	raw, err := d.source.Fetch(ctx)
	if errors.Is(err, context.Canceled) {
		// The caller gave up; the source did not fail. Keep the current list.
		d.logger.Debug().Err(err).Msg("doctor fetch cancelled")
		d.mu.Lock()
		d.loading = wasLoading
		d.mu.Unlock()
		return err
	}
	if err != nil {
		d.logger.Error().Err(err).Msg("doctor fetch failed")
		d.metrics.ObserveFetch(false)
		d.mu.Lock()
		d.doctors = []Doctor{}
		d.loading = false
		d.fetchFailed = true
		d.mu.Unlock()
		return err
	}

	doctors := Normalize(raw)
	d.metrics.ObserveFetch(true)
	d.metrics.SetDoctorsLoaded(len(doctors))
	d.logger.Info().Int("count", len(doctors)).Msg("doctor list loaded")

	d.mu.Lock()
	d.doctors = doctors
	d.loading = false
	d.fetchFailed = false
	d.mu.Unlock()
	return nil
}

// Snapshot returns the current list and flags. The list is shared and must
// not be modified.
func (d *Directory) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Snapshot{
		Doctors:     d.doctors,
		Loading:     d.loading,
		FetchFailed: d.fetchFailed,
	}
}

// Filter applies f to the current list.
func (d *Directory) Filter(f filter.State) []Doctor {
	return d.apply(d.Snapshot(), f)
}

func (d *Directory) apply(snap Snapshot, f filter.State) []Doctor {
	out := Apply(snap.Doctors, f)
	d.metrics.ObserveFilter(f.SortBy, len(out))
	return out
}

// Get returns a copy of the doctor with the given id.
func (d *Directory) Get(id int) (Doctor, error) {
	for _, doc := range d.Snapshot().Doctors {
		if doc.ID == id {
			return doc.Clone(), nil
		}
	}
	return Doctor{}, ErrDoctorNotFound
}

// Specialties returns every distinct specialty across the list, sorted.
func Specialties(doctors []Doctor) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, d := range doctors {
		for _, sp := range d.Specialties {
			if _, ok := seen[sp]; ok {
				continue
			}
			seen[sp] = struct{}{}
			out = append(out, sp)
		}
	}
	slices.Sort(out)
	return out
}

// MaxSuggestions bounds the search-box suggestion list.
const MaxSuggestions = 3

// Suggest returns up to MaxSuggestions doctors whose name contains query,
// case-insensitively, in list order. A blank query yields no suggestions.
func Suggest(doctors []Doctor, query string) []Doctor {
	out := []Doctor{}
	if strings.TrimSpace(query) == "" {
		return out
	}
	q := strings.ToLower(query)
	for _, d := range doctors {
		if strings.Contains(strings.ToLower(d.Name), q) {
			out = append(out, d.Clone())
			if len(out) == MaxSuggestions {
				break
			}
		}
	}
	return out
}
