package doctor

import (
	"slices"
	"strings"

	"github.com/docfinder/docfinder/internal/domain/filter"
)

// Apply derives the visible doctor list from the full list and the active
// filters. It runs search, consultation type, specialty and sort stages in
// that order, never modifies doctors, and always returns a new non-nil slice.
func Apply(doctors []Doctor, f filter.State) []Doctor {
	out := make([]Doctor, 0, len(doctors))

	search := strings.ToLower(f.Search)
	for _, d := range doctors {
		if search != "" && !strings.Contains(strings.ToLower(d.Name), search) {
			continue
		}
		if f.ConsultationType != "" && d.ConsultationType != f.ConsultationType {
			continue
		}
		if len(f.Specialties) > 0 && !sharesSpecialty(d.Specialties, f.Specialties) {
			continue
		}
		out = append(out, d.Clone())
	}

	switch f.SortBy {
	case filter.SortFee:
		slices.SortStableFunc(out, compareFee)
	case filter.SortExperience:
		slices.SortStableFunc(out, compareExperience)
	}
	return out
}

func sharesSpecialty(have, want []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}

// compareFee orders by ascending fee, unknown fees last.
func compareFee(a, b Doctor) int {
	if a.FeeUnknown || b.FeeUnknown {
		return compareUnknown(a.FeeUnknown, b.FeeUnknown)
	}
	return a.Fee - b.Fee
}

// compareExperience orders by descending experience, unknown experience last.
func compareExperience(a, b Doctor) int {
	if a.ExperienceUnknown || b.ExperienceUnknown {
		return compareUnknown(a.ExperienceUnknown, b.ExperienceUnknown)
	}
	return b.Experience - a.Experience
}

func compareUnknown(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}
