// Package filter holds the doctor-list filter state and its bidirectional
// mapping to a URL query string.
package filter

import "slices"

// Consultation types accepted by the "type" parameter.
const (
	TypeVideo  = "video"
	TypeClinic = "clinic"
)

// Sort keys accepted by the "sort" parameter.
const (
	SortFee        = "fee"
	SortExperience = "experience"
)

// Key names a removable field of State.
type Key string

const (
	KeySearch           Key = "search"
	KeyConsultationType Key = "consultationType"
	KeySpecialties      Key = "specialties"
	KeySortBy           Key = "sortBy"
)

// State is the active search, filter and sort criteria. The zero value is the
// default state with every filter off.
type State struct {
	Search           string   `json:"search"`
	ConsultationType string   `json:"consultationType"`
	Specialties      []string `json:"specialties"`
	SortBy           string   `json:"sortBy"`
}

// IsEmpty reports whether every field holds its default.
func (s State) IsEmpty() bool {
	return s.Search == "" && s.ConsultationType == "" && len(s.Specialties) == 0 && s.SortBy == ""
}

// Equal compares two states field by field. Specialties are compared in order,
// with nil and empty treated alike.
func (s State) Equal(o State) bool {
	return s.Search == o.Search &&
		s.ConsultationType == o.ConsultationType &&
		s.SortBy == o.SortBy &&
		slices.Equal(s.Specialties, o.Specialties)
}

// Clone returns a copy that shares no backing array with s.
func (s State) Clone() State {
	c := s
	if len(s.Specialties) > 0 {
		c.Specialties = slices.Clone(s.Specialties)
	} else {
		c.Specialties = nil
	}
	return c
}

// HasSpecialty reports whether name is one of the selected specialties.
func (s State) HasSpecialty(name string) bool {
	return slices.Contains(s.Specialties, name)
}

// Without returns s with one filter removed. For KeySpecialties with a
// non-empty value only that specialty is dropped; every other key (and
// KeySpecialties with an empty value) resets the field to its default.
// Unknown keys leave the state unchanged.
func (s State) Without(key Key, value string) State {
	next := s.Clone()
	switch key {
	case KeySearch:
		next.Search = ""
	case KeyConsultationType:
		next.ConsultationType = ""
	case KeySortBy:
		next.SortBy = ""
	case KeySpecialties:
		if value == "" {
			next.Specialties = nil
			break
		}
		kept := next.Specialties[:0]
		for _, sp := range next.Specialties {
			if sp != value {
				kept = append(kept, sp)
			}
		}
		if len(kept) == 0 {
			kept = nil
		}
		next.Specialties = kept
	}
	return next
}

// Chip is one removable applied-filter tag.
type Chip struct {
	Key   Key    `json:"key"`
	Value string `json:"value,omitempty"`
	Label string `json:"label"`
}

// AppliedFilters lists a chip for every active filter, in display order.
func AppliedFilters(s State) []Chip {
	chips := []Chip{}
	if s.Search != "" {
		chips = append(chips, Chip{Key: KeySearch, Label: "Search: " + s.Search})
	}
	if s.ConsultationType != "" {
		label := "In Clinic"
		if s.ConsultationType == TypeVideo {
			label = "Video Consult"
		}
		chips = append(chips, Chip{Key: KeyConsultationType, Label: label})
	}
	for _, sp := range s.Specialties {
		chips = append(chips, Chip{Key: KeySpecialties, Value: sp, Label: sp})
	}
	if s.SortBy != "" {
		label := "Experience: High to Low"
		if s.SortBy == SortFee {
			label = "Fees: Low to High"
		}
		chips = append(chips, Chip{Key: KeySortBy, Label: label})
	}
	return chips
}
