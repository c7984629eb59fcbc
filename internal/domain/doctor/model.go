package doctor

import (
	"errors"
	"slices"
)

// Consultation types.
const (
	ConsultationVideo  = "video"
	ConsultationClinic = "clinic"
)

var ErrDoctorNotFound = errors.New("doctor not found")

// Doctor is the normalized directory record. Values are treated as immutable
// once produced by Normalize; use Clone before handing one to code that may
// keep it.
type Doctor struct {
	ID               int      `json:"id"`
	Name             string   `json:"name"`
	Specialties      []string `json:"specialties"`
	Experience       int      `json:"experience"`
	Fee              int      `json:"fee"`
	ConsultationType string   `json:"consultationType"`

	// Set when the source value could not be parsed and the numeric field
	// holds the fallback 0. Sorting places such records last.
	ExperienceUnknown bool `json:"experienceUnknown,omitempty"`
	FeeUnknown        bool `json:"feeUnknown,omitempty"`
}

// Clone returns a deep copy of d.
func (d Doctor) Clone() Doctor {
	c := d
	if d.Specialties != nil {
		c.Specialties = slices.Clone(d.Specialties)
	}
	return c
}

// RawDoctor is one element of the remote JSON array, kept loosely typed until
// it passes through Normalize.
type RawDoctor map[string]any

// Snapshot is a point-in-time view of the Directory.
type Snapshot struct {
	Doctors     []Doctor
	Loading     bool
	FetchFailed bool
}
