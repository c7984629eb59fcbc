// Package appointment keeps the mock appointment ledger: an ordered list of
// bookings persisted as one JSON array in a single storage slot.
package appointment

import "github.com/docfinder/docfinder/internal/domain/doctor"

// DefaultKey is the slot name the ledger persists under.
const DefaultKey = "doctorAppointments"

// Entry is one booking. Doctor is a snapshot taken at booking time; later
// changes to the directory do not affect it.
type Entry struct {
	Doctor doctor.Doctor `json:"doctor"`
	Date   string        `json:"date"`
	Time   string        `json:"time"`
}

// NewEntry snapshots d and pairs it with the requested date and time.
func NewEntry(d doctor.Doctor, date, time string) Entry {
	return Entry{Doctor: d.Clone(), Date: date, Time: time}
}

func (e Entry) Clone() Entry {
	e.Doctor = e.Doctor.Clone()
	return e
}
