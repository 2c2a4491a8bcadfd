package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRefNo: a seat reference must be "<floor> <number>".
var ErrInvalidRefNo = errors.New("invalid seat reference")

// Seat is one row of the external seat ledger snapshot. Day is the ledger's
// own date string (2006-01-02).
type Seat struct {
	Day       string `json:"day"`
	Floor     string `json:"floor"`
	Number    string `json:"number"`
	Occupant  string `json:"occupant"`
	SeatCount int    `json:"seat_count"`
}

// RefNo encodes floor and seat number, e.g. "1M 102".
func (s *Seat) RefNo() string {
	return s.Floor + " " + s.Number
}

func (s *Seat) Occupied() bool {
	return strings.TrimSpace(s.Occupant) != ""
}

// ParseRefNo splits a seat reference into floor and seat number.
func ParseRefNo(refNo string) (floor, number string, err error) {
	parts := strings.Fields(strings.TrimSpace(refNo))
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRefNo, refNo)
	}
	return parts[0], parts[1], nil
}
