// Package postmonth models accounting periods. A postmonth is kept
// internally as the integer YYYYMM and edited as the string MM-YYYY.
package postmonth

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	// ErrInvalidPostmonth is returned for a postmonth that can not be parsed.
	ErrInvalidPostmonth = errors.New("invalid postmonth")
	// ErrNoPostmonth is returned when a postmonth record does not exist.
	ErrNoPostmonth = errors.New("postmonth does not exist")
	// ErrPostmonthExists is returned when creating a postmonth twice.
	ErrPostmonthExists = errors.New("postmonth already exists")
	// ErrPostmonthClosed is returned when posting into a closed postmonth.
	ErrPostmonthClosed = errors.New("postmonth not active")
	// ErrPostmonthNotOpen is returned when posting into a postmonth that has
	// no record and is not the current month.
	ErrPostmonthNotOpen = errors.New("postmonth must exist or be current month")
	// ErrNoCloseDate is returned when no year has been closed yet.
	ErrNoCloseDate = errors.New("no close date recorded")
)

// For returns the postmonth a date falls in.
func For(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}

// Internal converts an edited postmonth, strictly MM-YYYY, to YYYYMM.
func Internal(s string) (int, error) {
	if len(s) != 7 || s[2] != '-' || !digits(s[0:2]) || !digits(s[3:7]) {
		return 0, fmt.Errorf("%w: %q could not be converted", ErrInvalidPostmonth, s)
	}
	month, _ := strconv.Atoi(s[0:2])
	year, _ := strconv.Atoi(s[3:7])
	return year*100 + month, nil
}

// External formats a YYYYMM postmonth as MM-YYYY.
func External(pm int) string {
	return fmt.Sprintf("%02d-%d", pm%100, pm/100)
}

// Validate checks that pm has at most six digits and a month from 1 to 12.
func Validate(pm int) error {
	if pm <= 0 || pm > 999999 {
		return fmt.Errorf("%w: %d must have at most 6 digits", ErrInvalidPostmonth, pm)
	}
	if m := pm % 100; m < 1 || m > 12 {
		return fmt.Errorf("%w: month of %d must be from 1 to 12", ErrInvalidPostmonth, pm)
	}
	return nil
}

// Parse accepts either form: YYYYMM or MM-YYYY.
func Parse(s string) (int, error) {
	if len(s) == 7 && s[2] == '-' {
		return Internal(s)
	}
	if len(s) > 6 || !digits(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPostmonth, s)
	}
	pm, _ := strconv.Atoi(s)
	if err := Validate(pm); err != nil {
		return 0, err
	}
	return pm, nil
}

// Start returns the first day of a postmonth.
func Start(pm int) time.Time {
	return time.Date(pm/100, time.Month(pm%100), 1, 0, 0, 0, 0, time.UTC)
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
