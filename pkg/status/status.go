// Package status derives the display status of an irrigation event from its
// scheduled date and time and the current instant.
package status

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"irrigation/entities"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	// ExecutionWindow is how long before its start an event counts as running.
	ExecutionWindow = 5 * time.Minute

	// InvalidDate replaces weekday and date labels that cannot be computed.
	InvalidDate = "Data inválida"
)

var (
	ErrEmptyDate = errors.New("missing date")
	ErrEmptyTime = errors.New("missing time")
)

var weekdays = [7]string{"Domingo", "Segunda", "Terça", "Quarta", "Quinta", "Sexta", "Sábado"}

// ParseDate parses a YYYY-MM-DD calendar date at local midnight in loc.
func ParseDate(specificDate string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(specificDate)
	if s == "" {
		return time.Time{}, ErrEmptyDate
	}
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", specificDate, err)
	}
	return d, nil
}

// ParseClock parses HH:MM (seconds are accepted and ignored) into hour and minute.
func ParseClock(clock string) (int, int, error) {
	s := strings.TrimSpace(clock)
	if s == "" {
		return 0, 0, ErrEmptyTime
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		t, err = time.Parse("15:04:05", s)
		if err != nil {
			return 0, 0, fmt.Errorf("time %q: %w", clock, err)
		}
	}
	return t.Hour(), t.Minute(), nil
}

// StartAt combines a date and a time of day into one instant in loc.
func StartAt(specificDate, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := ParseDate(specificDate, loc)
	if err != nil {
		return time.Time{}, err
	}
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, loc), nil
}

// FromDiff maps startAt-now to a status.
func FromDiff(diff time.Duration) entities.Status {
	switch {
	case diff < 0:
		return entities.StatusConcluido
	case diff <= ExecutionWindow:
		return entities.StatusEmExecucao
	default:
		return entities.StatusAtivo
	}
}

// Derive returns the status of an event scheduled at specificDate/clock,
// interpreted in now's location.
func Derive(specificDate, clock string, now time.Time) (entities.Status, error) {
	start, err := StartAt(specificDate, clock, now.Location())
	if err != nil {
		return "", err
	}
	return FromDiff(start.Sub(now)), nil
}

// DayOfWeek returns the pt-BR weekday name of a YYYY-MM-DD date, or
// InvalidDate when the date does not parse.
func DayOfWeek(specificDate string) string {
	d, err := ParseDate(specificDate, time.UTC)
	if err != nil {
		return InvalidDate
	}
	return weekdays[d.Weekday()]
}

// DisplayDate formats a YYYY-MM-DD date as dd/mm/yyyy.
func DisplayDate(specificDate string) string {
	d, err := ParseDate(specificDate, time.UTC)
	if err != nil {
		return InvalidDate
	}
	return d.Format("02/01/2006")
}

// Describe projects an event onto its display form as seen at now.
func Describe(ev entities.IrrigationEvent, now time.Time) (entities.IrrigationItem, error) {
	start, err := StartAt(ev.SpecificDate, ev.Time, now.Location())
	if err != nil {
		return entities.IrrigationItem{}, err
	}
	return entities.IrrigationItem{
		IrrigationEvent: ev,
		StartAt:         start,
		DisplayDate:     DisplayDate(ev.SpecificDate),
		DayOfWeek:       DayOfWeek(ev.SpecificDate),
		Status:          FromDiff(start.Sub(now)),
	}, nil
}
