package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

// Schedule is a monthly run time in UTC
type Schedule struct {
	Day    int
	Hour   int
	Minute int
}

// DefaultSchedule runs on the first of the month at 02:00 UTC
func DefaultSchedule() Schedule {
	return Schedule{Day: 1, Hour: 2, Minute: 0}
}

// ParseSchedule reads the first three fields of a cron expression
// ("minute hour day-of-month * *"). Omitted or "*" fields keep the defaults.
// Days past 28 are rejected so every month has a run.
func ParseSchedule(expr string) (Schedule, error) {
	s := DefaultSchedule()
	parts := strings.Fields(expr)
	if len(parts) == 0 {
		return s, nil
	}

	fields := []*int{&s.Minute, &s.Hour, &s.Day}
	for i, dst := range fields {
		if i >= len(parts) || parts[i] == "*" {
			continue
		}
		v, err := strconv.Atoi(parts[i])
		if err != nil {
			return DefaultSchedule(), fmt.Errorf("%w: %q is not a number", ErrInvalidSchedule, parts[i])
		}
		*dst = v
	}

	switch {
	case s.Minute < 0 || s.Minute > 59:
		return DefaultSchedule(), fmt.Errorf("%w: minute must be 0-59, got %d", ErrInvalidSchedule, s.Minute)
	case s.Hour < 0 || s.Hour > 23:
		return DefaultSchedule(), fmt.Errorf("%w: hour must be 0-23, got %d", ErrInvalidSchedule, s.Hour)
	case s.Day < 1 || s.Day > 28:
		return DefaultSchedule(), fmt.Errorf("%w: day must be 1-28, got %d", ErrInvalidSchedule, s.Day)
	}
	return s, nil
}
