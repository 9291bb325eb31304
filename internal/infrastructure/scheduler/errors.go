package scheduler

import "errors"

var (
	// ErrInvalidSchedule is returned when a schedule expression cannot be parsed
	ErrInvalidSchedule = errors.New("invalid archive schedule")

	// ErrArchiveFailed wraps failures of a scheduled archive run
	ErrArchiveFailed = errors.New("scheduled payout archive failed")
)
