package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConfiguration means a policy or env setting is unusable.
	ErrConfiguration = errors.New("configuration error")
	// ErrGateDenied means submissions are closed right now.
	ErrGateDenied = errors.New("submission window closed")
	// ErrDuplicateSubmission means a passing record already exists today.
	ErrDuplicateSubmission = errors.New("already passed today")
	// ErrOracleFailure means the scoring oracle failed and fallback is off.
	ErrOracleFailure = errors.New("scoring oracle failure")
	// ErrNoFailedRecord means a re-inspection has nothing to redo.
	ErrNoFailedRecord = errors.New("no failed inspection to redo today")
)

// GateDeniedError carries the denial reason and, when one exists, the next
// scheduled opportunity.
type GateDeniedError struct {
	Reason    string
	NextDate  *time.Time
	DaysUntil int
}

func (e *GateDeniedError) Error() string {
	if e.NextDate != nil {
		return fmt.Sprintf("%s (next: %s, in %d days)", e.Reason, e.NextDate.Format("2006-01-02"), e.DaysUntil)
	}
	return e.Reason
}

func (e *GateDeniedError) Unwrap() error {
	return ErrGateDenied
}
