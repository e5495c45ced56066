package services

import (
	"time"

	"checkinflow/internal/domain"
)

// CheckoutVerdict is the outcome of EvaluateCheckout.
type CheckoutVerdict int

const (
	CheckoutNotApplicable CheckoutVerdict = iota
	CheckoutTooEarly
	CheckoutEligible
)

// CheckoutDecision carries the verdict and, for CheckoutTooEarly, the whole
// minutes left (seconds remaining divided by 60, rounded down).
type CheckoutDecision struct {
	Verdict          CheckoutVerdict
	RemainingMinutes int
}

// EvaluateCheckout decides whether a checkout is allowed at now for a record
// checked in at checkinTime. Every instant is compared in UTC.
func EvaluateCheckout(event *domain.Event, checkinTime, now time.Time) CheckoutDecision {
	if !event.RequireCheckout {
		return CheckoutDecision{Verdict: CheckoutNotApplicable}
	}
	now = now.UTC()

	var opensAt time.Time
	switch event.CheckoutMode {
	case domain.CheckoutModeAfterDuration:
		if event.CheckoutDuration == nil || *event.CheckoutDuration <= 0 {
			return CheckoutDecision{Verdict: CheckoutEligible}
		}
		opensAt = checkinTime.UTC().Add(time.Duration(*event.CheckoutDuration) * time.Minute)
	case domain.CheckoutModeAtEndTime:
		opensAt = event.EndTime.UTC()
	default:
		return CheckoutDecision{Verdict: CheckoutEligible}
	}

	if !now.Before(opensAt) {
		return CheckoutDecision{Verdict: CheckoutEligible}
	}
	remaining := opensAt.Sub(now)
	return CheckoutDecision{
		Verdict:          CheckoutTooEarly,
		RemainingMinutes: int(remaining / time.Minute),
	}
}
