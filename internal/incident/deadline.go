package incident

import "time"

// SLAWindow is the fixed window after detection within which a breach must be
// reported to the regulator (GDPR Art. 33).
const SLAWindow = 72 * time.Hour

// These functions are the single source of truth for deadline math. The
// scanner's threshold comparisons and any UI countdown must both go through
// them so rounding never diverges: HoursRemaining is unrounded, Countdown
// floor-rounds for display.

// Deadline returns the regulator-notification deadline for an incident.
func Deadline(detectedAt time.Time) time.Time {
	return detectedAt.Add(SLAWindow)
}

// HoursRemaining returns the fractional hours left until the deadline,
// clamped at zero.
func HoursRemaining(detectedAt, now time.Time) float64 {
	remaining := Deadline(detectedAt).Sub(now).Hours()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsPassed reports whether the deadline has elapsed.
func IsPassed(detectedAt, now time.Time) bool {
	return HoursRemaining(detectedAt, now) == 0
}

// HoursOverdue returns the fractional hours elapsed past the deadline,
// clamped at zero.
func HoursOverdue(detectedAt, now time.Time) float64 {
	overdue := now.Sub(Deadline(detectedAt)).Hours()
	if overdue < 0 {
		return 0
	}
	return overdue
}

// Countdown returns whole hours and minutes remaining, rounded down, for
// display. Derived from the same unrounded value the scanner compares against.
func Countdown(detectedAt, now time.Time) (hours, minutes int) {
	remaining := Deadline(detectedAt).Sub(now)
	if remaining < 0 {
		return 0, 0
	}
	hours = int(remaining / time.Hour)
	minutes = int((remaining % time.Hour) / time.Minute)
	return hours, minutes
}
