package services

import (
	"time"
)

const (
	ReasonTooSoon     = "too_soon"
	ReasonClosedDay   = "closed_day"
	ReasonUnavailable = "unavailable"
	ReasonFull        = "full"
)

type DaySchedule struct {
	IsOpen          bool
	DailyOrderLimit int
}

type Closure struct {
	Start time.Time
	End   time.Time
}

// SlotRules is indexed by time.Weekday.
type SlotRules struct {
	Week          [7]DaySchedule
	Closures      []Closure
	MinDaysNotice int
}

type SlotStatus struct {
	Date      time.Time
	Available bool
	Reason    string
	// Remaining is -1 when the day has no order limit.
	Remaining int
}

// EvaluateSlot checks a pickup date. Checks run in order: notice period,
// weekday, closures, daily limit. booked counts non-refused orders on date.
func EvaluateSlot(rules SlotRules, date time.Time, today time.Time, booked int) SlotStatus {
	date = dateOnly(date)
	today = dateOnly(today)
	status := SlotStatus{Date: date, Remaining: -1}

	notice := rules.MinDaysNotice
	if notice < 0 {
		notice = 0
	}
	if date.Before(today.AddDate(0, 0, notice)) {
		status.Reason = ReasonTooSoon
		status.Remaining = 0
		return status
	}
	day := rules.Week[date.Weekday()]
	if !day.IsOpen {
		status.Reason = ReasonClosedDay
		status.Remaining = 0
		return status
	}
	for _, closure := range rules.Closures {
		if !date.Before(dateOnly(closure.Start)) && !date.After(dateOnly(closure.End)) {
			status.Reason = ReasonUnavailable
			status.Remaining = 0
			return status
		}
	}
	if day.DailyOrderLimit > 0 {
		remaining := day.DailyOrderLimit - booked
		if remaining <= 0 {
			status.Reason = ReasonFull
			status.Remaining = 0
			return status
		}
		status.Remaining = remaining
	}
	status.Available = true
	return status
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
