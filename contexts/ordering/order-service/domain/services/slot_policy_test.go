package services

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func weekRules(limit int) SlotRules {
	var rules SlotRules
	for day := time.Sunday; day <= time.Saturday; day++ {
		rules.Week[day] = DaySchedule{IsOpen: day != time.Sunday, DailyOrderLimit: limit}
	}
	rules.MinDaysNotice = 2
	return rules
}

func day(value string) time.Time {
	parsed, _ := time.Parse("2006-01-02", value)
	return parsed
}

func TestEvaluateSlot(t *testing.T) {
	// 2026-10-19 is a Monday.
	today := day("2026-10-19")
	rules := weekRules(2)
	rules.Closures = []Closure{{Start: day("2026-10-28"), End: day("2026-10-30")}}

	cases := []struct {
		name      string
		date      string
		booked    int
		available bool
		reason    string
		remaining int
	}{
		{name: "tomorrow is too soon", date: "2026-10-20", reason: ReasonTooSoon},
		{name: "notice boundary", date: "2026-10-21", available: true, remaining: 2},
		{name: "sunday closed", date: "2026-10-25", reason: ReasonClosedDay},
		{name: "closure first day", date: "2026-10-28", reason: ReasonUnavailable},
		{name: "closure last day", date: "2026-10-30", reason: ReasonUnavailable},
		{name: "after closure", date: "2026-10-31", available: true, booked: 1, remaining: 1},
		{name: "full", date: "2026-10-22", booked: 2, reason: ReasonFull},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateSlot(rules, day(tc.date), today, tc.booked)
			if got.Available != tc.available || got.Reason != tc.reason || got.Remaining != tc.remaining {
				t.Fatalf("expected available=%t reason=%q remaining=%d, got %+v", tc.available, tc.reason, tc.remaining, got)
			}
		})
	}
}

func TestEvaluateSlotUnlimited(t *testing.T) {
	got := EvaluateSlot(weekRules(0), day("2026-10-23"), day("2026-10-19"), 40)
	if !got.Available || got.Remaining != -1 {
		t.Fatalf("expected unlimited availability, got %+v", got)
	}
}

func TestEvaluateSlotAcrossWeek(t *testing.T) {
	today := day("2026-10-19")
	rules := weekRules(1)
	booked := map[string]int{"2026-10-22": 1}

	var got []SlotStatus
	for date := today; date.Before(day("2026-10-26")); date = date.AddDate(0, 0, 1) {
		got = append(got, EvaluateSlot(rules, date, today, booked[date.Format("2006-01-02")]))
	}
	want := []SlotStatus{
		{Date: day("2026-10-19"), Reason: ReasonTooSoon},
		{Date: day("2026-10-20"), Reason: ReasonTooSoon},
		{Date: day("2026-10-21"), Available: true, Remaining: 1},
		{Date: day("2026-10-22"), Reason: ReasonFull},
		{Date: day("2026-10-23"), Available: true, Remaining: 1},
		{Date: day("2026-10-24"), Available: true, Remaining: 1},
		{Date: day("2026-10-25"), Reason: ReasonClosedDay},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected week (-want +got):\n%s", diff)
	}
}
