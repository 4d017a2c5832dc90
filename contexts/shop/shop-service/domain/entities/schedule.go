package entities

import (
	"strings"
	"time"

	domainerrors "cakeshop/contexts/shop/shop-service/domain/errors"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

type Availability struct {
	ShopID          string
	Weekday         time.Weekday
	IsOpen          bool
	DailyOrderLimit int
}

// DefaultAvailabilities returns the schedule seeded with every new shop:
// Monday to Saturday open without a daily limit, Sunday closed.
func DefaultAvailabilities(shopID string) []Availability {
	items := make([]Availability, 0, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		items = append(items, Availability{
			ShopID:  shopID,
			Weekday: day,
			IsOpen:  day != time.Sunday,
		})
	}
	return items
}

func ValidateAvailability(weekday int, dailyLimit int) error {
	if weekday < int(time.Sunday) || weekday > int(time.Saturday) {
		return domainerrors.ErrInvalidWeekday
	}
	if dailyLimit < 0 {
		return domainerrors.ErrInvalidRequest
	}
	return nil
}

type Unavailability struct {
	UnavailabilityID string
	ShopID           string
	StartDate        time.Time
	EndDate          time.Time
	Reason           string
	CreatedAt        time.Time
}

func NewUnavailability(id string, shopID string, start time.Time, end time.Time, reason string, now time.Time) (Unavailability, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(shopID) == "" {
		return Unavailability{}, domainerrors.ErrInvalidRequest
	}
	start = DateOnly(start)
	end = DateOnly(end)
	if start.After(end) {
		return Unavailability{}, domainerrors.ErrInvalidDateRange
	}
	return Unavailability{
		UnavailabilityID: id,
		ShopID:           shopID,
		StartDate:        start,
		EndDate:          end,
		Reason:           strings.TrimSpace(reason),
		CreatedAt:        now.UTC(),
	}, nil
}

// Covers reports whether the calendar date falls inside the closure,
// bounds included.
func (u Unavailability) Covers(date time.Time) bool {
	day := DateOnly(date)
	return !day.Before(u.StartDate) && !day.After(u.EndDate)
}

func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, domainerrors.ErrInvalidRequest
	}
	return parsed.UTC(), nil
}
