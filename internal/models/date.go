package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Date is a calendar date column.
type Date = datatypes.Date

// DateLayout is the wire and storage layout of calendar dates.
const DateLayout = "2006-01-02"

// PeriodLayout is the layout of a billing period ("2024-07").
const PeriodLayout = "2006-01"

// NewDate returns the calendar date y-m-d in UTC.
func NewDate(y int, m time.Month, d int) datatypes.Date {
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// ParseDate parses an ISO calendar date such as "2024-07-05".
func ParseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return datatypes.Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return datatypes.Date(t), nil
}

// DatePtr is a convenience for optional date columns.
func DatePtr(d datatypes.Date) *datatypes.Date {
	return &d
}

// ParsePeriod parses a billing period such as "2024-07" into the first day of that month.
func ParsePeriod(s string) (time.Time, error) {
	t, err := time.Parse(PeriodLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return t, nil
}
