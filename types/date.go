package types

import (
	"fmt"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05Z"
)

// DateValue represents a Date, always in UTC
type DateValue struct {
	Val time.Time
}

// NewDate creates a new DateValue, converting t to UTC
func NewDate(t time.Time) DateValue {
	return DateValue{Val: t.UTC()}
}

// ParseDate accepts "2006-01-02" or "2006-01-02T15:04:05Z"
func ParseDate(s string) (DateValue, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return NewDate(t), nil
	}
	t, err := time.Parse(dateTimeLayout, s)
	if err != nil {
		return DateValue{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or YYYY-MM-DDTHH:MM:SSZ)", s)
	}
	return NewDate(t), nil
}

// Type returns the Date type
func (d DateValue) Type() *Type {
	return Date
}

// Text returns the date without the literal delimiters
func (d DateValue) Text() string {
	if d.Val.Hour() == 0 && d.Val.Minute() == 0 && d.Val.Second() == 0 && d.Val.Nanosecond() == 0 {
		return d.Val.Format(dateLayout)
	}
	return d.Val.Format(dateTimeLayout)
}

// String returns the literal representation, e.g. #2024-01-31#
func (d DateValue) String() string {
	return "#" + d.Text() + "#"
}

// Equal compares instants
func (d DateValue) Equal(other Value) bool {
	o, ok := other.(DateValue)
	return ok && d.Val.Equal(o.Val)
}
