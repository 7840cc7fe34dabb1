package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layouts used to keep temporal payloads stable across snapshot round-trips.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04"
	DatetimeLayout = time.RFC3339
)

// ListItem is one entry of a list-kind payload.
type ListItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// DecodeData copies the payload into v. After hydration Data holds generic
// JSON values, so the conversion goes through encoding/json.
func (r *Resource) DecodeData(v any) (bool, error) {
	if r.Data == nil {
		return false, nil
	}
	raw, err := json.Marshal(r.Data)
	if err != nil {
		return false, fmt.Errorf("failed to encode data of %s: %w", r.Name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode data of %s: %w", r.Name, err)
	}
	return true, nil
}

// ListItems returns the items of a list payload. Undecodable data yields nil.
func (r *Resource) ListItems() []ListItem {
	var items []ListItem
	if ok, err := r.DecodeData(&items); !ok || err != nil {
		return nil
	}
	return items
}

// SetListItems replaces the list payload.
func (r *Resource) SetListItems(items []ListItem) {
	if len(items) == 0 {
		r.Data = nil
		return
	}
	r.Data = items
}

// YesNo returns the boolean payload of a yes/no resource.
func (r *Resource) YesNo() (bool, bool) {
	var v bool
	ok, err := r.DecodeData(&v)
	return v, ok && err == nil
}

// SetYesNo stores a boolean payload.
func (r *Resource) SetYesNo(v bool) { r.Data = v }

// Number returns the numeric payload.
func (r *Resource) Number() (float64, bool) {
	var v float64
	ok, err := r.DecodeData(&v)
	return v, ok && err == nil
}

// SetNumber stores a numeric payload.
func (r *Resource) SetNumber(v float64) { r.Data = v }

// Date returns the date payload at midnight UTC.
func (r *Resource) Date() (time.Time, bool) { return r.temporal(DateLayout) }

// SetDate stores the calendar date of t.
func (r *Resource) SetDate(t time.Time) { r.Data = t.Format(DateLayout) }

// Time returns the time-of-day payload on the zero date.
func (r *Resource) Time() (time.Time, bool) { return r.temporal(TimeLayout) }

// SetTime stores the hour and minute of t.
func (r *Resource) SetTime(t time.Time) { r.Data = t.Format(TimeLayout) }

// Datetime returns the full timestamp payload.
func (r *Resource) Datetime() (time.Time, bool) { return r.temporal(DatetimeLayout) }

// SetDatetime stores a full timestamp.
func (r *Resource) SetDatetime(t time.Time) { r.Data = t.Format(DatetimeLayout) }

func (r *Resource) temporal(layout string) (time.Time, bool) {
	s, ok := r.Data.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CombineDateTime joins a date payload and a time payload into one instant.
func CombineDateTime(date, clock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC)
}
