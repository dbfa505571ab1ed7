package model

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Reminder is a recurring eye-care nudge, e.g. the 20-20-20 break.
// Weekdays is a bit set indexed by time.Weekday (bit 0 is Sunday).
// TimeOfDay and Weekdays are read in Timezone, an IANA zone name; an
// empty zone means UTC.
// swagger:model Reminder
type Reminder struct {
	BaseModel
	UserID      uint       `gorm:"index;not null" json:"userId"`
	Label       string     `gorm:"size:100;not null" json:"label"`
	TimeOfDay   string     `gorm:"size:5;not null" json:"timeOfDay"`
	Weekdays    uint8      `gorm:"not null" json:"weekdays"`
	Timezone    string     `gorm:"size:64;not null;default:UTC" json:"timezone"`
	Enabled     bool       `gorm:"not null;index" json:"enabled"`
	LastFiredAt *time.Time `json:"lastFiredAt,omitempty"`
}

func (Reminder) TableName() string {
	return "reminders"
}

// ParseTimeOfDay parses an HH:MM string into hour and minute.
func ParseTimeOfDay(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("time of day %q: want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// LoadTimezone resolves an IANA zone name. The empty name is UTC.
func LoadTimezone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: unknown zone", name)
	}
	return loc, nil
}

// Location is the zone the reminder's schedule is read in. A zone that no
// longer resolves falls back to UTC.
func (r *Reminder) Location() *time.Location {
	loc, err := LoadTimezone(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func WeekdayMask(days []time.Weekday) uint8 {
	var mask uint8
	for _, d := range days {
		mask |= 1 << uint(d)
	}
	return mask
}

func (r *Reminder) Days() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if r.Weekdays&(1<<uint(d)) != 0 {
			days = append(days, d)
		}
	}
	return days
}

// DueAt reports whether the reminder should fire at now. It must be enabled
// and not yet fired today, and now must fall on one of its weekdays at or
// after its time of day. Day and time are taken in the reminder's zone.
func (r *Reminder) DueAt(now time.Time) bool {
	now = now.In(r.Location())
	if !r.Enabled || r.Weekdays&(1<<uint(now.Weekday())) == 0 {
		return false
	}
	h, m, err := ParseTimeOfDay(r.TimeOfDay)
	if err != nil {
		return false
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	if now.Before(at) {
		return false
	}
	return r.LastFiredAt == nil || r.LastFiredAt.Before(at)
}
