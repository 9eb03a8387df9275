package domain

import "time"

type ShiftType string

const (
	ShiftTypeDay     ShiftType = "day"
	ShiftTypeNight   ShiftType = "night"
	ShiftTypeFull24h ShiftType = "24h"
)

// CycleConfig is the epoch for all cycle-day arithmetic. Exactly one
// config is active at a time.
type CycleConfig struct {
	ID              int64     `json:"id"`
	StartDate       time.Time `json:"startDate"`
	CycleLengthDays int32     `json:"cycleLengthDays"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
	Version         int32     `json:"-"`
}

// Shift is a recurring duty slot, unique per (team, cycle day).
// StartTime/EndTime are clock strings in "15:04:05" form; an end before
// the start means the shift runs into the next calendar day.
type Shift struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"teamID"`
	CycleDay  int32     `json:"cycleDay"`
	Type      ShiftType `json:"type"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}
