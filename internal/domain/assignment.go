package domain

import "time"

// Assignment is an ad-hoc deviation from the base cycle roster: a
// replacement, a direct admin substitution, or an extra-firefighter
// slot. For a given (shift, date, replaced user) at most one row exists
// per replacement order, and the intervals across orders never overlap.
type Assignment struct {
	ID               int64     `json:"id"`
	ShiftID          int64     `json:"shiftID"`
	UserID           int64     `json:"userID"`
	ShiftDate        time.Time `json:"shiftDate"`
	IsExtra          bool      `json:"isExtra"`
	IsDirect         bool      `json:"isDirect"`
	ReplacedUserID   *int64    `json:"replacedUserID"`
	ReplacementOrder *int16    `json:"replacementOrder"`
	// IsPartial false means the assignment covers the shift's full
	// published window and StartTime/EndTime are nil.
	IsPartial        bool      `json:"isPartial"`
	StartTime        *string   `json:"startTime"`
	EndTime          *string   `json:"endTime"`
	ActingLieutenant bool      `json:"actingLieutenant"`
	ActingCaptain    bool      `json:"actingCaptain"`
	CreatedAt        time.Time `json:"createdAt"`
	Version          int32     `json:"-"`
}
