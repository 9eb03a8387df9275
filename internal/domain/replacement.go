package domain

import "time"

type ReplacementStatus string

const (
	ReplacementOpen      ReplacementStatus = "open"
	ReplacementAssigned  ReplacementStatus = "assigned"
	ReplacementCancelled ReplacementStatus = "cancelled"
)

// Replacement is an open request for someone to cover a shift slot.
// A nil OriginalUserID denotes an extra-firefighter slot with no one
// being replaced.
type Replacement struct {
	ID                  int64             `json:"id"`
	ShiftDate           time.Time         `json:"shiftDate"`
	ShiftType           ShiftType         `json:"shiftType"`
	TeamID              int64             `json:"teamID"`
	OriginalUserID      *int64            `json:"originalUserID"`
	Status              ReplacementStatus `json:"status"`
	IsPartial           bool              `json:"isPartial"`
	StartTime           *string           `json:"startTime"`
	EndTime             *string           `json:"endTime"`
	ApplicationDeadline time.Time         `json:"applicationDeadline"`
	CreatedAt           time.Time         `json:"createdAt"`
	Version             int32             `json:"-"`
}

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

type ReplacementApplication struct {
	ID            int64             `json:"id"`
	ReplacementID int64             `json:"replacementID"`
	ApplicantID   int64             `json:"applicantID"`
	Status        ApplicationStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
	Version       int32             `json:"-"`
}
