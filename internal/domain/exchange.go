package domain

import "time"

type ExchangeStatus string

const (
	ExchangePending   ExchangeStatus = "pending"
	ExchangeApproved  ExchangeStatus = "approved"
	ExchangeRejected  ExchangeStatus = "rejected"
	ExchangeCancelled ExchangeStatus = "cancelled"
)

// ShiftExchange is a two-person swap request. After approval the ids of
// the two assignment rows the swap created are stored on the exchange,
// along with snapshots of any rows the swap displaced, so an admin
// cancellation can revert the swap exactly instead of re-deriving rows
// by attribute match.
type ShiftExchange struct {
	ID                 int64          `json:"id"`
	RequesterID        int64          `json:"requesterID"`
	TargetID           int64          `json:"targetID"`
	RequesterShiftDate time.Time      `json:"requesterShiftDate"`
	RequesterShiftType ShiftType      `json:"requesterShiftType"`
	RequesterTeamID    int64          `json:"requesterTeamID"`
	TargetShiftDate    time.Time      `json:"targetShiftDate"`
	TargetShiftType    ShiftType      `json:"targetShiftType"`
	TargetTeamID       int64          `json:"targetTeamID"`
	IsPartial          bool           `json:"isPartial"`
	RequesterStartTime *string        `json:"requesterStartTime"`
	RequesterEndTime   *string        `json:"requesterEndTime"`
	TargetStartTime    *string        `json:"targetStartTime"`
	TargetEndTime      *string        `json:"targetEndTime"`
	Status             ExchangeStatus `json:"status"`
	ApprovedBy         *int64         `json:"approvedBy"`
	ApprovedAt         *time.Time     `json:"approvedAt"`

	RequesterAssignmentID *int64       `json:"-"`
	TargetAssignmentID    *int64       `json:"-"`
	Displaced             []Assignment `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}
