package domain

// NotificationMessage is what gets published to the notification queue
// after a successful mutation. cmd/notify consumes these and delivers
// over the channel the recipient prefers.
type NotificationMessage struct {
	Type           string        `json:"type"`
	Channel        NotifyChannel `json:"channel"`
	To             string        `json:"to"`
	TelegramChatID int64         `json:"telegramChatID,omitempty"`
	Data           any           `json:"data"`
}

type ReplacementAssignedData struct {
	FullName  string `json:"fullName"`
	ShiftDate string `json:"shiftDate"`
	ShiftType string `json:"shiftType"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
}

type ExchangeDecisionData struct {
	FullName  string `json:"fullName"`
	Decision  string `json:"decision"`
	ShiftDate string `json:"shiftDate"`
	ShiftType string `json:"shiftType"`
}

type ResetPasswordData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type CreateUserData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}
