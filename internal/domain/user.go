package domain

import (
	"time"
)

type Role string

const (
	RoleFirefighter Role = "firefighter"
	RoleCommander   Role = "commander"
	RoleAdmin       Role = "admin"
)

type NotifyChannel string

const (
	NotifyByEmail    NotifyChannel = "email"
	NotifyByTelegram NotifyChannel = "telegram"
)

type User struct {
	ID             int64         `json:"id"`
	Username       string        `json:"username"`
	PasswordHash   string        `json:"-"`
	FullName       string        `json:"fullName"`
	Email          string        `json:"email"`
	Role           Role          `json:"role"`
	TeamID         *int64        `json:"teamID"`
	TelegramChatID *int64        `json:"telegramChatID"`
	NotifyChannel  NotifyChannel `json:"notifyChannel"`
	IsActive       bool          `json:"isActive"`
	CreatedAt      time.Time     `json:"createdAt"`
	Version        int32         `json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleCommander
}
