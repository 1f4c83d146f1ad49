package models

import (
	"time"
)

// AccessToken is a vendor access token. At most one row is active at a time.
type AccessToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"column:access_token;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expiresAt"`
	IsActive  bool      `gorm:"index;default:true" json:"isActive"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (AccessToken) TableName() string {
	return "saj_tokens"
}

// Valid reports whether the token is active and unexpired at now.
func (t *AccessToken) Valid(now time.Time) bool {
	return t != nil && t.IsActive && t.ExpiresAt.After(now)
}

// TokenStatus describes the latest active token without exposing it.
type TokenStatus struct {
	HasToken        bool       `json:"hasToken"`
	IsActive        bool       `json:"isActive"`
	IsExpired       bool       `json:"isExpired"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
	TimeUntilExpiry int64      `json:"timeUntilExpiry"`
	TokenPreview    string     `json:"tokenPreview,omitempty"`
	Message         string     `json:"message,omitempty"`
}
