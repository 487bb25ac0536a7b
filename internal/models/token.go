package models

import (
	"time"
)

// AccessToken is a bearer credential issued to a client, optionally on behalf
// of an identity. Tokens are never deleted; revocation is a soft state.
type AccessToken struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Code       string       `gorm:"size:64;uniqueIndex;not null" json:"token"`
	ClientID   uint         `gorm:"not null;index" json:"client_id"`
	Client     *OAuthClient `gorm:"foreignKey:ClientID" json:"-"`
	Identity   *string      `gorm:"size:255;index" json:"identity,omitempty"`
	Scope      string       `gorm:"size:1024;not null;default:''" json:"scope"`
	CreatedAt  time.Time    `gorm:"index" json:"created_at"`
	LastAccess *int64       `json:"last_access,omitempty"` // unix seconds, hour-truncated
	PrevAccess *int64       `json:"prev_access,omitempty"` // unix seconds, hour-truncated
	Revoked    *time.Time   `gorm:"index" json:"revoked,omitempty"`

	// GrantKey is set only while an identity-bound token is active.
	GrantKey *string `gorm:"size:64;uniqueIndex" json:"-"`
}

// TableName overrides the table name used by AccessToken to `access_tokens`
func (AccessToken) TableName() string {
	return "access_tokens"
}

// Token returns the bearer string presented by clients.
func (t *AccessToken) Token() string {
	return t.Code
}

// IsValid returns true if the token has not been revoked
func (t *AccessToken) IsValid() bool {
	return t.Revoked == nil
}

// IsRevoked returns true if the token has been revoked
func (t *AccessToken) IsRevoked() bool {
	return t.Revoked != nil
}

// HasIdentity reports whether the token was issued on behalf of a resource owner.
func (t *AccessToken) HasIdentity() bool {
	return t.Identity != nil
}

// GrantBucket counts tokens granted on a single day.
// Day is the number of days since the Unix epoch.
type GrantBucket struct {
	Day     int64 `json:"ts"`
	Granted int64 `json:"granted"`
}
