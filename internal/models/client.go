package models

import (
	"time"
)

// OAuthClient is the client application tokens are bound to.
type OAuthClient struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name used by OAuthClient to `oauth_clients`
func (OAuthClient) TableName() string {
	return "oauth_clients"
}
