package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "Bearer"

// TokenOrigin records which operation minted a token.
type TokenOrigin string

const (
	TokenOriginLogin    TokenOrigin = "login"
	TokenOriginBecome   TokenOrigin = "become"
	TokenOriginExternal TokenOrigin = "external"
)

// AccessToken is an issued bearer credential. Only the SHA-256 hash of the
// opaque token string is persisted.
type AccessToken struct {
	ID        uuid.UUID   `json:"id" gorm:"type:char(36);primaryKey"`
	TokenHash string      `json:"-" gorm:"size:64;uniqueIndex;not null"`
	UserID    uuid.UUID   `json:"user_id" gorm:"type:char(36);not null;index"`
	TokenType string      `json:"token_type" gorm:"size:20;not null;default:'Bearer'"`
	Origin    TokenOrigin `json:"origin" gorm:"type:varchar(20);not null"`
	IssuedAt  time.Time   `json:"issued_at" gorm:"not null"`
	ExpiresAt time.Time   `json:"expires_at" gorm:"not null;index"`
	Revoked   bool        `json:"revoked" gorm:"not null;default:false"`
	RevokedAt *time.Time  `json:"revoked_at,omitempty"`
}

// BeforeCreate sets UUID before creating the record.
func (t *AccessToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the token is past its expiry at the given instant.
func (t *AccessToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
