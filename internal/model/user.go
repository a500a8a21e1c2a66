package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProviderGoogle is the provider name stored for users linked through Google sign-in.
const ProviderGoogle = "google"

// User represents an identity that can authenticate against the service.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Provider     *string   `json:"provider,omitempty" gorm:"size:50"`
	ProviderID   *string   `json:"provider_id,omitempty" gorm:"size:255"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HasProvider reports whether the user is already linked to an external provider.
func (u *User) HasProvider() bool {
	return u.Provider != nil && *u.Provider != "" && u.ProviderID != nil && *u.ProviderID != ""
}

// LinkProvider attaches external provider linkage to the user.
func (u *User) LinkProvider(provider, providerID string) {
	u.Provider = &provider
	u.ProviderID = &providerID
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
