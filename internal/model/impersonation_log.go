package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImpersonationOutcome represents the result of a become attempt.
type ImpersonationOutcome string

const (
	ImpersonationGranted      ImpersonationOutcome = "granted"
	ImpersonationForbidden    ImpersonationOutcome = "forbidden"
	ImpersonationUserNotFound ImpersonationOutcome = "user_not_found"
	ImpersonationError        ImpersonationOutcome = "error"
)

// ImpersonationLog is the audit record of a single become attempt.
// Every attempt is recorded regardless of outcome.
type ImpersonationLog struct {
	ID          uuid.UUID            `json:"id" gorm:"type:char(36);primaryKey"`
	CallerEmail string               `json:"caller_email" gorm:"size:255;not null;index"`
	TargetEmail string               `json:"target_email" gorm:"size:255;not null;index"`
	Outcome     ImpersonationOutcome `json:"outcome" gorm:"type:varchar(20);not null;index"`
	TokenID     *uuid.UUID           `json:"token_id,omitempty" gorm:"type:char(36)"`
	CreatedAt   time.Time            `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (l *ImpersonationLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
