package dto

import (
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/domain/entitlement"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/user"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID                int64                   `json:"id"`
	Username          string                  `json:"username"`
	Email             string                  `json:"email"`
	IsPremium         bool                    `json:"isPremium"`
	PremiumUntil      *time.Time              `json:"premiumUntil"`
	TrialStartedAt    *time.Time              `json:"trialStartedAt"`
	DiagnosisCount    int                     `json:"diagnosisCount"`
	LastDiagnosisDate *time.Time              `json:"lastDiagnosisDate"`
	CreatedAt         time.Time               `json:"createdAt"`
	TrialStatus       entitlement.TrialStatus `json:"trialStatus"`
}

// NewUserDTO builds the safe view of u with its trial status at now
func NewUserDTO(u *user.User, now time.Time) *UserDTO {
	return &UserDTO{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		IsPremium:         u.IsPremium,
		PremiumUntil:      u.PremiumUntil,
		TrialStartedAt:    u.TrialStartedAt,
		DiagnosisCount:    u.DiagnosisCount,
		LastDiagnosisDate: u.LastDiagnosisDate,
		CreatedAt:         u.CreatedAt,
		TrialStatus:       entitlement.TrialStatusOf(u.Account(), now),
	}
}

// TrialStartResponse is returned when a trial begins
type TrialStartResponse struct {
	User     *UserDTO `json:"user"`
	DaysLeft int      `json:"daysLeft"`
}
