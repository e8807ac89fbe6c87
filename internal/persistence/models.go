package persistence

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccessCode is the singleton daily code used to unlock the administrative views.
type AccessCode struct {
	Code        string
	GeneratedAt time.Time
	GeneratedBy string
}

// Configuration is the singleton facility configuration.
type Configuration struct {
	LunchMenu    string
	DinnerMenu   string
	PlateCost    decimal.Decimal
	LunchCutoff  string
	DinnerCutoff string
	UpdatedAt    time.Time
}

// Session represents an authentication session persisted for an operator.
type Session struct {
	ID          string
	Role        string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}
