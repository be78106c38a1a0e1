// Package ports defines the outbound interfaces the attendance engine
// depends on. Concrete adapters live in the repository and messaging
// subpackages; tests substitute in-memory fakes.
package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"hajiri.service/internal/core/model"
)

// ErrAlreadyRecorded is returned by the ledger when a punch-in for the
// same (employee, date) already exists. The engine treats it as a
// successful, idempotent outcome rather than a failure.
var ErrAlreadyRecorded = errors.New("attendance already recorded for this date")

// EmployeeDirectory resolves inbound sender identifiers to registered
// employees.
type EmployeeDirectory interface {
	// FindByWhatsAppNumber returns (nil, nil) when no employee matches;
	// an unregistered sender is an expected outcome, not an error.
	FindByWhatsAppNumber(ctx context.Context, number string) (*model.Employee, error)
}

// SiteDirectory lists the work sites configured for an organization.
type SiteDirectory interface {
	ListSites(ctx context.Context, orgID uuid.UUID) ([]model.Site, error)
}

// AttendanceLedger persists punch-in records. Implementations must
// enforce uniqueness on (employee, date) and report a violation as
// ErrAlreadyRecorded.
type AttendanceLedger interface {
	RecordPunchIn(ctx context.Context, rec model.AttendanceRecord) error
}

// Notifier delivers a human-readable reply to a sender. Best-effort:
// the engine logs and swallows its errors, so implementations that need
// reliability should queue internally.
type Notifier interface {
	SendText(ctx context.Context, to string, text string) error
}

// AlertPublisher raises operational alerts, e.g. when an organization
// has no usable sites configured.
type AlertPublisher interface {
	PublishSiteConfigAlert(ctx context.Context, orgID uuid.UUID, senderID string) error
}
