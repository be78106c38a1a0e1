package model

import (
	"time"

	"github.com/google/uuid"
)

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Employee is a registered worker as owned by the employee directory.
// Immutable for the duration of a single attendance decision.
type Employee struct {
	ID                   uuid.UUID  `json:"id"`
	OrgID                uuid.UUID  `json:"orgId"`
	Name                 string     `json:"name"`
	WhatsAppNumber       string     `json:"whatsappNumber"`
	AllowAnywhereCheckIn bool       `json:"allowAnywhereCheckin"`
	AssignedSiteID       *uuid.UUID `json:"assignedSiteId,omitempty"`
}

// Site is a registered work location. Latitude/Longitude are pointers
// because a site may be created before its coordinates are filled in;
// such a site is not a valid geofence candidate.
type Site struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"orgId"`
	Name      string    `json:"name"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
}

// Coordinate returns the site's position and whether both coordinates
// are populated.
func (s Site) Coordinate() (Coordinate, bool) {
	if s.Latitude == nil || s.Longitude == nil {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: *s.Latitude, Longitude: *s.Longitude}, true
}

// LocationPing is one inbound location message. Ephemeral; never stored
// on its own, only through the AttendanceRecord it may produce.
type LocationPing struct {
	SenderID   string
	Coordinate Coordinate
	ReceivedAt time.Time
}

// Outcome is the terminal result of processing one location ping.
type Outcome string

const (
	OutcomeAccepted          Outcome = "ACCEPTED"
	OutcomeRejected          Outcome = "REJECTED"
	OutcomeUnregistered      Outcome = "UNREGISTERED"
	OutcomeNoSitesConfigured Outcome = "NO_SITES_CONFIGURED"
)

// Decision is the transient result of the attendance engine. Its only
// durable consequence is the AttendanceRecord (or the absence of one).
type Decision struct {
	Outcome        Outcome
	Site           *Site   // matched site on Accepted, nearest site on Rejected, nil otherwise
	DistanceMeters float64 // 0 for field-duty check-ins
	AlreadyMarked  bool    // true when a same-day record already existed
}

// AttendanceRecord is the canonical punch-in row. At most one exists
// per (EmployeeID, Date); the storage layer enforces it.
type AttendanceRecord struct {
	EmployeeID     uuid.UUID
	OrgID          uuid.UUID
	Date           string // calendar date in the org timezone, YYYY-MM-DD
	SiteID         *uuid.UUID
	DistanceMeters float64
	Latitude       float64
	Longitude      float64
	InTime         time.Time
}
