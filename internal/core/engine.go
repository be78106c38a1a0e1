package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hajiri.service/internal/core/geo"
	"hajiri.service/internal/core/model"
	"hajiri.service/internal/ports"
)

// Engine produces one attendance decision per inbound location ping.
// It holds no mutable state; every call is an independent unit of work
// and the only shared resource is the ledger behind the port.
type Engine struct {
	employees ports.EmployeeDirectory
	sites     ports.SiteDirectory
	ledger    ports.AttendanceLedger
	notifier  ports.Notifier
	alerts    ports.AlertPublisher

	radiusMeters float64
	loc          *time.Location
}

// NewEngine wires the attendance engine with its collaborators.
// radiusMeters is the geofence acceptance radius; loc is the timezone
// used to derive the calendar date of a punch-in.
func NewEngine(
	employees ports.EmployeeDirectory,
	sites ports.SiteDirectory,
	ledger ports.AttendanceLedger,
	notifier ports.Notifier,
	alerts ports.AlertPublisher,
	radiusMeters float64,
	loc *time.Location,
) *Engine {
	return &Engine{
		employees:    employees,
		sites:        sites,
		ledger:       ledger,
		notifier:     notifier,
		alerts:       alerts,
		radiusMeters: radiusMeters,
		loc:          loc,
	}
}

// HandleLocation runs the full decision flow for one location ping:
// identity resolution, policy check, geofence matching, the idempotent
// ledger write, and the outcome reply. A returned error means a
// collaborator failed transiently and the transport should ask the
// provider to redeliver; business outcomes are never errors.
func (e *Engine) HandleLocation(ctx context.Context, ping model.LocationPing) (model.Decision, error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("app.senderId", ping.SenderID))

	emp, err := e.employees.FindByWhatsAppNumber(ctx, ping.SenderID)
	if err != nil {
		return model.Decision{}, fmt.Errorf("employee lookup failed: %w", err)
	}
	if emp == nil {
		log.Ctx(ctx).Info().Str("sender", ping.SenderID).Msg("Location ping from unregistered number")
		e.reply(ctx, ping.SenderID, msgUnregistered)
		return model.Decision{Outcome: model.OutcomeUnregistered}, nil
	}
	span.SetAttributes(attribute.String("app.employeeId", emp.ID.String()))

	if emp.AllowAnywhereCheckIn {
		alreadyMarked, err := e.punchIn(ctx, emp, ping, nil, 0)
		if err != nil {
			return model.Decision{}, err
		}
		e.reply(ctx, ping.SenderID, acceptedReply(emp.Name, nil, 0, alreadyMarked))
		return model.Decision{Outcome: model.OutcomeAccepted, AlreadyMarked: alreadyMarked}, nil
	}

	orgSites, err := e.sites.ListSites(ctx, emp.OrgID)
	if err != nil {
		return model.Decision{}, fmt.Errorf("site lookup failed: %w", err)
	}

	candidates := candidateSites(emp, orgSites)
	if len(candidates) == 0 {
		log.Ctx(ctx).Warn().
			Str("org_id", emp.OrgID.String()).
			Str("employee_id", emp.ID.String()).
			Msg("No usable sites configured for geofence check")
		if e.alerts != nil {
			if err := e.alerts.PublishSiteConfigAlert(ctx, emp.OrgID, ping.SenderID); err != nil {
				log.Ctx(ctx).Warn().Err(err).Msg("Failed to publish site config alert")
			}
		}
		e.reply(ctx, ping.SenderID, msgNoSites)
		return model.Decision{Outcome: model.OutcomeNoSitesConfigured}, nil
	}

	nearest, dist, ok := geo.MatchNearest(ping.Coordinate, candidates)
	if !ok {
		// candidateSites only returns sites with coordinates, so this
		// branch is unreachable; treat it like missing configuration.
		e.reply(ctx, ping.SenderID, msgNoSites)
		return model.Decision{Outcome: model.OutcomeNoSitesConfigured}, nil
	}
	span.SetAttributes(attribute.Float64("app.distanceMeters", dist))

	if dist > e.radiusMeters {
		log.Ctx(ctx).Info().
			Str("employee_id", emp.ID.String()).
			Str("site", nearest.Name).
			Float64("distance_m", dist).
			Msg("Location ping outside geofence")
		e.reply(ctx, ping.SenderID, rejectedReply(nearest.Name, dist, e.radiusMeters))
		return model.Decision{Outcome: model.OutcomeRejected, Site: &nearest, DistanceMeters: dist}, nil
	}

	alreadyMarked, err := e.punchIn(ctx, emp, ping, &nearest.ID, dist)
	if err != nil {
		return model.Decision{}, err
	}
	e.reply(ctx, ping.SenderID, acceptedReply(emp.Name, &nearest, dist, alreadyMarked))
	return model.Decision{
		Outcome:        model.OutcomeAccepted,
		Site:           &nearest,
		DistanceMeters: dist,
		AlreadyMarked:  alreadyMarked,
	}, nil
}

// HandleText answers any non-location message with the static
// instructional reply. It never touches the directories or the ledger.
func (e *Engine) HandleText(ctx context.Context, senderID string) {
	e.reply(ctx, senderID, msgInstructional)
}

// punchIn performs the idempotent ledger write. A same-day duplicate is
// reported as alreadyMarked=true, never as a failure.
func (e *Engine) punchIn(ctx context.Context, emp *model.Employee, ping model.LocationPing, siteID *uuid.UUID, dist float64) (bool, error) {
	local := ping.ReceivedAt.In(e.loc)
	rec := model.AttendanceRecord{
		EmployeeID:     emp.ID,
		OrgID:          emp.OrgID,
		Date:           local.Format("2006-01-02"),
		SiteID:         siteID,
		DistanceMeters: dist,
		Latitude:       ping.Coordinate.Latitude,
		Longitude:      ping.Coordinate.Longitude,
		InTime:         local,
	}

	err := e.ledger.RecordPunchIn(ctx, rec)
	if errors.Is(err, ports.ErrAlreadyRecorded) {
		log.Ctx(ctx).Info().
			Str("employee_id", emp.ID.String()).
			Str("date", rec.Date).
			Msg("Punch-in already recorded for this date")
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger write failed: %w", err)
	}
	return false, nil
}

// reply dispatches the outcome message. Notification failures never
// affect the decision or the ledger write; they are logged and dropped.
func (e *Engine) reply(ctx context.Context, to, text string) {
	if err := e.notifier.SendText(ctx, to, text); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("to", to).Msg("Failed to send reply, decision stands")
	}
}
