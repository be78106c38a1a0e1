package repository

import (
	"context"
	"database/sql"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hajiri.service/internal/core/model"
	"hajiri.service/internal/ports"
)

// AttendanceRepository is the PostgreSQL attendance ledger. The
// attendance table carries a unique index on (employee_id, date), so
// concurrent punch-ins for the same day collapse into one row here
// rather than in application code.
type AttendanceRepository struct {
	DB *sql.DB
}

// NewAttendanceRepository create new instance
func NewAttendanceRepository(db *sql.DB) ports.AttendanceLedger {
	return &AttendanceRepository{DB: db}
}

// RecordPunchIn inserts the canonical punch-in row for the day.
// Returns ports.ErrAlreadyRecorded when a row for (employee, date)
// already exists.
func (r *AttendanceRepository) RecordPunchIn(ctx context.Context, rec model.AttendanceRecord) error {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("app.employeeId", rec.EmployeeID.String()),
		attribute.String("app.date", rec.Date),
	)

	query := `INSERT INTO attendance
                (employee_id, org_id, date, verified_location_id, distance_meters, latitude, longitude, status, in_time)
              VALUES ($1, $2, $3, $4, $5, $6, $7, 'Present', $8)
              ON CONFLICT (employee_id, date) DO NOTHING`

	var siteID any
	if rec.SiteID != nil {
		siteID = *rec.SiteID
	}

	res, err := r.DB.ExecContext(ctx, query,
		rec.EmployeeID, rec.OrgID, rec.Date, siteID, rec.DistanceMeters,
		rec.Latitude, rec.Longitude, rec.InTime,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ports.ErrAlreadyRecorded
	}
	return nil
}
