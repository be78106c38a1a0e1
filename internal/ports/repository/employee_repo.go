package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hajiri.service/internal/core/model"
	"hajiri.service/internal/ports"
)

// EmployeeRepository is the PostgreSQL implementation of the employee
// directory, keyed on the WhatsApp number delivered in the webhook.
type EmployeeRepository struct {
	DB *sql.DB
}

// NewEmployeeRepository create new instance
func NewEmployeeRepository(db *sql.DB) ports.EmployeeDirectory {
	return &EmployeeRepository{DB: db}
}

// FindByWhatsAppNumber looks up an employee by external channel id.
// Returns (nil, nil) when the number is not registered.
func (r *EmployeeRepository) FindByWhatsAppNumber(ctx context.Context, number string) (*model.Employee, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.senderId", number))

	query := `SELECT id, org_id, name, whatsapp_number, allow_anywhere_checkin, assigned_site_id
              FROM employees
              WHERE whatsapp_number = $1`

	var (
		emp      model.Employee
		assigned sql.NullString
	)
	row := r.DB.QueryRowContext(ctx, query, number)
	err := row.Scan(&emp.ID, &emp.OrgID, &emp.Name, &emp.WhatsAppNumber, &emp.AllowAnywhereCheckIn, &assigned)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if assigned.Valid {
		id, err := uuid.Parse(assigned.String)
		if err != nil {
			return nil, fmt.Errorf("invalid assigned_site_id for employee %s: %w", emp.ID, err)
		}
		emp.AssignedSiteID = &id
	}

	return &emp, nil
}
