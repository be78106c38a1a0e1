package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"hajiri.service/internal/core/model"
	"hajiri.service/internal/ports"
)

// SiteRepository is the PostgreSQL implementation of the site directory.
type SiteRepository struct {
	DB *sql.DB
}

// NewSiteRepository create new instance
func NewSiteRepository(db *sql.DB) ports.SiteDirectory {
	return &SiteRepository{DB: db}
}

// ListSites returns every site configured for the organization,
// including sites whose coordinates are not filled in yet; the engine
// filters those out of geofence matching.
func (r *SiteRepository) ListSites(ctx context.Context, orgID uuid.UUID) ([]model.Site, error) {
	query := `SELECT id, org_id, name, latitude, longitude
              FROM locations
              WHERE org_id = $1`

	rows, err := r.DB.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []model.Site
	for rows.Next() {
		var (
			s        model.Site
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &s.OrgID, &s.Name, &lat, &lon); err != nil {
			return nil, err
		}
		if lat.Valid {
			v := lat.Float64
			s.Latitude = &v
		}
		if lon.Valid {
			v := lon.Float64
			s.Longitude = &v
		}
		sites = append(sites, s)
	}

	return sites, rows.Err()
}
