package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hajiri.service/internal/core/model"
)

func TestCandidateSites(t *testing.T) {
	orgID := uuid.New()
	withCoords := testSite(orgID, "Warehouse A", basePoint)
	bare := model.Site{ID: uuid.New(), OrgID: orgID, Name: "New site"}

	t.Run("filters out sites without coordinates", func(t *testing.T) {
		emp := registered(orgID)
		got := candidateSites(emp, []model.Site{withCoords, bare})
		require.Len(t, got, 1)
		assert.Equal(t, withCoords.ID, got[0].ID)
	})

	t.Run("assigned site narrows to one", func(t *testing.T) {
		emp := registered(orgID)
		other := testSite(orgID, "Warehouse B", pointNorthOf(basePoint, 100))
		emp.AssignedSiteID = &other.ID
		got := candidateSites(emp, []model.Site{withCoords, other})
		require.Len(t, got, 1)
		assert.Equal(t, other.ID, got[0].ID)
	})

	t.Run("assigned site without coordinates yields empty", func(t *testing.T) {
		emp := registered(orgID)
		emp.AssignedSiteID = &bare.ID
		assert.Empty(t, candidateSites(emp, []model.Site{withCoords, bare}))
	})

	t.Run("dangling assigned site yields empty", func(t *testing.T) {
		emp := registered(orgID)
		missing := uuid.New()
		emp.AssignedSiteID = &missing
		assert.Empty(t, candidateSites(emp, []model.Site{withCoords}))
	})

	t.Run("no sites at all", func(t *testing.T) {
		assert.Empty(t, candidateSites(registered(orgID), nil))
	})
}
