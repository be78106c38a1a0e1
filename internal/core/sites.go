package core

import "hajiri.service/internal/core/model"

// candidateSites applies the per-employee site policy to the
// organization's site list:
//
//   - an assigned site restricts the candidate set to exactly that
//     site; if it is missing from the org list (or has no coordinates)
//     the set is empty, never the full list
//   - otherwise every org site with both coordinates populated is a
//     candidate
//
// Callers handle the unrestricted check-in policy before getting here.
func candidateSites(emp *model.Employee, sites []model.Site) []model.Site {
	if emp.AssignedSiteID != nil {
		for _, s := range sites {
			if s.ID == *emp.AssignedSiteID {
				if _, ok := s.Coordinate(); !ok {
					return nil
				}
				return []model.Site{s}
			}
		}
		return nil
	}

	var out []model.Site
	for _, s := range sites {
		if _, ok := s.Coordinate(); ok {
			out = append(out, s)
		}
	}
	return out
}
