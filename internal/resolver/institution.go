package resolver

import (
	"context"

	"github.com/alexonufrak/dashboardv5-sub004/internal/cache"
	"github.com/alexonufrak/dashboardv5-sub004/internal/fetch"
)

// InstitutionByID resolves an institution view.
func (s *Service) InstitutionByID(ctx context.Context, id string, opts *Options) (*Institution, error) {
	key := cache.Key(string(TypeInstitution), id)
	inst, err := fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeInstitution, opts), func(ctx context.Context) (*Institution, error) {
		rec, err := s.air.Find(ctx, s.tables.Institutions, id)
		if err != nil {
			return nil, err
		}
		return &Institution{
			ID:             rec.ID,
			Name:           fieldStr(rec.Fields, "Name", "Institution Name"),
			Domains:        fieldStrs(rec.Fields, "Domains", "Domain"),
			CohortIDs:      fieldStrs(rec.Fields, "Cohorts"),
			PartnershipIDs: fieldStrs(rec.Fields, "Partnerships"),
		}, nil
	})
	return nilOnNotFound(inst, err)
}

// CohortsForInstitution resolves an institution's cohorts along both
// discovery paths: cohorts linking the institution directly, and cohorts
// listed on the institution's partnership records. Neither path is trusted
// exclusively; the union is de-duplicated by id with the direct view winning,
// and every view carries its Source tag.
func (s *Service) CohortsForInstitution(ctx context.Context, institutionID string, opts *Options) ([]*Cohort, error) {
	key := cache.Key(string(TypeCohort), institutionID, "institution")
	return fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeCohort, opts), func(ctx context.Context) ([]*Cohort, error) {
		recs, _, err := runStrategies(ctx, "cohorts for institution "+institutionID,
			s.linkStrategies(s.tables.Cohorts, "Institution", institutionID))
		if err != nil {
			return nil, err
		}
		direct := s.cohortsFromRecords(ctx, recs, SourceDirect)

		partnerships, err := s.partnershipsForInstitution(ctx, institutionID)
		if err != nil {
			return nil, err
		}
		var mediatedIDs []string
		for _, p := range partnerships {
			mediatedIDs = append(mediatedIDs, p.CohortIDs...)
		}
		mediated := s.cohortsByIDs(ctx, mediatedIDs, SourcePartnership)

		seen := make(map[string]struct{}, len(direct))
		out := make([]*Cohort, 0, len(direct)+len(mediated))
		for _, co := range direct {
			seen[co.ID] = struct{}{}
			out = append(out, co)
		}
		for _, co := range mediated {
			if _, dup := seen[co.ID]; dup {
				continue
			}
			seen[co.ID] = struct{}{}
			out = append(out, co)
		}
		return out, nil
	})
}
