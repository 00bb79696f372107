package resolver

import (
	"context"

	"github.com/alexonufrak/dashboardv5-sub004/internal/airtable"
	"github.com/alexonufrak/dashboardv5-sub004/internal/cache"
	"github.com/alexonufrak/dashboardv5-sub004/internal/fetch"
)

// PartnershipByID resolves a partnership record.
func (s *Service) PartnershipByID(ctx context.Context, id string, opts *Options) (*Partnership, error) {
	key := cache.Key(string(TypePartnership), id)
	p, err := fetch.Execute(ctx, s.orch, key, s.ttlFor(TypePartnership, opts), func(ctx context.Context) (*Partnership, error) {
		rec, err := s.air.Find(ctx, s.tables.Partnerships, id)
		if err != nil {
			return nil, err
		}
		return partnershipFromRecord(rec), nil
	})
	return nilOnNotFound(p, err)
}

// PartnershipsForInstitution resolves the partnership records naming an
// institution.
func (s *Service) PartnershipsForInstitution(ctx context.Context, institutionID string, opts *Options) ([]*Partnership, error) {
	key := cache.Key(string(TypePartnership), institutionID, "institution")
	return fetch.Execute(ctx, s.orch, key, s.ttlFor(TypePartnership, opts), func(ctx context.Context) ([]*Partnership, error) {
		return s.selectPartnerships(ctx, "Institution", institutionID)
	})
}

// partnershipsForInstitution is the uncached-key internal form used while
// assembling institution cohort views; it shares the same cache entry as the
// public lookup.
func (s *Service) partnershipsForInstitution(ctx context.Context, institutionID string) ([]*Partnership, error) {
	return s.PartnershipsForInstitution(ctx, institutionID, nil)
}

// partnershipsLinkingCohort finds partnerships whose cohort list names the
// cohort; used to verify the participation/cohort/initiative invariant.
func (s *Service) partnershipsLinkingCohort(ctx context.Context, cohortID string) ([]*Partnership, error) {
	key := cache.Key(string(TypePartnership), cohortID, "cohort")
	return fetch.Execute(ctx, s.orch, key, DefaultTTL(TypePartnership), func(ctx context.Context) ([]*Partnership, error) {
		return s.selectPartnerships(ctx, "Cohorts", cohortID)
	})
}

func (s *Service) selectPartnerships(ctx context.Context, field, id string) ([]*Partnership, error) {
	recs, _, err := runStrategies(ctx, "partnerships by "+field,
		s.linkStrategies(s.tables.Partnerships, field, id))
	if err != nil {
		return nil, err
	}
	out := make([]*Partnership, 0, len(recs))
	for _, rec := range recs {
		out = append(out, partnershipFromRecord(rec))
	}
	return out, nil
}

func partnershipFromRecord(rec *airtable.Record) *Partnership {
	return &Partnership{
		ID:            rec.ID,
		InstitutionID: fieldFirst(rec.Fields, "Institution"),
		InitiativeID:  fieldFirst(rec.Fields, "Initiative"),
		CohortIDs:     fieldStrs(rec.Fields, "Cohorts"),
	}
}
