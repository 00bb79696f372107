package resolver

import (
	"context"

	"github.com/alexonufrak/dashboardv5-sub004/internal/airtable"
	"github.com/alexonufrak/dashboardv5-sub004/internal/cache"
	"github.com/alexonufrak/dashboardv5-sub004/internal/fetch"
	"github.com/alexonufrak/dashboardv5-sub004/internal/logger"
)

// ParticipationByID resolves a single participation view.
func (s *Service) ParticipationByID(ctx context.Context, id string, opts *Options) (*Participation, error) {
	key := cache.Key(string(TypeParticipation), id)
	p, err := fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeParticipation, opts), func(ctx context.Context) (*Participation, error) {
		rec, err := s.air.Find(ctx, s.tables.Participation, id)
		if err != nil {
			return nil, err
		}
		return s.participationFromRecord(ctx, rec, fieldFirst(rec.Fields, "Contacts", "Contact")), nil
	})
	return nilOnNotFound(p, err)
}

// ParticipationsForContact resolves every participation of a contact, with
// cohort relations attached where they can be verified.
func (s *Service) ParticipationsForContact(ctx context.Context, contactID string, opts *Options) ([]*Participation, error) {
	key := cache.Key(string(TypeParticipation), contactID, "contact")
	return fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeParticipation, opts), func(ctx context.Context) ([]*Participation, error) {
		recs, _, err := runStrategies(ctx, "participation for contact "+contactID,
			s.linkStrategies(s.tables.Participation, "Contacts", contactID))
		if err != nil {
			return nil, err
		}
		out := make([]*Participation, 0, len(recs))
		for _, rec := range recs {
			out = append(out, s.participationFromRecord(ctx, rec, contactID))
		}
		return out, nil
	})
}

// participationFromRecord assembles one participation view.
//
// The cohort relation is only attached when it can be verified against the
// participation's initiative (directly or through a partnership); a
// mismatched cohort is demoted to its bare id. A participation with no
// cohort link at all gets a synthesized placeholder derived from the
// initiative, marked IsFallbackRecord so consumers treat it with reduced
// confidence.
func (s *Service) participationFromRecord(ctx context.Context, rec *airtable.Record, contactID string) *Participation {
	p := &Participation{
		ID:           rec.ID,
		ContactID:    contactID,
		Status:       fieldStr(rec.Fields, "Status"),
		CohortID:     fieldFirst(rec.Fields, "Cohorts", "Cohort"),
		InitiativeID: fieldFirst(rec.Fields, "Initiative"),
		TeamIDs:      fieldStrs(rec.Fields, "Team", "Teams"),
	}

	if p.CohortID != "" {
		co, err := s.CohortByID(ctx, p.CohortID, nil)
		switch {
		case err != nil || co == nil:
			logger.Warnf("resolver: participation %s cohort %s unresolved: %v", p.ID, p.CohortID, err)
		case !s.cohortMatchesInitiative(ctx, co, p.InitiativeID):
			logger.Warnf("resolver: participation %s cohort %s belongs to initiative %s, expected %s; demoting to bare id",
				p.ID, co.ID, co.InitiativeID, p.InitiativeID)
		default:
			p.Cohort = co
		}
		return p
	}

	if p.InitiativeID != "" {
		p.Cohort = s.synthesizeCohort(ctx, p.InitiativeID)
	}
	return p
}

// cohortMatchesInitiative enforces the cross-entity invariant: the cohort
// must belong to the given initiative directly or via a partnership that
// links both.
func (s *Service) cohortMatchesInitiative(ctx context.Context, co *Cohort, initiativeID string) bool {
	if initiativeID == "" || co.InitiativeID == initiativeID {
		return true
	}
	partnerships, err := s.partnershipsLinkingCohort(ctx, co.ID)
	if err != nil {
		logger.Warnf("resolver: partnership check for cohort %s failed: %v", co.ID, err)
		return false
	}
	for _, pt := range partnerships {
		if pt.InitiativeID == initiativeID {
			return true
		}
	}
	return false
}

// synthesizeCohort builds the minimal placeholder used when a participation
// has no resolvable cohort: only initiative-derived fields are populated.
func (s *Service) synthesizeCohort(ctx context.Context, initiativeID string) *Cohort {
	co := &Cohort{
		InitiativeID:     initiativeID,
		IsFallbackRecord: true,
	}
	if prog, err := s.ProgramByID(ctx, initiativeID, nil); err == nil && prog != nil {
		co.InitiativeName = prog.Name
		co.ShortName = prog.Name
	}
	return co
}
