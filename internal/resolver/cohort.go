package resolver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/alexonufrak/dashboardv5-sub004/internal/airtable"
	"github.com/alexonufrak/dashboardv5-sub004/internal/cache"
	"github.com/alexonufrak/dashboardv5-sub004/internal/fetch"
	"github.com/alexonufrak/dashboardv5-sub004/internal/logger"
)

// CohortByID resolves a cohort view by record id.
func (s *Service) CohortByID(ctx context.Context, id string, opts *Options) (*Cohort, error) {
	key := cache.Key(string(TypeCohort), id)
	co, err := fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeCohort, opts), func(ctx context.Context) (*Cohort, error) {
		rec, err := s.air.Find(ctx, s.tables.Cohorts, id)
		if err != nil {
			return nil, err
		}
		return s.cohortFromRecord(ctx, rec), nil
	})
	return nilOnNotFound(co, err)
}

// cohortFromRecord assembles a cohort view. The initiative name usually
// arrives as a lookup field; when it does not, the program view fills it in
// (a cached sub-fetch, so repeated cohorts of one program cost one call).
func (s *Service) cohortFromRecord(ctx context.Context, rec *airtable.Record) *Cohort {
	co := &Cohort{
		ID:             rec.ID,
		ShortName:      fieldStr(rec.Fields, "Short Name", "Cohort Short Name", "Name"),
		Status:         fieldStr(rec.Fields, "Status"),
		InitiativeID:   fieldFirst(rec.Fields, "Initiative"),
		InitiativeName: fieldStr(rec.Fields, "Initiative Name", "Name (from Initiative)"),
		TopicNames:     fieldStrs(rec.Fields, "Topic Names", "Name (from Topics)"),
		ClassNames:     fieldStrs(rec.Fields, "Class Names", "Name (from Classes)"),
		StartDate:      fieldTimePtr(rec.Fields, "Start Date", "Start"),
		EndDate:        fieldTimePtr(rec.Fields, "End Date", "End"),
		CurrentFlag:    fieldBoolPtr(rec.Fields, "Current Cohort", "Is Current"),
	}
	if co.InitiativeName == "" && co.InitiativeID != "" {
		if p, err := s.ProgramByID(ctx, co.InitiativeID, nil); err == nil && p != nil {
			co.InitiativeName = p.Name
		}
	}
	co.IsCurrent = cohortIsCurrent(co.CurrentFlag, co.StartDate, co.EndDate, s.now())
	return co
}

// cohortsByIDs resolves cohorts concurrently, tagging each with its
// discovery path. Unresolvable ids are skipped with a warning; the returned
// views are copies, never the cached instances.
func (s *Service) cohortsByIDs(ctx context.Context, ids []string, source string) []*Cohort {
	results := make([]*Cohort, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			co, err := s.CohortByID(gctx, id, nil)
			if err != nil || co == nil {
				logger.Warnf("resolver: cohort %s (%s path) unresolved: %v", id, source, err)
				return nil
			}
			cc := *co
			cc.Source = source
			results[i] = &cc
			return nil
		})
	}
	_ = g.Wait()
	out := make([]*Cohort, 0, len(ids))
	for _, co := range results {
		if co != nil {
			out = append(out, co)
		}
	}
	return out
}

// cohortsFromRecords assembles and tags cohort views from raw select rows.
func (s *Service) cohortsFromRecords(ctx context.Context, recs []*airtable.Record, source string) []*Cohort {
	out := make([]*Cohort, 0, len(recs))
	for _, rec := range recs {
		co := s.cohortFromRecord(ctx, rec)
		co.Source = source
		out = append(out, co)
	}
	return out
}
