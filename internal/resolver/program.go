package resolver

import (
	"context"

	"github.com/alexonufrak/dashboardv5-sub004/internal/cache"
	"github.com/alexonufrak/dashboardv5-sub004/internal/fetch"
)

// ProgramByID resolves an initiative view.
func (s *Service) ProgramByID(ctx context.Context, id string, opts *Options) (*Program, error) {
	key := cache.Key(string(TypeProgram), id)
	p, err := fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeProgram, opts), func(ctx context.Context) (*Program, error) {
		rec, err := s.air.Find(ctx, s.tables.Initiatives, id)
		if err != nil {
			return nil, err
		}
		return &Program{
			ID:          rec.ID,
			Name:        fieldStr(rec.Fields, "Name", "Initiative Name"),
			Description: fieldStr(rec.Fields, "Description"),
			Status:      fieldStr(rec.Fields, "Status"),
			CohortIDs:   fieldStrs(rec.Fields, "Cohorts"),
		}, nil
	})
	return nilOnNotFound(p, err)
}

// CohortsForProgram resolves every cohort of an initiative, newest first by
// start date where the store provides one.
func (s *Service) CohortsForProgram(ctx context.Context, programID string, opts *Options) ([]*Cohort, error) {
	key := cache.Key(string(TypeCohort), programID, "program")
	return fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeCohort, opts), func(ctx context.Context) ([]*Cohort, error) {
		recs, _, err := runStrategies(ctx, "cohorts for program "+programID,
			s.linkStrategies(s.tables.Cohorts, "Initiative", programID))
		if err != nil {
			return nil, err
		}
		return s.cohortsFromRecords(ctx, recs, SourceDirect), nil
	})
}
