package resolver

import (
	"context"
	"sort"

	"github.com/alexonufrak/dashboardv5-sub004/internal/airtable"
	"github.com/alexonufrak/dashboardv5-sub004/internal/cache"
	"github.com/alexonufrak/dashboardv5-sub004/internal/fetch"
)

// MilestoneByID resolves a milestone view.
func (s *Service) MilestoneByID(ctx context.Context, id string, opts *Options) (*Milestone, error) {
	key := cache.Key(string(TypeMilestone), id)
	m, err := fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeMilestone, opts), func(ctx context.Context) (*Milestone, error) {
		rec, err := s.air.Find(ctx, s.tables.Milestones, id)
		if err != nil {
			return nil, err
		}
		return milestoneFromRecord(rec), nil
	})
	return nilOnNotFound(m, err)
}

// MilestonesForCohort resolves a cohort's milestones ordered by number.
func (s *Service) MilestonesForCohort(ctx context.Context, cohortID string, opts *Options) ([]*Milestone, error) {
	key := cache.Key(string(TypeMilestone), cohortID, "cohort")
	return fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeMilestone, opts), func(ctx context.Context) ([]*Milestone, error) {
		recs, _, err := runStrategies(ctx, "milestones for cohort "+cohortID,
			s.linkStrategies(s.tables.Milestones, "Cohort", cohortID))
		if err != nil {
			return nil, err
		}
		out := make([]*Milestone, 0, len(recs))
		for _, rec := range recs {
			out = append(out, milestoneFromRecord(rec))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
		return out, nil
	})
}

// SubmissionByID resolves a submission view.
func (s *Service) SubmissionByID(ctx context.Context, id string, opts *Options) (*Submission, error) {
	key := cache.Key(string(TypeSubmission), id)
	sub, err := fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeSubmission, opts), func(ctx context.Context) (*Submission, error) {
		rec, err := s.air.Find(ctx, s.tables.Submissions, id)
		if err != nil {
			return nil, err
		}
		return submissionFromRecord(rec), nil
	})
	return nilOnNotFound(sub, err)
}

// SubmissionsForTeam resolves a team's submissions, newest first.
func (s *Service) SubmissionsForTeam(ctx context.Context, teamID string, opts *Options) ([]*Submission, error) {
	key := cache.Key(string(TypeSubmission), teamID, "team")
	return fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeSubmission, opts), func(ctx context.Context) ([]*Submission, error) {
		recs, _, err := runStrategies(ctx, "submissions for team "+teamID,
			s.linkStrategies(s.tables.Submissions, "Team", teamID))
		if err != nil {
			return nil, err
		}
		out := make([]*Submission, 0, len(recs))
		for _, rec := range recs {
			out = append(out, submissionFromRecord(rec))
		}
		sort.Slice(out, func(i, j int) bool {
			ti, tj := out[i].CreatedAt, out[j].CreatedAt
			if ti == nil || tj == nil {
				return tj == nil && ti != nil
			}
			return ti.After(*tj)
		})
		return out, nil
	})
}

func milestoneFromRecord(rec *airtable.Record) *Milestone {
	return &Milestone{
		ID:       rec.ID,
		Name:     fieldStr(rec.Fields, "Name", "Milestone Name"),
		Status:   fieldStr(rec.Fields, "Status"),
		Number:   fieldFloat(rec.Fields, "Number", "Milestone Number"),
		DueDate:  fieldTimePtr(rec.Fields, "Due Date", "Due Datetime"),
		CohortID: fieldFirst(rec.Fields, "Cohort"),
	}
}

func submissionFromRecord(rec *airtable.Record) *Submission {
	sub := &Submission{
		ID:          rec.ID,
		TeamID:      fieldFirst(rec.Fields, "Team"),
		MilestoneID: fieldFirst(rec.Fields, "Milestone"),
		Link:        fieldStr(rec.Fields, "Link", "Attachment Link"),
		Comments:    fieldStr(rec.Fields, "Comments", "Notes"),
	}
	if !rec.CreatedTime.IsZero() {
		t := rec.CreatedTime
		sub.CreatedAt = &t
	}
	if created := fieldTimePtr(rec.Fields, "Created Time", "Submitted At"); created != nil {
		sub.CreatedAt = created
	}
	return sub
}
