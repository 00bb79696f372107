package resolver

import (
	"context"

	"github.com/alexonufrak/dashboardv5-sub004/internal/airtable"
	"github.com/alexonufrak/dashboardv5-sub004/internal/cache"
	"github.com/alexonufrak/dashboardv5-sub004/internal/fetch"
	"github.com/alexonufrak/dashboardv5-sub004/internal/logger"
)

// TeamByID resolves a team view with its member roster. The roster comes
// from one select over the members table rather than per-member finds.
func (s *Service) TeamByID(ctx context.Context, id string, opts *Options) (*Team, error) {
	key := cache.Key(string(TypeTeam), id)
	t, err := fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeTeam, opts), func(ctx context.Context) (*Team, error) {
		rec, err := s.air.Find(ctx, s.tables.Teams, id)
		if err != nil {
			return nil, err
		}
		team := &Team{
			ID:          rec.ID,
			Name:        fieldStr(rec.Fields, "Team Name", "Name"),
			Description: fieldStr(rec.Fields, "Description"),
			CohortIDs:   fieldStrs(rec.Fields, "Cohorts", "Cohort"),
		}
		memberRecs, _, err := runStrategies(ctx, "members of team "+id,
			s.linkStrategies(s.tables.Members, "Team", id))
		if err != nil {
			// A roster failure degrades the view instead of failing it.
			logger.Warnf("resolver: team %s members unresolved: %v", id, err)
			return team, nil
		}
		for _, m := range memberRecs {
			team.Members = append(team.Members, memberFromRecord(m))
		}
		return team, nil
	})
	return nilOnNotFound(t, err)
}

// TeamsForContact resolves the teams a contact belongs to via the members
// linking table, de-duplicated by team id.
func (s *Service) TeamsForContact(ctx context.Context, contactID string, opts *Options) ([]*Team, error) {
	key := cache.Key(string(TypeTeam), contactID, "contact")
	return fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeTeam, opts), func(ctx context.Context) ([]*Team, error) {
		memberRecs, _, err := runStrategies(ctx, "memberships of contact "+contactID,
			s.linkStrategies(s.tables.Members, "Contact", contactID))
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{})
		var out []*Team
		for _, m := range memberRecs {
			if status := fieldStr(m.Fields, "Status"); status != "" && status != "Active" {
				continue
			}
			teamID := fieldFirst(m.Fields, "Team")
			if teamID == "" {
				continue
			}
			if _, dup := seen[teamID]; dup {
				continue
			}
			seen[teamID] = struct{}{}
			team, err := s.TeamByID(ctx, teamID, nil)
			if err != nil || team == nil {
				logger.Warnf("resolver: team %s for contact %s unresolved: %v", teamID, contactID, err)
				continue
			}
			out = append(out, team)
		}
		return out, nil
	})
}

func memberFromRecord(rec *airtable.Record) TeamMember {
	return TeamMember{
		ID:        rec.ID,
		ContactID: fieldFirst(rec.Fields, "Contact"),
		Email:     fieldStr(rec.Fields, "Email", "Email (from Contact)"),
		Name:      fieldStr(rec.Fields, "Full Name", "Name (from Contact)"),
		Status:    fieldStr(rec.Fields, "Status"),
	}
}
