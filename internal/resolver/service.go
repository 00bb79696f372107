// Package resolver assembles denormalized entity views from the remote
// record store, following link fields across tables with fallback lookup
// strategies. All remote calls go through the fetch orchestrator; every
// sub-fetch has its own cache key so partial graphs stay reusable.
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/alexonufrak/dashboardv5-sub004/internal/airtable"
	"github.com/alexonufrak/dashboardv5-sub004/internal/cache"
	"github.com/alexonufrak/dashboardv5-sub004/internal/config"
	"github.com/alexonufrak/dashboardv5-sub004/internal/errs"
	"github.com/alexonufrak/dashboardv5-sub004/internal/fetch"
	"github.com/alexonufrak/dashboardv5-sub004/internal/logger"
)

// Options adjusts a single call.
type Options struct {
	// TTL overrides the per-type default cache lifetime.
	TTL time.Duration
}

// Service is the upstream API surface of the data-access layer.
type Service struct {
	air    *airtable.Client
	orch   *fetch.Orchestrator
	cache  *cache.Manager
	tables config.Tables
	now    func() time.Time
}

// New wires a Service. The orchestrator owns the cache and throttle, so a
// test can build an isolated Service with its own quota pool.
func New(air *airtable.Client, orch *fetch.Orchestrator, tables config.Tables) *Service {
	return &Service{
		air:    air,
		orch:   orch,
		cache:  orch.Cache(),
		tables: tables,
		now:    time.Now,
	}
}

func (s *Service) ttlFor(t Type, opts *Options) time.Duration {
	if opts != nil && opts.TTL > 0 {
		return opts.TTL
	}
	return DefaultTTL(t)
}

// GetEntityByID resolves a single entity view. A record that does not exist
// returns (nil, nil): "does not exist" is an answer, distinct from "could not
// be determined" which returns the classified error.
func (s *Service) GetEntityByID(ctx context.Context, t Type, id string, opts *Options) (any, error) {
	switch t {
	case TypeProfile:
		return anyView(s.ContactByID(ctx, id, opts))
	case TypeTeam:
		return anyView(s.TeamByID(ctx, id, opts))
	case TypeCohort:
		return anyView(s.CohortByID(ctx, id, opts))
	case TypeInstitution:
		return anyView(s.InstitutionByID(ctx, id, opts))
	case TypeProgram:
		return anyView(s.ProgramByID(ctx, id, opts))
	case TypeParticipation:
		return anyView(s.ParticipationByID(ctx, id, opts))
	case TypePartnership:
		return anyView(s.PartnershipByID(ctx, id, opts))
	case TypeSubmission:
		return anyView(s.SubmissionByID(ctx, id, opts))
	case TypeMilestone:
		return anyView(s.MilestoneByID(ctx, id, opts))
	case TypeEducation:
		return anyView(s.EducationByID(ctx, id, opts))
	default:
		return nil, fmt.Errorf("resolver: unknown entity type %q", t)
	}
}

// GetEntitiesByRelation resolves the views of type t related to relatedID.
// The relation each pairing follows is fixed: participation/team by contact,
// cohort/partnership by institution, submission by team, milestone by cohort.
func (s *Service) GetEntitiesByRelation(ctx context.Context, t Type, relatedID string, opts *Options) (any, error) {
	switch t {
	case TypeParticipation:
		return s.ParticipationsForContact(ctx, relatedID, opts)
	case TypeTeam:
		return s.TeamsForContact(ctx, relatedID, opts)
	case TypeCohort:
		return s.CohortsForInstitution(ctx, relatedID, opts)
	case TypePartnership:
		return s.PartnershipsForInstitution(ctx, relatedID, opts)
	case TypeSubmission:
		return s.SubmissionsForTeam(ctx, relatedID, opts)
	case TypeMilestone:
		return s.MilestonesForCohort(ctx, relatedID, opts)
	default:
		return nil, fmt.Errorf("resolver: no relation lookup for entity type %q", t)
	}
}

// Invalidate clears cached entries for a type, optionally scoped to one
// identifier, and reports how many in-memory entries were removed.
func (s *Service) Invalidate(t Type, id ...string) int {
	return s.cache.Invalidate(string(t), id...)
}

// CacheStats reports the cache contents for operational visibility.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// invalidationParents maps a written type to the types it denormalizes into.
// The parent types are cleared wholesale: the write payload does not say
// which parent rows embed the changed record.
var invalidationParents = map[Type][]Type{
	TypeEducation:     {TypeProfile},
	TypeParticipation: {TypeProfile, TypeCohort},
	TypePartnership:   {TypeInstitution, TypeCohort},
	TypeSubmission:    {TypeTeam, TypeMilestone},
	TypeTeam:          {TypeProfile},
	TypeCohort:        {TypeProgram, TypeInstitution},
}

// CreateEntity writes a new record and clears the caches it invalidates.
// Writes are throttled and classified but never retried.
func (s *Service) CreateEntity(ctx context.Context, t Type, fields map[string]any) (*airtable.Record, error) {
	table, err := s.tableFor(t)
	if err != nil {
		return nil, err
	}
	var rec *airtable.Record
	err = s.orch.Call(ctx, "create "+string(t), func(ctx context.Context) error {
		var callErr error
		rec, callErr = s.air.Create(ctx, table, fields)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	s.invalidateAfterWrite(t, rec.ID)
	return rec, nil
}

// UpdateEntity patches a record and clears the caches it invalidates.
func (s *Service) UpdateEntity(ctx context.Context, t Type, id string, fields map[string]any) (*airtable.Record, error) {
	table, err := s.tableFor(t)
	if err != nil {
		return nil, err
	}
	var rec *airtable.Record
	err = s.orch.Call(ctx, "update "+string(t), func(ctx context.Context) error {
		var callErr error
		rec, callErr = s.air.Update(ctx, table, id, fields)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	s.invalidateAfterWrite(t, id)
	return rec, nil
}

// UpdateContactEducation patches a contact's education record and invalidates
// the education entry and the cached profiles embedding it. Profiles are
// cleared wholesale: the owner may also be cached under an email-derived key
// this call has no way to reconstruct.
func (s *Service) UpdateContactEducation(ctx context.Context, contactID, educationID string, fields map[string]any) (*airtable.Record, error) {
	var rec *airtable.Record
	err := s.orch.Call(ctx, "update education", func(ctx context.Context) error {
		var callErr error
		rec, callErr = s.air.Update(ctx, s.tables.Education, educationID, fields)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(string(TypeEducation), educationID)
	s.cache.Invalidate(string(TypeProfile))
	return rec, nil
}

func (s *Service) invalidateAfterWrite(t Type, id string) {
	// The written type is cleared wholesale, not scoped to the record id:
	// relation-list views of the same type are keyed by a related id
	// (e.g. a contact's participation list) and embed the written record.
	n := s.cache.Invalidate(string(t))
	for _, parent := range invalidationParents[t] {
		n += s.cache.Invalidate(string(parent))
	}
	logger.Debugf("resolver: write to %s/%s invalidated %d cache entries", t, id, n)
}

func (s *Service) tableFor(t Type) (string, error) {
	switch t {
	case TypeProfile:
		return s.tables.Contacts, nil
	case TypeTeam:
		return s.tables.Teams, nil
	case TypeCohort:
		return s.tables.Cohorts, nil
	case TypeInstitution:
		return s.tables.Institutions, nil
	case TypeProgram:
		return s.tables.Initiatives, nil
	case TypeParticipation:
		return s.tables.Participation, nil
	case TypePartnership:
		return s.tables.Partnerships, nil
	case TypeSubmission:
		return s.tables.Submissions, nil
	case TypeMilestone:
		return s.tables.Milestones, nil
	case TypeEducation:
		return s.tables.Education, nil
	default:
		return "", fmt.Errorf("resolver: unknown entity type %q", t)
	}
}

// anyView boxes a typed view without producing a non-nil interface around a
// nil pointer.
func anyView[T any](v *T, err error) (any, error) {
	if err != nil || v == nil {
		return nil, err
	}
	return v, nil
}

// nilOnNotFound converts a NotFound classification into the nil view.
func nilOnNotFound[T any](v *T, err error) (*T, error) {
	if err != nil && errs.IsKind(err, errs.NotFound) {
		return nil, nil
	}
	return v, err
}
