package resolver

import (
	"context"
	"strings"

	"github.com/alexonufrak/dashboardv5-sub004/internal/airtable"
	"github.com/alexonufrak/dashboardv5-sub004/internal/cache"
	"github.com/alexonufrak/dashboardv5-sub004/internal/fetch"
	"github.com/alexonufrak/dashboardv5-sub004/internal/logger"
)

// ContactByID resolves a profile view by record id.
func (s *Service) ContactByID(ctx context.Context, id string, opts *Options) (*Contact, error) {
	key := cache.Key(string(TypeProfile), id)
	c, err := fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeProfile, opts), func(ctx context.Context) (*Contact, error) {
		rec, err := s.air.Find(ctx, s.tables.Contacts, id)
		if err != nil {
			return nil, err
		}
		return s.contactFromRecord(ctx, rec), nil
	})
	return nilOnNotFound(c, err)
}

// ContactByEmail resolves a profile view by email address. Email fields have
// drifted across schema revisions, so the lookup runs the full strategy
// chain: case-insensitive exact match, substring match, then a table scan
// with client-side comparison.
func (s *Service) ContactByEmail(ctx context.Context, email string, opts *Options) (*Contact, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	key := cache.Key(string(TypeProfile), email)
	c, err := fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeProfile, opts), func(ctx context.Context) (*Contact, error) {
		lower := strings.ToLower(email)
		recs, _, err := runStrategies(ctx, "contact "+email, []lookupStrategy{
			{
				name: "exact",
				run: func(ctx context.Context) ([]*airtable.Record, error) {
					return s.air.Select(ctx, s.tables.Contacts, airtable.SelectOptions{
						FilterByFormula: airtable.EqualsFold("Email", email),
						MaxRecords:      1,
					})
				},
			},
			{
				name: "contains",
				run: func(ctx context.Context) ([]*airtable.Record, error) {
					return s.air.Select(ctx, s.tables.Contacts, airtable.SelectOptions{
						FilterByFormula: airtable.Contains("Email", lower),
					})
				},
			},
			{
				name: "scan",
				run: func(ctx context.Context) ([]*airtable.Record, error) {
					recs, err := s.air.Select(ctx, s.tables.Contacts, airtable.SelectOptions{})
					if err != nil {
						return nil, err
					}
					var out []*airtable.Record
					for _, rec := range recs {
						if strings.EqualFold(fieldStr(rec.Fields, "Email"), email) {
							out = append(out, rec)
						}
					}
					return out, nil
				},
			},
		})
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, nil
		}
		return s.contactFromRecord(ctx, recs[0]), nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// EducationByID resolves an education record.
func (s *Service) EducationByID(ctx context.Context, id string, opts *Options) (*Education, error) {
	key := cache.Key(string(TypeEducation), id)
	e, err := fetch.Execute(ctx, s.orch, key, s.ttlFor(TypeEducation, opts), func(ctx context.Context) (*Education, error) {
		rec, err := s.air.Find(ctx, s.tables.Education, id)
		if err != nil {
			return nil, err
		}
		return educationFromRecord(rec), nil
	})
	return nilOnNotFound(e, err)
}

// contactFromRecord assembles the profile view, resolving the education link
// when present. A failed education sub-fetch degrades to the bare foreign id
// rather than failing the whole profile.
func (s *Service) contactFromRecord(ctx context.Context, rec *airtable.Record) *Contact {
	c := &Contact{
		ID:               rec.ID,
		Email:            fieldStr(rec.Fields, "Email", "Email Address"),
		FirstName:        fieldStr(rec.Fields, "First Name", "FirstName"),
		LastName:         fieldStr(rec.Fields, "Last Name", "LastName"),
		EducationID:      fieldFirst(rec.Fields, "Education"),
		ParticipationIDs: fieldStrs(rec.Fields, "Participation"),
	}
	if c.EducationID != "" {
		edu, err := s.EducationByID(ctx, c.EducationID, nil)
		if err != nil {
			logger.Warnf("resolver: contact %s education %s unresolved: %v", c.ID, c.EducationID, err)
		} else {
			c.Education = edu
		}
	}
	return c
}

func educationFromRecord(rec *airtable.Record) *Education {
	return &Education{
		ID:              rec.ID,
		InstitutionID:   fieldFirst(rec.Fields, "Institution"),
		InstitutionName: fieldStr(rec.Fields, "Institution Name", "Name (from Institution)"),
		DegreeType:      fieldStr(rec.Fields, "Degree Type", "Degree"),
		Major:           fieldStr(rec.Fields, "Major", "Major (from Major)"),
		GraduationYear:  fieldStr(rec.Fields, "Graduation Year", "Grad Year"),
	}
}
