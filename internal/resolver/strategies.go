package resolver

import (
	"context"

	"github.com/alexonufrak/dashboardv5-sub004/internal/airtable"
	"github.com/alexonufrak/dashboardv5-sub004/internal/logger"
)

// The store's filter language cannot reliably express "contains this id"
// across all link-field representations, and field shapes drift over time.
// Lookups therefore run a chain of progressively looser strategies: an exact
// indexed filter, a contains filter over the joined field, and finally a full
// table fetch filtered client-side. Each strategy runs only when the previous
// one returned zero rows; the first non-empty result set wins.

type lookupStrategy struct {
	name string
	run  func(context.Context) ([]*airtable.Record, error)
}

// runStrategies executes the chain and returns the winning rows and strategy
// name. An empty name means every strategy came back empty. Errors abort the
// chain; the orchestrator has already applied its retry policy by then.
func runStrategies(ctx context.Context, entity string, strategies []lookupStrategy) ([]*airtable.Record, string, error) {
	for i, s := range strategies {
		recs, err := s.run(ctx)
		if err != nil {
			return nil, s.name, err
		}
		if len(recs) > 0 {
			if i > 0 {
				logger.Infof("resolver: %s resolved via %q after %d empty strategies", entity, s.name, i)
			}
			return recs, s.name, nil
		}
		logger.Debugf("resolver: %s strategy %q returned no rows", entity, s.name)
	}
	return nil, "", nil
}

// linkStrategies builds the standard three-step chain for "rows whose link
// field references id" on a table.
func (s *Service) linkStrategies(table, field, id string) []lookupStrategy {
	return []lookupStrategy{
		{
			name: "exact",
			run: func(ctx context.Context) ([]*airtable.Record, error) {
				return s.air.Select(ctx, table, airtable.SelectOptions{
					FilterByFormula: airtable.Equals(field, id),
				})
			},
		},
		{
			name: "contains",
			run: func(ctx context.Context) ([]*airtable.Record, error) {
				return s.air.Select(ctx, table, airtable.SelectOptions{
					FilterByFormula: airtable.ContainsJoined(field, id),
				})
			},
		},
		{
			name: "scan",
			run: func(ctx context.Context) ([]*airtable.Record, error) {
				recs, err := s.air.Select(ctx, table, airtable.SelectOptions{})
				if err != nil {
					return nil, err
				}
				var out []*airtable.Record
				for _, rec := range recs {
					if containsID(fieldStrs(rec.Fields, field), id) {
						out = append(out, rec)
					}
				}
				return out, nil
			},
		},
	}
}
