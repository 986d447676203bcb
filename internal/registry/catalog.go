package registry

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Catalog resolves every dynamic provider against req, merges the results
// with the static table and returns the combined set sorted by name.
//
// Each request builds its merge fresh from read-only snapshots of the two
// registries; there is no process-wide catalog cache. Providers resolve
// concurrently, capped by the registry's resolve limit, and the sort makes
// the final order independent of registration order and of which
// resolution finished first. One provider failure fails the whole catalog
// request; results of in-flight siblings are discarded, never merged.
func (r *Registry) Catalog(ctx context.Context, req *RequestContext) ([]Descriptor, error) {
	static := r.static.List()
	dynamic := r.dynamic.snapshot()

	resolved := make([]Descriptor, len(dynamic))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.resolveLimit)
	for i, e := range dynamic {
		eg.Go(func() error {
			description, err := e.provider.Describe(ctx, req)
			if err != nil {
				return fmt.Errorf("resolving tool %q: %w", e.name, err)
			}
			resolved[i] = e.descriptor(description)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	catalog := make([]Descriptor, 0, len(static)+len(resolved))
	catalog = append(catalog, static...)
	catalog = append(catalog, resolved...)
	sort.Slice(catalog, func(i, j int) bool { return catalog[i].Name < catalog[j].Name })
	return catalog, nil
}
