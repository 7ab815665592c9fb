package hydrator

import (
	"context"
	"fmt"
)

// KeyedResolverFunc resolves identifiers into a map keyed by identifier.
type KeyedResolverFunc func(ctx context.Context, ids []any) (map[any]any, error)

// FromKeyed adapts a keyed resolver to the positional Resolver contract.
//
// The map must hold an entry for every requested identifier, using the exact
// identifier values passed in as keys. Identifiers that do not exist must be
// present with a nil value; a missing entry is reported as ErrIncompleteResolution.
func FromKeyed(fn KeyedResolverFunc) Resolver {
	return ResolverFunc(func(ctx context.Context, ids []any) ([]any, error) {
		keyed, err := fn(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(keyed) > len(ids) {
			return nil, fmt.Errorf("%w: resolver returned %d entries for %d identifiers",
				ErrIncompleteResolution, len(keyed), len(ids))
		}

		values := make([]any, len(ids))
		for i, id := range ids {
			value, ok := keyed[id]
			if !ok {
				return nil, fmt.Errorf("%w: no entry for identifier %v", ErrIncompleteResolution, id)
			}
			values[i] = value
		}
		return values, nil
	})
}
