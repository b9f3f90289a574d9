package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanderheijden86/orbview/pkg/loader"
	"github.com/vanderheijden86/orbview/pkg/model"
)

// LoadWorkspace reads the workspace in dir and fills its orders from the
// freshest valid order source. When no source is usable the snapshot has no
// orders.
func LoadWorkspace(ctx context.Context, dir string, opts loader.ParseOptions) (model.WorkspaceSnapshot, error) {
	opts.SkipOrders = true
	snap, err := loader.LoadWorkspace(ctx, dir, opts)
	if err != nil {
		return snap, err
	}

	orders, src, err := LoadOrders(ctx, dir, opts)
	switch {
	case errors.Is(err, ErrNoSources):
	case err != nil:
		if opts.WarningHandler != nil {
			opts.WarningHandler(fmt.Sprintf("orders unavailable from %s: %v", src.Path, err))
		}
	default:
		snap.Orders = orders
	}
	return snap, nil
}

// LoadOrders discovers the order sources of dir, selects the best one and
// reads it.
func LoadOrders(ctx context.Context, dir string, opts loader.ParseOptions) ([]model.Order, DataSource, error) {
	sources, err := DiscoverSources(DiscoveryOptions{
		Dir:                    dir,
		ValidateAfterDiscovery: true,
	})
	if err != nil {
		return nil, DataSource{}, err
	}
	best, err := SelectBestSource(sources)
	if err != nil {
		return nil, DataSource{}, err
	}
	orders, err := LoadFromSource(ctx, best, opts)
	return orders, best, err
}

// LoadFromSource reads orders from a specific DataSource, dispatching to the
// appropriate reader based on source type.
func LoadFromSource(ctx context.Context, source DataSource, opts loader.ParseOptions) ([]model.Order, error) {
	switch source.Type {
	case SourceTypeSQLite:
		store, err := OpenSQLiteStore(source.Path, true)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer store.Close()
		return store.LoadOrders(ctx)

	case SourceTypeJSONL:
		return loader.LoadOrdersFromFile(source.Path, opts)

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}
