// Package modulecache contains module catalog related CRUD functionality with
// caching. The catalog is read on every authorization and navigation request
// but only changes when an administrator provisions a module, so lookups by
// key are served from an in-memory cache with a TTL.
package modulecache

import (
	"context"
	"time"

	"github.com/jcpaschoal/erp-exata/business/domain/modulebus"
	"github.com/jcpaschoal/erp-exata/business/sdk/sqldb"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
	"github.com/viccon/sturdyc"
)

// Store manages the set of APIs for module catalog data and caching.
type Store struct {
	log    *logger.Logger
	storer modulebus.Storer
	cache  *sturdyc.Client[modulebus.Module]
}

// NewStore constructs the api for data and caching access.
func NewStore(log *logger.Logger, storer modulebus.Storer, ttl time.Duration) *Store {
	const capacity = 1000
	const numShards = 10
	const evictionPercentage = 10

	return &Store{
		log:    log,
		storer: storer,
		cache:  sturdyc.New[modulebus.Module](capacity, numShards, ttl, evictionPercentage),
	}
}

// NewWithTx returns the underlying storer bound to the transaction, bypassing
// the cache. A write-through before commit would publish state the rollback
// discards, so transactional writes land in the cache only after the TTL
// expires the stale entry.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (modulebus.Storer, error) {
	storer, err := s.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	return storer, nil
}

// Upsert writes the module definition through to the database and refreshes
// the cached entry for its key.
func (s *Store) Upsert(ctx context.Context, m modulebus.Module) (modulebus.Module, error) {
	persisted, err := s.storer.Upsert(ctx, m)
	if err != nil {
		return modulebus.Module{}, err
	}

	s.cache.Set(persisted.Key.String(), persisted)

	return persisted, nil
}

// Query retrieves the catalog. Lists always go to the database, only key
// lookups are cached.
func (s *Store) Query(ctx context.Context, filter modulebus.QueryFilter) ([]modulebus.Module, error) {
	return s.storer.Query(ctx, filter)
}

// QueryByKey gets the specified module from the cache, falling back to the
// database on a miss.
func (s *Store) QueryByKey(ctx context.Context, key modulekey.ModuleKey) (modulebus.Module, error) {
	fetch := func(ctx context.Context) (modulebus.Module, error) {
		return s.storer.QueryByKey(ctx, key)
	}

	module, err := s.cache.GetOrFetch(ctx, key.String(), fetch)
	if err != nil {
		return modulebus.Module{}, err
	}

	return module, nil
}
