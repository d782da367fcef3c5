// Package entcache implements the entbus.Storer interface with an in-memory
// casbin enforcer in front of the database store.
package entcache

import (
	"context"
	"fmt"

	"github.com/jcpaschoal/erp-exata/business/domain/entbus"
	"github.com/jcpaschoal/erp-exata/business/types/role"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
)

// Store implements the entbus.Storer interface with a write-through cache
// strategy. Checks hit the enforcer first and fall back to the database.
type Store struct {
	log    *logger.Logger
	storer entbus.Storer
	cache  *memoryCache
}

// NewStore constructs the cached store and warms it from the catalog.
func NewStore(log *logger.Logger, storer entbus.Storer) (*Store, error) {
	mem, err := newMemoryCache(log)
	if err != nil {
		return nil, err
	}

	s := &Store{
		log:    log,
		storer: storer,
		cache:  mem,
	}

	// Startup runs outside of any request.
	if err := s.Reload(context.Background()); err != nil {
		return nil, fmt.Errorf("reload: %w", err)
	}

	return s, nil
}

// LoadPolicies returns the flattened policy set from the database store.
func (s *Store) LoadPolicies(ctx context.Context) ([]entbus.Policy, error) {
	return s.storer.LoadPolicies(ctx)
}

// Check validates the access check against the enforcer, falling back to the
// database on a miss. A hit on the fallback repairs the cache.
func (s *Store) Check(ctx context.Context, check entbus.AccessCheck) error {
	if err := s.cache.check(ctx, check); err == nil {
		return nil
	}

	if err := s.storer.Check(ctx, check); err != nil {
		return err
	}

	s.log.Info(ctx, "entcache: cache miss/repair triggered", "role", check.Role, "module", check.Module, "action", check.Action)

	s.cache.add(ctx, entbus.Policy{
		Module: check.Module,
		Action: check.Action,
		Roles:  []role.Role{check.Role},
	})

	return nil
}

// Reload replaces the loaded policy set with the current catalog state. The
// catalog upsert path calls this so revoked permissions stop passing.
func (s *Store) Reload(ctx context.Context) error {
	policies, err := s.storer.LoadPolicies(ctx)
	if err != nil {
		return fmt.Errorf("fetch policies: %w", err)
	}

	s.cache.clear()

	for _, p := range policies {
		s.cache.add(ctx, p)
	}

	return nil
}
