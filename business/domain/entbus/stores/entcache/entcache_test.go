package entcache_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/jcpaschoal/erp-exata/business/domain/entbus"
	"github.com/jcpaschoal/erp-exata/business/domain/entbus/stores/entcache"
	"github.com/jcpaschoal/erp-exata/business/types/actions"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/role"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
)

// policyStore is a database stand-in evaluating checks against a fixed
// policy set.
type policyStore struct {
	policies []entbus.Policy
	checks   int
}

func (s *policyStore) LoadPolicies(ctx context.Context) ([]entbus.Policy, error) {
	return s.policies, nil
}

func (s *policyStore) Check(ctx context.Context, check entbus.AccessCheck) error {
	s.checks++

	for _, p := range s.policies {
		if !p.Module.Equal(check.Module) || !p.Action.Equal(check.Action) {
			continue
		}
		for _, r := range p.Roles {
			if r.Equal(check.Role) {
				return nil
			}
		}
	}

	return entbus.ErrAccessDenied
}

func (s *policyStore) Reload(ctx context.Context) error {
	return nil
}

func grant(key string, action actions.Action, roles ...role.Role) entbus.Policy {
	return entbus.Policy{
		Module: modulekey.MustParse(key),
		Action: action,
		Roles:  roles,
	}
}

func newTestStore(t *testing.T, policies ...entbus.Policy) (*entcache.Store, *policyStore) {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)
	db := &policyStore{policies: policies}

	store, err := entcache.NewStore(log, db)
	if err != nil {
		t.Fatalf("creating store: %s", err)
	}

	return store, db
}

func Test_AdminBypass(t *testing.T) {
	store, _ := newTestStore(t)

	check := entbus.AccessCheck{
		Role:   role.Admin,
		Module: modulekey.MustParse("billing"),
		Action: actions.Delete,
	}

	if err := store.Check(context.Background(), check); err != nil {
		t.Errorf("expected admin to pass every check, got %s", err)
	}
}

func Test_RoleGrantAndDeny(t *testing.T) {
	store, _ := newTestStore(t,
		grant("crm", actions.Get, role.Analyst, role.User),
		grant("crm", actions.Create, role.Analyst),
	)
	ctx := context.Background()

	granted := entbus.AccessCheck{Role: role.User, Module: modulekey.MustParse("crm"), Action: actions.Get}
	if err := store.Check(ctx, granted); err != nil {
		t.Errorf("expected USER to read crm, got %s", err)
	}

	denied := entbus.AccessCheck{Role: role.User, Module: modulekey.MustParse("crm"), Action: actions.Create}
	if err := store.Check(ctx, denied); err == nil {
		t.Error("expected USER create on crm to be denied")
	}
}

func Test_CacheServesWithoutDB(t *testing.T) {
	store, db := newTestStore(t,
		grant("reports", actions.Get, role.Analyst),
	)
	ctx := context.Background()

	check := entbus.AccessCheck{Role: role.Analyst, Module: modulekey.MustParse("reports"), Action: actions.Get}

	for range 5 {
		if err := store.Check(ctx, check); err != nil {
			t.Fatalf("check: %s", err)
		}
	}

	if db.checks != 0 {
		t.Errorf("expected warmed cache to serve checks, db was hit %d times", db.checks)
	}
}

func Test_CacheSelfRepair(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	// The grant exists in the database but not in the warmed cache.
	db.policies = []entbus.Policy{grant("billing", actions.Get, role.Analyst)}

	check := entbus.AccessCheck{Role: role.Analyst, Module: modulekey.MustParse("billing"), Action: actions.Get}

	if err := store.Check(ctx, check); err != nil {
		t.Fatalf("first check: %s", err)
	}
	if db.checks != 1 {
		t.Fatalf("expected fallback to hit the db once, got %d", db.checks)
	}

	// The repaired cache now answers without the database.
	if err := store.Check(ctx, check); err != nil {
		t.Fatalf("second check: %s", err)
	}
	if db.checks != 1 {
		t.Errorf("expected repaired cache to serve the check, db was hit %d times", db.checks)
	}
}

func Test_Reload(t *testing.T) {
	store, db := newTestStore(t,
		grant("crm", actions.Get, role.User),
	)
	ctx := context.Background()

	db.policies = []entbus.Policy{grant("monitoring", actions.Get, role.User)}

	if err := store.Reload(ctx); err != nil {
		t.Fatalf("reload: %s", err)
	}

	fresh := entbus.AccessCheck{Role: role.User, Module: modulekey.MustParse("monitoring"), Action: actions.Get}
	if err := store.Check(ctx, fresh); err != nil {
		t.Errorf("expected reloaded policy to pass, got %s", err)
	}

	// The old grant was cleared and the database no longer has it either.
	stale := entbus.AccessCheck{Role: role.User, Module: modulekey.MustParse("crm"), Action: actions.Get}
	if err := store.Check(ctx, stale); !errors.Is(err, entbus.ErrAccessDenied) {
		t.Errorf("expected stale policy to be denied, got %v", err)
	}
}
