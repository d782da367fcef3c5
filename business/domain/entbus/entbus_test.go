package entbus_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/domain/auditbus"
	"github.com/jcpaschoal/erp-exata/business/domain/entbus"
	"github.com/jcpaschoal/erp-exata/business/domain/entbus/stores/entcache"
	"github.com/jcpaschoal/erp-exata/business/domain/modulebus"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/order"
	"github.com/jcpaschoal/erp-exata/business/sdk/page"
	"github.com/jcpaschoal/erp-exata/business/sdk/sqldb"
	"github.com/jcpaschoal/erp-exata/business/types/actions"
	"github.com/jcpaschoal/erp-exata/business/types/category"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/role"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
)

// =============================================================================
// Fakes

type moduleStore struct {
	modules []modulebus.Module
}

func (s *moduleStore) NewWithTx(tx sqldb.CommitRollbacker) (modulebus.Storer, error) {
	return s, nil
}

func (s *moduleStore) Upsert(ctx context.Context, m modulebus.Module) (modulebus.Module, error) {
	s.modules = append(s.modules, m)
	return m, nil
}

func (s *moduleStore) Query(ctx context.Context, filter modulebus.QueryFilter) ([]modulebus.Module, error) {
	var ms []modulebus.Module
	for _, m := range s.modules {
		if filter.IsActive != nil && m.IsActive != *filter.IsActive {
			continue
		}
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].Order < ms[j].Order })
	return ms, nil
}

func (s *moduleStore) QueryByKey(ctx context.Context, key modulekey.ModuleKey) (modulebus.Module, error) {
	for _, m := range s.modules {
		if m.Key.Equal(key) {
			return m, nil
		}
	}
	return modulebus.Module{}, modulebus.ErrNotFound
}

type auditStore struct{}

func (s *auditStore) NewWithTx(tx sqldb.CommitRollbacker) (auditbus.Storer, error) {
	return s, nil
}

func (s *auditStore) Create(ctx context.Context, e auditbus.Entry) error {
	return nil
}

func (s *auditStore) QueryByTenant(ctx context.Context, tenantID uuid.UUID) ([]auditbus.Transition, error) {
	return nil, nil
}

// tenantStore only answers module status queries, the rest of the interface
// is unused by the entitlement paths under test.
type tenantStore struct {
	status []tenantbus.ModuleStatus
}

func (s *tenantStore) NewWithTx(tx sqldb.CommitRollbacker) (tenantbus.Storer, error) {
	return s, nil
}

func (s *tenantStore) Create(ctx context.Context, t tenantbus.Tenant) error { return nil }
func (s *tenantStore) Update(ctx context.Context, t tenantbus.Tenant) error { return nil }
func (s *tenantStore) Delete(ctx context.Context, t tenantbus.Tenant) error { return nil }

func (s *tenantStore) Query(ctx context.Context, filter tenantbus.QueryFilter, orderBy order.By, page page.Page) ([]tenantbus.Tenant, error) {
	return nil, nil
}

func (s *tenantStore) Count(ctx context.Context, filter tenantbus.QueryFilter) (int, error) {
	return 0, nil
}

func (s *tenantStore) QueryByID(ctx context.Context, tenantID uuid.UUID) (tenantbus.Tenant, error) {
	return tenantbus.Tenant{}, tenantbus.ErrNotFound
}

func (s *tenantStore) QueryIDBySlug(ctx context.Context, slug string) (uuid.UUID, error) {
	return uuid.Nil, tenantbus.ErrNotFound
}

func (s *tenantStore) CountDependents(ctx context.Context, tenantID uuid.UUID) (tenantbus.Dependents, error) {
	return tenantbus.Dependents{}, nil
}

func (s *tenantStore) UpsertModuleLink(ctx context.Context, tm tenantbus.TenantModule) error {
	return nil
}

func (s *tenantStore) QueryModuleLinks(ctx context.Context, tenantID uuid.UUID) ([]tenantbus.TenantModule, error) {
	return nil, nil
}

func (s *tenantStore) QueryModuleStatus(ctx context.Context, tenantID uuid.UUID) ([]tenantbus.ModuleStatus, error) {
	return s.status, nil
}

func (s *tenantStore) QueryTenantsByModule(ctx context.Context, moduleID uuid.UUID) ([]tenantbus.Usage, error) {
	return nil, nil
}

func (s *tenantStore) DeleteModuleLinks(ctx context.Context, tenantID uuid.UUID) error {
	return nil
}

// policyStore answers checks from a static policy list.
type policyStore struct {
	policies []entbus.Policy
}

func (s *policyStore) LoadPolicies(ctx context.Context) ([]entbus.Policy, error) {
	return s.policies, nil
}

func (s *policyStore) Check(ctx context.Context, check entbus.AccessCheck) error {
	if check.Role.Equal(role.Admin) {
		return nil
	}

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

// =============================================================================

func module(key string, ord int, active bool, features []modulebus.Feature, perms []modulebus.Permission) modulebus.Module {
	return modulebus.Module{
		ID:          uuid.New(),
		Key:         modulekey.MustParse(key),
		DisplayName: key,
		Category:    category.Business,
		Order:       ord,
		IsActive:    active,
		Features:    features,
		Permissions: perms,
	}
}

func newTestCore(catalog []modulebus.Module, status []tenantbus.ModuleStatus, policies []entbus.Policy) *entbus.Core {
	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	moduleBus := modulebus.NewCore(log, &moduleStore{modules: catalog})
	auditBus := auditbus.NewCore(log, &auditStore{})
	tenantBus := tenantbus.NewCore(log, moduleBus, auditBus, &tenantStore{status: status})

	return entbus.NewCore(log, moduleBus, tenantBus, &policyStore{policies: policies})
}

func Test_EnabledGate(t *testing.T) {
	catalog := []modulebus.Module{
		module("crm", 1, true, nil, nil),
		module("billing", 2, true, nil, nil),
	}
	status := []tenantbus.ModuleStatus{
		{Key: modulekey.MustParse("crm"), IsEnabled: true},
		{Key: modulekey.MustParse("billing"), IsEnabled: false},
	}

	core := newTestCore(catalog, status, nil)
	ctx := context.Background()
	tenantID := uuid.New()

	if err := core.Enabled(ctx, tenantID, modulekey.MustParse("crm")); err != nil {
		t.Errorf("expected crm to be enabled, got %s", err)
	}

	err := core.Enabled(ctx, tenantID, modulekey.MustParse("billing"))
	if !errors.Is(err, entbus.ErrModuleDisabled) {
		t.Errorf("expected ErrModuleDisabled, got %v", err)
	}

	// A module with no link row counts as disabled.
	err = core.Enabled(ctx, tenantID, modulekey.MustParse("reports"))
	if !errors.Is(err, entbus.ErrModuleDisabled) {
		t.Errorf("expected ErrModuleDisabled for missing link, got %v", err)
	}
}

func Test_NavigationRoutes(t *testing.T) {
	features := []modulebus.Feature{
		{ID: "contacts", IsEnabled: true},
		{ID: "leads", IsEnabled: false},
		{ID: "deals", IsEnabled: true},
	}
	catalog := []modulebus.Module{
		module("crm", 1, true, features, nil),
	}
	status := []tenantbus.ModuleStatus{
		{Key: modulekey.MustParse("crm"), IsEnabled: true},
	}

	core := newTestCore(catalog, status, nil)

	nav, err := core.QueryNavigation(context.Background(), uuid.New(), role.User)
	if err != nil {
		t.Fatalf("query navigation: %s", err)
	}

	if len(nav) != 1 {
		t.Fatalf("expected 1 nav entry, got %d", len(nav))
	}

	wantRoutes := []string{"/crm", "/crm/contacts", "/crm/deals"}
	if diff := cmp.Diff(wantRoutes, nav[0].Routes); diff != "" {
		t.Errorf("routes mismatch (-want +got):\n%s", diff)
	}

	wantFeatures := []string{"contacts", "deals"}
	if diff := cmp.Diff(wantFeatures, nav[0].Features); diff != "" {
		t.Errorf("features mismatch (-want +got):\n%s", diff)
	}
}

func Test_NavigationFilters(t *testing.T) {
	perms := []modulebus.Permission{
		{Action: actions.Get, Roles: []role.Role{role.Analyst}},
	}
	catalog := []modulebus.Module{
		module("dashboard", 1, true, nil, nil),
		module("billing", 2, true, nil, perms),
		module("legacy", 3, false, nil, nil),
		module("payroll", 4, true, nil, nil),
	}
	status := []tenantbus.ModuleStatus{
		{Key: modulekey.MustParse("dashboard"), IsEnabled: true},
		{Key: modulekey.MustParse("billing"), IsEnabled: true},
		{Key: modulekey.MustParse("legacy"), IsEnabled: true},
		{Key: modulekey.MustParse("payroll"), IsEnabled: false},
	}
	policies := []entbus.Policy{
		{Module: modulekey.MustParse("billing"), Action: actions.Get, Roles: []role.Role{role.Analyst}},
	}

	core := newTestCore(catalog, status, policies)
	ctx := context.Background()
	tenantID := uuid.New()

	keys := func(nav []entbus.NavModule) []string {
		strs := make([]string, len(nav))
		for i, nm := range nav {
			strs[i] = nm.Key.String()
		}
		return strs
	}

	// USER cannot see billing, legacy is inactive, payroll is disabled.
	nav, err := core.QueryNavigation(ctx, tenantID, role.User)
	if err != nil {
		t.Fatalf("query navigation: %s", err)
	}
	if diff := cmp.Diff([]string{"dashboard"}, keys(nav)); diff != "" {
		t.Errorf("user nav mismatch (-want +got):\n%s", diff)
	}

	// ANALYST holds the billing grant.
	nav, err = core.QueryNavigation(ctx, tenantID, role.Analyst)
	if err != nil {
		t.Fatalf("query navigation: %s", err)
	}
	if diff := cmp.Diff([]string{"dashboard", "billing"}, keys(nav)); diff != "" {
		t.Errorf("analyst nav mismatch (-want +got):\n%s", diff)
	}
}

func Test_ReloadPoliciesRevokes(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	db := &policyStore{policies: []entbus.Policy{
		{Module: modulekey.MustParse("crm"), Action: actions.Get, Roles: []role.Role{role.User}},
	}}

	cached, err := entcache.NewStore(log, db)
	if err != nil {
		t.Fatalf("creating store: %s", err)
	}

	moduleBus := modulebus.NewCore(log, &moduleStore{})
	auditBus := auditbus.NewCore(log, &auditStore{})
	tenantBus := tenantbus.NewCore(log, moduleBus, auditBus, &tenantStore{})
	core := entbus.NewCore(log, moduleBus, tenantBus, cached)

	ctx := context.Background()
	check := entbus.AccessCheck{
		Role:   role.User,
		Module: modulekey.MustParse("crm"),
		Action: actions.Get,
	}

	if err := core.Check(ctx, check); err != nil {
		t.Fatalf("check before revocation: %s", err)
	}

	// The catalog drops the grant. Until the reload runs the warmed enforcer
	// would keep answering from the stale policy set.
	db.policies = nil

	if err := core.ReloadPolicies(ctx); err != nil {
		t.Fatalf("reload policies: %s", err)
	}

	if err := core.Check(ctx, check); !errors.Is(err, entbus.ErrAccessDenied) {
		t.Errorf("expected revoked permission to be denied, got %v", err)
	}
}
