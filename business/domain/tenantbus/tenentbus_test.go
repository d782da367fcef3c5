package tenantbus_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/domain/auditbus"
	"github.com/jcpaschoal/erp-exata/business/domain/modulebus"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/order"
	"github.com/jcpaschoal/erp-exata/business/sdk/page"
	"github.com/jcpaschoal/erp-exata/business/sdk/sqldb"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/name"
	"github.com/jcpaschoal/erp-exata/business/types/plan"
	"github.com/jcpaschoal/erp-exata/business/types/slug"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
)

// =============================================================================
// Fakes

type moduleStore struct {
	modules map[string]modulebus.Module
}

func (s *moduleStore) NewWithTx(tx sqldb.CommitRollbacker) (modulebus.Storer, error) {
	return s, nil
}

func (s *moduleStore) Upsert(ctx context.Context, m modulebus.Module) (modulebus.Module, error) {
	if existing, ok := s.modules[m.Key.String()]; ok {
		m.ID = existing.ID
		m.CreatedAt = existing.CreatedAt
	}
	s.modules[m.Key.String()] = m
	return m, nil
}

func (s *moduleStore) Query(ctx context.Context, filter modulebus.QueryFilter) ([]modulebus.Module, error) {
	var ms []modulebus.Module
	for _, m := range s.modules {
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].Order < ms[j].Order })
	return ms, nil
}

func (s *moduleStore) QueryByKey(ctx context.Context, key modulekey.ModuleKey) (modulebus.Module, error) {
	m, ok := s.modules[key.String()]
	if !ok {
		return modulebus.Module{}, fmt.Errorf("key[%s]: %w", key, modulebus.ErrNotFound)
	}
	return m, nil
}

type auditStore struct {
	entries []auditbus.Entry
}

func (s *auditStore) NewWithTx(tx sqldb.CommitRollbacker) (auditbus.Storer, error) {
	return s, nil
}

func (s *auditStore) Create(ctx context.Context, e auditbus.Entry) error {
	s.entries = append(s.entries, e)
	return nil
}

func (s *auditStore) QueryByTenant(ctx context.Context, tenantID uuid.UUID) ([]auditbus.Transition, error) {
	var trs []auditbus.Transition
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].TenantID == tenantID {
			trs = append(trs, auditbus.Transition{Entry: s.entries[i]})
		}
	}
	return trs, nil
}

type tenantStore struct {
	catalog    *moduleStore
	audit      *auditStore
	tenants    map[uuid.UUID]tenantbus.Tenant
	links      map[string]tenantbus.TenantModule
	dependents tenantbus.Dependents
}

func linkKey(tenantID, moduleID uuid.UUID) string {
	return tenantID.String() + "/" + moduleID.String()
}

func (s *tenantStore) NewWithTx(tx sqldb.CommitRollbacker) (tenantbus.Storer, error) {
	return s, nil
}

func (s *tenantStore) Create(ctx context.Context, t tenantbus.Tenant) error {
	s.tenants[t.ID] = t
	return nil
}

func (s *tenantStore) Update(ctx context.Context, t tenantbus.Tenant) error {
	s.tenants[t.ID] = t
	return nil
}

func (s *tenantStore) Delete(ctx context.Context, t tenantbus.Tenant) error {
	// The schema refuses the delete while link rows still reference the
	// tenant and cascades the audit trail with the tenant row.
	for _, link := range s.links {
		if link.TenantID == t.ID {
			return fmt.Errorf("tenant_module rows still reference tenant %s", t.ID)
		}
	}

	var kept []auditbus.Entry
	for _, e := range s.audit.entries {
		if e.TenantID != t.ID {
			kept = append(kept, e)
		}
	}
	s.audit.entries = kept

	delete(s.tenants, t.ID)
	return nil
}

func (s *tenantStore) Query(ctx context.Context, filter tenantbus.QueryFilter, orderBy order.By, page page.Page) ([]tenantbus.Tenant, error) {
	var ts []tenantbus.Tenant
	for _, t := range s.tenants {
		ts = append(ts, t)
	}
	return ts, nil
}

func (s *tenantStore) Count(ctx context.Context, filter tenantbus.QueryFilter) (int, error) {
	return len(s.tenants), nil
}

func (s *tenantStore) QueryByID(ctx context.Context, tenantID uuid.UUID) (tenantbus.Tenant, error) {
	t, ok := s.tenants[tenantID]
	if !ok {
		return tenantbus.Tenant{}, tenantbus.ErrNotFound
	}
	return t, nil
}

func (s *tenantStore) QueryIDBySlug(ctx context.Context, slug string) (uuid.UUID, error) {
	for _, t := range s.tenants {
		if t.Slug.String() == slug {
			return t.ID, nil
		}
	}
	return uuid.Nil, tenantbus.ErrNotFound
}

func (s *tenantStore) CountDependents(ctx context.Context, tenantID uuid.UUID) (tenantbus.Dependents, error) {
	return s.dependents, nil
}

func (s *tenantStore) UpsertModuleLink(ctx context.Context, tm tenantbus.TenantModule) error {
	key := linkKey(tm.TenantID, tm.ModuleID)
	if existing, ok := s.links[key]; ok {
		// The update branch keeps config and created_at, the timestamps
		// mirror the incoming state.
		tm.Config = existing.Config
		tm.CreatedAt = existing.CreatedAt
	}
	s.links[key] = tm
	return nil
}

func (s *tenantStore) QueryModuleLinks(ctx context.Context, tenantID uuid.UUID) ([]tenantbus.TenantModule, error) {
	var links []tenantbus.TenantModule
	for _, link := range s.links {
		if link.TenantID == tenantID {
			links = append(links, link)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ModuleKey.String() < links[j].ModuleKey.String() })
	return links, nil
}

func (s *tenantStore) QueryModuleStatus(ctx context.Context, tenantID uuid.UUID) ([]tenantbus.ModuleStatus, error) {
	modules, _ := s.catalog.Query(ctx, modulebus.QueryFilter{})

	var status []tenantbus.ModuleStatus
	for _, m := range modules {
		ms := tenantbus.ModuleStatus{
			ModuleID:    m.ID,
			Key:         m.Key,
			DisplayName: m.DisplayName,
			Category:    m.Category.String(),
		}

		if link, ok := s.links[linkKey(tenantID, m.ID)]; ok {
			ms.IsEnabled = link.Enabled
			ms.EnabledAt = link.EnabledAt
			ms.DisabledAt = link.DisabledAt
		}

		status = append(status, ms)
	}
	return status, nil
}

func (s *tenantStore) QueryTenantsByModule(ctx context.Context, moduleID uuid.UUID) ([]tenantbus.Usage, error) {
	var usage []tenantbus.Usage
	for _, link := range s.links {
		if link.ModuleID != moduleID || !link.Enabled {
			continue
		}
		t := s.tenants[link.TenantID]
		usage = append(usage, tenantbus.Usage{
			TenantID:   t.ID,
			TenantName: t.Name.String(),
			TenantSlug: t.Slug.String(),
			EnabledAt:  link.EnabledAt,
			Reason:     link.Reason,
		})
	}
	return usage, nil
}

func (s *tenantStore) DeleteModuleLinks(ctx context.Context, tenantID uuid.UUID) error {
	for key, link := range s.links {
		if link.TenantID == tenantID {
			delete(s.links, key)
		}
	}
	return nil
}

// =============================================================================

func newTestCore(t *testing.T) (*tenantbus.Core, *tenantStore, *auditStore) {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	catalog := &moduleStore{modules: make(map[string]modulebus.Module)}
	for i, key := range []string{"dashboard", "crm", "billing", "reports"} {
		catalog.modules[key] = modulebus.Module{
			ID:          uuid.New(),
			Key:         modulekey.MustParse(key),
			DisplayName: key,
			Order:       i,
			IsActive:    true,
		}
	}

	audit := &auditStore{}
	store := &tenantStore{
		catalog: catalog,
		audit:   audit,
		tenants: make(map[uuid.UUID]tenantbus.Tenant),
		links:   make(map[string]tenantbus.TenantModule),
	}

	moduleBus := modulebus.NewCore(log, catalog)
	auditBus := auditbus.NewCore(log, audit)

	return tenantbus.NewCore(log, moduleBus, auditBus, store), store, audit
}

func newTestTenant(t *testing.T, core *tenantbus.Core, modules ...string) tenantbus.Tenant {
	t.Helper()

	keys := make([]modulekey.ModuleKey, len(modules))
	for i, m := range modules {
		keys[i] = modulekey.MustParse(m)
	}

	nt := tenantbus.NewTenant{
		Name:         name.MustParse("Acme Corp"),
		Slug:         slug.MustParse("acme"),
		ContactEmail: mail.Address{Address: "admin@acme.com"},
		Plan:         plan.Pro,
		MaxUsers:     5,
		MaxStorageGB: 10,
		Modules:      keys,
	}

	tnt, err := core.Create(context.Background(), nt, "tester")
	if err != nil {
		t.Fatalf("creating tenant: %s", err)
	}

	return tnt
}

func enabledKeys(t *testing.T, core *tenantbus.Core, tenantID uuid.UUID) []string {
	t.Helper()

	keys, err := core.EnabledModuleKeys(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("enabled module keys: %s", err)
	}

	strs := make([]string, len(keys))
	for i, k := range keys {
		strs[i] = k.String()
	}
	sort.Strings(strs)
	return strs
}

func Test_CreateEnablesModules(t *testing.T) {
	core, _, audit := newTestCore(t)
	tnt := newTestTenant(t, core, "dashboard", "crm")

	got := enabledKeys(t, core, tnt.ID)
	want := []string{"crm", "dashboard"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("enabled keys mismatch (-want +got):\n%s", diff)
	}

	if len(audit.entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(audit.entries))
	}
	for _, e := range audit.entries {
		if e.Action != auditbus.ActionEnabled {
			t.Errorf("expected action %q, got %q", auditbus.ActionEnabled, e.Action)
		}
		if e.Reason != tenantbus.ReasonTenantCreation {
			t.Errorf("expected reason %q, got %q", tenantbus.ReasonTenantCreation, e.Reason)
		}
	}
}

func Test_ToggleModuleSingleLink(t *testing.T) {
	core, store, _ := newTestCore(t)
	tnt := newTestTenant(t, core)
	ctx := context.Background()
	key := modulekey.MustParse("billing")

	for range 3 {
		if _, err := core.ToggleModule(ctx, tnt.ID, key, true, "retry", "tester"); err != nil {
			t.Fatalf("toggle: %s", err)
		}
	}

	links, err := store.QueryModuleLinks(ctx, tnt.ID)
	if err != nil {
		t.Fatalf("query links: %s", err)
	}

	if len(links) != 1 {
		t.Fatalf("expected a single link after repeated toggles, got %d", len(links))
	}
	if !links[0].Enabled {
		t.Error("expected link to be enabled")
	}
}

func Test_ToggleModuleDisable(t *testing.T) {
	core, store, audit := newTestCore(t)
	tnt := newTestTenant(t, core, "dashboard", "billing")
	ctx := context.Background()

	tm, err := core.ToggleModule(ctx, tnt.ID, modulekey.MustParse("billing"), false, tenantbus.ReasonDisabledByAdmin, "tester")
	if err != nil {
		t.Fatalf("toggle: %s", err)
	}

	if tm.DisabledAt == nil {
		t.Error("expected DisabledAt to be set")
	}
	if tm.EnabledAt != nil {
		t.Error("expected EnabledAt to be nil on the disable write")
	}

	got := enabledKeys(t, core, tnt.ID)
	want := []string{"dashboard"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("enabled keys mismatch (-want +got):\n%s", diff)
	}

	// The stored row mirrors the state, only one timestamp is non-nil.
	links, _ := store.QueryModuleLinks(ctx, tnt.ID)
	for _, link := range links {
		if link.ModuleKey.String() != "billing" {
			continue
		}
		if link.EnabledAt != nil {
			t.Error("expected EnabledAt to be cleared on the stored link")
		}
		if link.DisabledAt == nil {
			t.Error("expected DisabledAt to be set on the stored link")
		}
	}

	last := audit.entries[len(audit.entries)-1]
	if last.Action != auditbus.ActionDisabled {
		t.Errorf("expected action %q, got %q", auditbus.ActionDisabled, last.Action)
	}

	// Re-enabling flips the timestamps back.
	if _, err := core.ToggleModule(ctx, tnt.ID, modulekey.MustParse("billing"), true, tenantbus.ReasonEnabledByAdmin, "tester"); err != nil {
		t.Fatalf("toggle: %s", err)
	}

	links, _ = store.QueryModuleLinks(ctx, tnt.ID)
	for _, link := range links {
		if link.ModuleKey.String() != "billing" {
			continue
		}
		if link.EnabledAt == nil || link.DisabledAt != nil {
			t.Error("expected the re-enable to set EnabledAt and clear DisabledAt")
		}
	}
}

func Test_ToggleModuleUnknownKey(t *testing.T) {
	core, _, _ := newTestCore(t)
	tnt := newTestTenant(t, core)

	_, err := core.ToggleModule(context.Background(), tnt.ID, modulekey.MustParse("payroll"), true, "r", "tester")
	if err == nil {
		t.Fatal("expected an error for an unknown module key")
	}
	if !errors.Is(err, tenantbus.ErrModuleNotFound) {
		t.Errorf("expected ErrModuleNotFound, got %s", err)
	}
}

func Test_UpdateModulesConverges(t *testing.T) {
	core, _, audit := newTestCore(t)
	tnt := newTestTenant(t, core, "dashboard", "crm")
	ctx := context.Background()

	desired := []modulekey.ModuleKey{
		modulekey.MustParse("dashboard"),
		modulekey.MustParse("billing"),
	}

	if err := core.UpdateModules(ctx, tnt.ID, desired, "tester"); err != nil {
		t.Fatalf("update modules: %s", err)
	}

	got := enabledKeys(t, core, tnt.ID)
	want := []string{"billing", "dashboard"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("enabled keys mismatch (-want +got):\n%s", diff)
	}

	// Two creation entries plus one disable (crm) and one enable (billing).
	if len(audit.entries) != 4 {
		t.Fatalf("expected 4 audit entries, got %d", len(audit.entries))
	}

	// Re-running with the same desired set must not write new transitions.
	if err := core.UpdateModules(ctx, tnt.ID, desired, "tester"); err != nil {
		t.Fatalf("update modules again: %s", err)
	}
	if len(audit.entries) != 4 {
		t.Fatalf("expected reconcile to be idempotent, got %d entries", len(audit.entries))
	}
}

func Test_DeleteBlockedByDependents(t *testing.T) {
	core, store, _ := newTestCore(t)
	tnt := newTestTenant(t, core, "dashboard")

	store.dependents = tenantbus.Dependents{Users: 2, Orders: 1}

	err := core.Delete(context.Background(), tnt)
	if err == nil {
		t.Fatal("expected delete to be refused")
	}
	if !errors.Is(err, tenantbus.ErrHasAssociatedData) {
		t.Errorf("expected ErrHasAssociatedData, got %s", err)
	}

	if _, err := core.QueryByID(context.Background(), tnt.ID); err != nil {
		t.Errorf("expected tenant to still exist: %s", err)
	}
}

func Test_DeleteRemovesLinks(t *testing.T) {
	core, store, _ := newTestCore(t)
	tnt := newTestTenant(t, core, "dashboard", "crm")
	ctx := context.Background()

	if err := core.Delete(ctx, tnt); err != nil {
		t.Fatalf("delete: %s", err)
	}

	if len(store.links) != 0 {
		t.Errorf("expected all links removed, got %d", len(store.links))
	}
	if _, err := core.QueryByID(ctx, tnt.ID); !errors.Is(err, tenantbus.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %s", err)
	}
}

func Test_DeleteCascadesAuditTrail(t *testing.T) {
	core, _, audit := newTestCore(t)
	tnt := newTestTenant(t, core, "dashboard", "crm")
	ctx := context.Background()

	if len(audit.entries) == 0 {
		t.Fatal("expected provisioning to write audit entries")
	}

	// The audit trail references the tenant, the delete must still succeed
	// with zero dependent records and take the trail down with the row.
	if err := core.Delete(ctx, tnt); err != nil {
		t.Fatalf("delete: %s", err)
	}

	for _, e := range audit.entries {
		if e.TenantID == tnt.ID {
			t.Error("expected the audit trail to be removed with the tenant")
		}
	}
}

func Test_QueryTenantsByModule(t *testing.T) {
	core, _, _ := newTestCore(t)
	tnt := newTestTenant(t, core, "dashboard", "crm")
	ctx := context.Background()

	usage, err := core.QueryTenantsByModule(ctx, modulekey.MustParse("crm"))
	if err != nil {
		t.Fatalf("query tenants by module: %s", err)
	}

	if len(usage) != 1 {
		t.Fatalf("expected 1 tenant, got %d", len(usage))
	}
	if usage[0].TenantID != tnt.ID {
		t.Errorf("expected tenant %s, got %s", tnt.ID, usage[0].TenantID)
	}

	usage, err = core.QueryTenantsByModule(ctx, modulekey.MustParse("billing"))
	if err != nil {
		t.Fatalf("query tenants by module: %s", err)
	}
	if len(usage) != 0 {
		t.Errorf("expected no tenants for billing, got %d", len(usage))
	}
}

func Test_QueryModuleHistoryOrder(t *testing.T) {
	core, _, _ := newTestCore(t)
	tnt := newTestTenant(t, core)
	ctx := context.Background()
	key := modulekey.MustParse("crm")

	if _, err := core.ToggleModule(ctx, tnt.ID, key, true, "first", "tester"); err != nil {
		t.Fatalf("toggle: %s", err)
	}
	if _, err := core.ToggleModule(ctx, tnt.ID, key, false, "second", "tester"); err != nil {
		t.Fatalf("toggle: %s", err)
	}
	if _, err := core.ToggleModule(ctx, tnt.ID, key, true, "third", "tester"); err != nil {
		t.Fatalf("toggle: %s", err)
	}

	trs, err := core.QueryModuleHistory(ctx, tnt.ID)
	if err != nil {
		t.Fatalf("query history: %s", err)
	}

	if len(trs) != 3 {
		t.Fatalf("expected 3 transitions, got %d", len(trs))
	}

	want := []string{"third", "second", "first"}
	for i, tr := range trs {
		if tr.Reason != want[i] {
			t.Errorf("transition %d: expected reason %q, got %q", i, want[i], tr.Reason)
		}
	}
}
