// Package tenantbus provides business access to tenants and the set of
// modules enabled for each tenant.
package tenantbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/domain/auditbus"
	"github.com/jcpaschoal/erp-exata/business/domain/modulebus"
	"github.com/jcpaschoal/erp-exata/business/sdk/order"
	"github.com/jcpaschoal/erp-exata/business/sdk/page"
	"github.com/jcpaschoal/erp-exata/business/sdk/sqldb"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
	"github.com/jcpaschoal/erp-exata/foundation/otel"
)

var (
	ErrNotFound          = errors.New("tenant not found")
	ErrModuleNotFound    = errors.New("module not found")
	ErrUniqueSlug        = errors.New("slug is not unique")
	ErrHasAssociatedData = errors.New("tenant has associated data")
)

// The set of reasons recorded on entitlement transitions.
const (
	ReasonTenantCreation  = "enabled during tenant creation"
	ReasonEnabledByAdmin  = "enabled by administrator"
	ReasonDisabledByAdmin = "disabled by administrator"
)

// Storer defines the behavior required by the tenantbus to interact with the
// database.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)

	Create(ctx context.Context, t Tenant) error
	Update(ctx context.Context, t Tenant) error
	Delete(ctx context.Context, t Tenant) error
	Query(ctx context.Context, filter QueryFilter, orderBy order.By, page page.Page) ([]Tenant, error)
	Count(ctx context.Context, filter QueryFilter) (int, error)
	QueryByID(ctx context.Context, tenantID uuid.UUID) (Tenant, error)
	QueryIDBySlug(ctx context.Context, slug string) (uuid.UUID, error)

	CountDependents(ctx context.Context, tenantID uuid.UUID) (Dependents, error)

	UpsertModuleLink(ctx context.Context, tm TenantModule) error
	QueryModuleLinks(ctx context.Context, tenantID uuid.UUID) ([]TenantModule, error)
	QueryModuleStatus(ctx context.Context, tenantID uuid.UUID) ([]ModuleStatus, error)
	QueryTenantsByModule(ctx context.Context, moduleID uuid.UUID) ([]Usage, error)
	DeleteModuleLinks(ctx context.Context, tenantID uuid.UUID) error
}

// Core manages the set of APIs for tenant access.
type Core struct {
	storer    Storer
	moduleBus *modulebus.Core
	auditBus  *auditbus.Core
	log       *logger.Logger
}

// NewCore constructs a core for tenant api access.
func NewCore(log *logger.Logger, moduleBus *modulebus.Core, auditBus *auditbus.Core, storer Storer) *Core {
	return &Core{
		storer:    storer,
		moduleBus: moduleBus,
		auditBus:  auditBus,
		log:       log,
	}
}

// NewWithTx constructs a new Core value replacing the Storer
// value with a Storer value that is currently inside a transaction.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newWithTx: %w", err)
	}

	moduleBus, err := c.moduleBus.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newWithTx: %w", err)
	}

	auditBus, err := c.auditBus.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newWithTx: %w", err)
	}

	return NewCore(c.log, moduleBus, auditBus, storer), nil
}

// Create adds a new tenant to the system and enables the modules requested
// at provisioning time.
func (c *Core) Create(ctx context.Context, nt NewTenant, actor string) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.create")
	defer span.End()

	now := time.Now()

	t := Tenant{
		ID:           uuid.New(),
		Name:         nt.Name,
		Slug:         nt.Slug,
		ContactEmail: nt.ContactEmail,
		ContactPhone: nt.ContactPhone,
		Plan:         nt.Plan,
		MaxUsers:     nt.MaxUsers,
		MaxServers:   nt.MaxServers,
		MaxStorageGB: nt.MaxStorageGB,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := c.storer.Create(ctx, t); err != nil {
		return Tenant{}, fmt.Errorf("create: %w", err)
	}

	if len(nt.Modules) > 0 {
		if err := c.EnableModules(ctx, t.ID, nt.Modules, ReasonTenantCreation, actor); err != nil {
			return Tenant{}, fmt.Errorf("enable modules: %w", err)
		}
	}

	return t, nil
}

// Update modifies data about a tenant.
func (c *Core) Update(ctx context.Context, t Tenant, ut UpdateTenant) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.update")
	defer span.End()

	if ut.Name != nil {
		t.Name = *ut.Name
	}

	if ut.ContactEmail != nil {
		t.ContactEmail = *ut.ContactEmail
	}

	if ut.ContactPhone != nil {
		t.ContactPhone = *ut.ContactPhone
	}

	if ut.Plan != nil {
		t.Plan = *ut.Plan
	}

	if ut.MaxUsers != nil {
		t.MaxUsers = *ut.MaxUsers
	}

	if ut.MaxServers != nil {
		t.MaxServers = *ut.MaxServers
	}

	if ut.MaxStorageGB != nil {
		t.MaxStorageGB = *ut.MaxStorageGB
	}

	if ut.Enabled != nil {
		t.Enabled = *ut.Enabled
	}

	t.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, t); err != nil {
		return Tenant{}, fmt.Errorf("update: %w", err)
	}

	return t, nil
}

// Delete removes the specified tenant from the system. The delete is refused
// while any dependent record exists. On success the module links are removed
// together with the tenant row.
func (c *Core) Delete(ctx context.Context, t Tenant) error {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.delete")
	defer span.End()

	deps, err := c.storer.CountDependents(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("countDependents: %w", err)
	}

	if deps.Total() > 0 {
		return fmt.Errorf("tenantID[%s]: %d dependent records: %w", t.ID, deps.Total(), ErrHasAssociatedData)
	}

	if err := c.storer.DeleteModuleLinks(ctx, t.ID); err != nil {
		return fmt.Errorf("deleteModuleLinks: %w", err)
	}

	if err := c.storer.Delete(ctx, t); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Query retrieves a list of existing tenants.
func (c *Core) Query(ctx context.Context, filter QueryFilter, orderBy order.By, page page.Page) ([]Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.query")
	defer span.End()

	tenants, err := c.storer.Query(ctx, filter, orderBy, page)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return tenants, nil
}

// Count returns the total number of tenants.
func (c *Core) Count(ctx context.Context, filter QueryFilter) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.count")
	defer span.End()

	return c.storer.Count(ctx, filter)
}

// QueryByID finds the tenant by the specified ID.
func (c *Core) QueryByID(ctx context.Context, tenantID uuid.UUID) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.queryByID")
	defer span.End()

	tenant, err := c.storer.QueryByID(ctx, tenantID)
	if err != nil {
		return Tenant{}, fmt.Errorf("query: tenantID[%s]: %w", tenantID, err)
	}

	return tenant, nil
}

// QueryIDBySlug returns the tenant ID for the specified slug string.
func (c *Core) QueryIDBySlug(ctx context.Context, slug string) (uuid.UUID, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.queryIDBySlug")
	defer span.End()

	id, err := c.storer.QueryIDBySlug(ctx, slug)
	if err != nil {
		return uuid.Nil, fmt.Errorf("query by slug[%s]: %w", slug, err)
	}

	return id, nil
}

// QueryModuleStatus returns the per-module status list for a tenant, ordered
// by the catalog navigation order.
func (c *Core) QueryModuleStatus(ctx context.Context, tenantID uuid.UUID) ([]ModuleStatus, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.queryModuleStatus")
	defer span.End()

	status, err := c.storer.QueryModuleStatus(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("queryModuleStatus: tenantID[%s]: %w", tenantID, err)
	}

	return status, nil
}

// EnabledModuleKeys returns the keys of the modules currently enabled for the
// tenant. The set is re-derived from the store on every call.
func (c *Core) EnabledModuleKeys(ctx context.Context, tenantID uuid.UUID) ([]modulekey.ModuleKey, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.enabledModuleKeys")
	defer span.End()

	status, err := c.storer.QueryModuleStatus(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("queryModuleStatus: tenantID[%s]: %w", tenantID, err)
	}

	var keys []modulekey.ModuleKey
	for _, ms := range status {
		if ms.IsEnabled {
			keys = append(keys, ms.Key)
		}
	}

	return keys, nil
}

// ToggleModule enables or disables a single module for a tenant. The write is
// a single upsert against the link table so two concurrent toggles for the
// same pair cannot produce duplicate rows. Every transition is appended to
// the audit log.
func (c *Core) ToggleModule(ctx context.Context, tenantID uuid.UUID, key modulekey.ModuleKey, enabled bool, reason string, actor string) (TenantModule, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.toggleModule")
	defer span.End()

	module, err := c.moduleBus.QueryByKey(ctx, key)
	if err != nil {
		if errors.Is(err, modulebus.ErrNotFound) {
			return TenantModule{}, fmt.Errorf("key[%s]: %w", key, ErrModuleNotFound)
		}
		return TenantModule{}, fmt.Errorf("queryByKey: key[%s]: %w", key, err)
	}

	now := time.Now()

	tm := TenantModule{
		TenantID:  tenantID,
		ModuleID:  module.ID,
		ModuleKey: key,
		Enabled:   enabled,
		Reason:    reason,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The timestamps are mutually exclusive. Only the one matching the
	// current state is set, the other is cleared.
	if enabled {
		tm.EnabledAt = &now
	} else {
		tm.DisabledAt = &now
	}

	if err := c.storer.UpsertModuleLink(ctx, tm); err != nil {
		return TenantModule{}, fmt.Errorf("upsertModuleLink: %w", err)
	}

	action := auditbus.ActionDisabled
	if enabled {
		action = auditbus.ActionEnabled
	}

	ne := auditbus.NewEntry{
		TenantID: tenantID,
		ModuleID: module.ID,
		Action:   action,
		Reason:   reason,
		Actor:    actor,
	}

	if _, err := c.auditBus.Append(ctx, ne); err != nil {
		return TenantModule{}, fmt.Errorf("audit append: %w", err)
	}

	return tm, nil
}

// EnableModules enables the specified modules in the order given. A failing
// toggle aborts the remaining ones, toggles already applied stay applied.
func (c *Core) EnableModules(ctx context.Context, tenantID uuid.UUID, keys []modulekey.ModuleKey, reason string, actor string) error {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.enableModules")
	defer span.End()

	for _, key := range keys {
		if _, err := c.ToggleModule(ctx, tenantID, key, true, reason, actor); err != nil {
			return fmt.Errorf("toggle: key[%s]: %w", key, err)
		}
	}

	return nil
}

// UpdateModules reconciles the full link set against the desired list of
// enabled keys. Links whose state differs are flipped, desired keys without a
// link are created. The operation is idempotent and safe to re-run, callers
// run it inside a transaction for atomicity.
func (c *Core) UpdateModules(ctx context.Context, tenantID uuid.UUID, desired []modulekey.ModuleKey, actor string) error {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.updateModules")
	defer span.End()

	links, err := c.storer.QueryModuleLinks(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("queryModuleLinks: %w", err)
	}

	desiredSet := make(map[string]bool, len(desired))
	for _, key := range desired {
		desiredSet[key.String()] = true
	}

	linked := make(map[string]bool, len(links))
	for _, link := range links {
		linked[link.ModuleKey.String()] = true

		wantEnabled := desiredSet[link.ModuleKey.String()]
		if link.Enabled == wantEnabled {
			continue
		}

		reason := ReasonDisabledByAdmin
		if wantEnabled {
			reason = ReasonEnabledByAdmin
		}

		if _, err := c.ToggleModule(ctx, tenantID, link.ModuleKey, wantEnabled, reason, actor); err != nil {
			return fmt.Errorf("toggle: key[%s]: %w", link.ModuleKey, err)
		}
	}

	for _, key := range desired {
		if linked[key.String()] {
			continue
		}

		if _, err := c.ToggleModule(ctx, tenantID, key, true, ReasonEnabledByAdmin, actor); err != nil {
			return fmt.Errorf("toggle: key[%s]: %w", key, err)
		}
	}

	return nil
}

// QueryTenantsByModule returns the tenants that currently have the specified
// module enabled, with the enable timestamp and reason.
func (c *Core) QueryTenantsByModule(ctx context.Context, key modulekey.ModuleKey) ([]Usage, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.queryTenantsByModule")
	defer span.End()

	module, err := c.moduleBus.QueryByKey(ctx, key)
	if err != nil {
		if errors.Is(err, modulebus.ErrNotFound) {
			return nil, fmt.Errorf("key[%s]: %w", key, ErrModuleNotFound)
		}
		return nil, fmt.Errorf("queryByKey: key[%s]: %w", key, err)
	}

	usage, err := c.storer.QueryTenantsByModule(ctx, module.ID)
	if err != nil {
		return nil, fmt.Errorf("queryTenantsByModule: %w", err)
	}

	return usage, nil
}

// QueryModuleHistory returns the audit trail of entitlement transitions for
// the tenant, most recent first.
func (c *Core) QueryModuleHistory(ctx context.Context, tenantID uuid.UUID) ([]auditbus.Transition, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.queryModuleHistory")
	defer span.End()

	transitions, err := c.auditBus.QueryByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("queryByTenant: %w", err)
	}

	return transitions, nil
}
