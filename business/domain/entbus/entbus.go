// Package entbus provides business access to module entitlement checks and
// the navigation contract derived from them.
package entbus

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/domain/modulebus"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/role"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
	"github.com/jcpaschoal/erp-exata/foundation/otel"
)

var (
	ErrAccessDenied   = errors.New("access denied")
	ErrModuleDisabled = errors.New("module not enabled for tenant")
)

// Storer defines the behavior required to evaluate and load policies.
type Storer interface {
	LoadPolicies(ctx context.Context) ([]Policy, error)
	Check(ctx context.Context, check AccessCheck) error
	Reload(ctx context.Context) error
}

// Core manages the set of APIs for entitlement access.
type Core struct {
	log       *logger.Logger
	storer    Storer
	moduleBus *modulebus.Core
	tenantBus *tenantbus.Core
}

// NewCore constructs a core for entitlement api access.
func NewCore(log *logger.Logger, moduleBus *modulebus.Core, tenantBus *tenantbus.Core, storer Storer) *Core {
	return &Core{
		log:       log,
		storer:    storer,
		moduleBus: moduleBus,
		tenantBus: tenantBus,
	}
}

// Check authorizes the role to perform the action against the module.
func (c *Core) Check(ctx context.Context, check AccessCheck) error {
	ctx, span := otel.AddSpan(ctx, "business.entbus.check")
	defer span.End()

	if err := c.storer.Check(ctx, check); err != nil {
		return fmt.Errorf("role[%s] module[%s] action[%s]: %w", check.Role, check.Module, check.Action, err)
	}

	return nil
}

// ReloadPolicies refreshes any cached policy state from the catalog. Callers
// mutating catalog permissions invoke this so revocations take effect without
// a restart.
func (c *Core) ReloadPolicies(ctx context.Context) error {
	ctx, span := otel.AddSpan(ctx, "business.entbus.reloadPolicies")
	defer span.End()

	if err := c.storer.Reload(ctx); err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	return nil
}

// Enabled reports whether the module is currently enabled for the tenant.
// A module with no link row counts as disabled.
func (c *Core) Enabled(ctx context.Context, tenantID uuid.UUID, key modulekey.ModuleKey) error {
	ctx, span := otel.AddSpan(ctx, "business.entbus.enabled")
	defer span.End()

	keys, err := c.tenantBus.EnabledModuleKeys(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("enabledModuleKeys: %w", err)
	}

	for _, k := range keys {
		if k.Equal(key) {
			return nil
		}
	}

	return fmt.Errorf("tenantID[%s] module[%s]: %w", tenantID, key, ErrModuleDisabled)
}

// QueryNavigation returns the navigation entries for the tenant filtered by
// what the role is allowed to see. Only active catalog entries with an
// enabled link are included, ordered by the catalog navigation order.
func (c *Core) QueryNavigation(ctx context.Context, tenantID uuid.UUID, r role.Role) ([]NavModule, error) {
	ctx, span := otel.AddSpan(ctx, "business.entbus.queryNavigation")
	defer span.End()

	keys, err := c.tenantBus.EnabledModuleKeys(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("enabledModuleKeys: %w", err)
	}

	enabled := make(map[string]bool, len(keys))
	for _, k := range keys {
		enabled[k.String()] = true
	}

	active := true
	modules, err := c.moduleBus.Query(ctx, modulebus.QueryFilter{IsActive: &active})
	if err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}

	var nav []NavModule
	for _, m := range modules {
		if !enabled[m.Key.String()] {
			continue
		}

		if !c.visible(ctx, r, m) {
			continue
		}

		nav = append(nav, toNavModule(m))
	}

	sort.SliceStable(nav, func(i, j int) bool {
		return nav[i].Order < nav[j].Order
	})

	return nav, nil
}

// visible reports whether the role can read the module. Modules without any
// declared permission are visible to everyone.
func (c *Core) visible(ctx context.Context, r role.Role, m modulebus.Module) bool {
	if len(m.Permissions) == 0 {
		return true
	}

	for _, p := range m.Permissions {
		check := AccessCheck{
			Role:   r,
			Module: m.Key,
			Action: p.Action,
		}

		if err := c.storer.Check(ctx, check); err == nil {
			return true
		}
	}

	return false
}

func toNavModule(m modulebus.Module) NavModule {
	routes := []string{"/" + m.Key.String()}
	var features []string

	for _, f := range m.Features {
		if !f.IsEnabled {
			continue
		}

		features = append(features, f.ID)
		routes = append(routes, "/"+m.Key.String()+"/"+f.ID)
	}

	return NavModule{
		Key:         m.Key,
		DisplayName: m.DisplayName,
		Category:    m.Category.String(),
		Icon:        m.Icon,
		Color:       m.Color,
		Order:       m.Order,
		Routes:      routes,
		Features:    features,
	}
}
