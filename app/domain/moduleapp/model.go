package moduleapp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jcpaschoal/erp-exata/app/sdk/errs"
	"github.com/jcpaschoal/erp-exata/business/domain/modulebus"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/types/actions"
	"github.com/jcpaschoal/erp-exata/business/types/category"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/name"
	"github.com/jcpaschoal/erp-exata/business/types/role"
)

// =============================================================================
// Module (Output)
// =============================================================================

// Feature represents one feature toggle of a module.
type Feature struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsEnabled   bool   `json:"isEnabled"`
}

// Permission maps an action to the roles allowed to perform it.
type Permission struct {
	Action string   `json:"action"`
	Roles  []string `json:"roles"`
}

// ModuleConfig holds the default configuration document of a module.
type ModuleConfig struct {
	DefaultSettings map[string]bool `json:"defaultSettings"`
}

// Module represents a catalog entry.
type Module struct {
	ID          string       `json:"id"`
	Key         string       `json:"key"`
	Name        string       `json:"name"`
	DisplayName string       `json:"displayName"`
	Description string       `json:"description"`
	Version     string       `json:"version"`
	Category    string       `json:"category"`
	IsCore      bool         `json:"isCore"`
	Icon        string       `json:"icon"`
	Color       string       `json:"color"`
	Order       int          `json:"order"`
	IsActive    bool         `json:"isActive"`
	Config      ModuleConfig `json:"config"`
	Features    []Feature    `json:"features"`
	Permissions []Permission `json:"permissions"`
	DateCreated string       `json:"dateCreated"`
	DateUpdated string       `json:"dateUpdated"`
}

// Encode implements the web.Encoder interface.
func (m Module) Encode() ([]byte, string, error) {
	data, err := json.Marshal(m)
	return data, "application/json", err
}

func toAppModule(bus modulebus.Module) Module {
	features := make([]Feature, len(bus.Features))
	for i, f := range bus.Features {
		features[i] = Feature{
			ID:          f.ID,
			Name:        f.Name,
			Description: f.Description,
			IsEnabled:   f.IsEnabled,
		}
	}

	permissions := make([]Permission, len(bus.Permissions))
	for i, p := range bus.Permissions {
		roles := make([]string, len(p.Roles))
		for j, r := range p.Roles {
			roles[j] = r.String()
		}
		permissions[i] = Permission{
			Action: p.Action.String(),
			Roles:  roles,
		}
	}

	return Module{
		ID:          bus.ID.String(),
		Key:         bus.Key.String(),
		Name:        bus.Name.String(),
		DisplayName: bus.DisplayName,
		Description: bus.Description,
		Version:     bus.Version,
		Category:    bus.Category.String(),
		IsCore:      bus.IsCore,
		Icon:        bus.Icon,
		Color:       bus.Color,
		Order:       bus.Order,
		IsActive:    bus.IsActive,
		Config:      ModuleConfig{DefaultSettings: bus.Config.DefaultSettings},
		Features:    features,
		Permissions: permissions,
		DateCreated: bus.CreatedAt.Format(time.RFC3339),
		DateUpdated: bus.UpdatedAt.Format(time.RFC3339),
	}
}

// Modules is the list form of the catalog.
type Modules []Module

// Encode implements the web.Encoder interface.
func (ms Modules) Encode() ([]byte, string, error) {
	data, err := json.Marshal(ms)
	return data, "application/json", err
}

func toAppModules(modules []modulebus.Module) Modules {
	app := make(Modules, len(modules))
	for i, m := range modules {
		app[i] = toAppModule(m)
	}
	return app
}

// =============================================================================
// UpsertModule (Input)
// =============================================================================

// UpsertModule defines the full module definition needed to provision a
// catalog entry.
type UpsertModule struct {
	Key         string       `json:"key" validate:"required"`
	Name        string       `json:"name" validate:"required"`
	DisplayName string       `json:"displayName" validate:"required"`
	Description string       `json:"description"`
	Version     string       `json:"version"`
	Category    string       `json:"category" validate:"required"`
	IsCore      bool         `json:"isCore"`
	Icon        string       `json:"icon"`
	Color       string       `json:"color"`
	Order       int          `json:"order"`
	IsActive    bool         `json:"isActive"`
	Config      ModuleConfig `json:"config"`
	Features    []Feature    `json:"features"`
	Permissions []Permission `json:"permissions"`
}

// Decode implements the web.Decoder interface.
func (app *UpsertModule) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpsertModule) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

func toBusUpsertModule(app UpsertModule) (modulebus.UpsertModule, error) {
	key, err := modulekey.Parse(app.Key)
	if err != nil {
		return modulebus.UpsertModule{}, fmt.Errorf("parse key: %w", err)
	}

	nme, err := name.Parse(app.Name)
	if err != nil {
		return modulebus.UpsertModule{}, fmt.Errorf("parse name: %w", err)
	}

	cat, err := category.Parse(app.Category)
	if err != nil {
		return modulebus.UpsertModule{}, fmt.Errorf("parse category: %w", err)
	}

	features := make([]modulebus.Feature, len(app.Features))
	for i, f := range app.Features {
		features[i] = modulebus.Feature{
			ID:          f.ID,
			Name:        f.Name,
			Description: f.Description,
			IsEnabled:   f.IsEnabled,
		}
	}

	permissions := make([]modulebus.Permission, len(app.Permissions))
	for i, p := range app.Permissions {
		act, err := actions.Parse(p.Action)
		if err != nil {
			return modulebus.UpsertModule{}, fmt.Errorf("parse action: %w", err)
		}

		roles := make([]role.Role, len(p.Roles))
		for j, r := range p.Roles {
			roles[j], err = role.Parse(r)
			if err != nil {
				return modulebus.UpsertModule{}, fmt.Errorf("parse role: %w", err)
			}
		}

		permissions[i] = modulebus.Permission{
			Action: act,
			Roles:  roles,
		}
	}

	version := app.Version
	if version == "" {
		version = "1.0.0"
	}

	bus := modulebus.UpsertModule{
		Key:         key,
		Name:        nme,
		DisplayName: app.DisplayName,
		Description: app.Description,
		Version:     version,
		Category:    cat,
		IsCore:      app.IsCore,
		Icon:        app.Icon,
		Color:       app.Color,
		Order:       app.Order,
		IsActive:    app.IsActive,
		Config:      modulebus.Config{DefaultSettings: app.Config.DefaultSettings},
		Features:    features,
		Permissions: permissions,
	}

	return bus, nil
}

// =============================================================================
// Usage (Output)
// =============================================================================

// TenantUsage reports one tenant that has a module enabled.
type TenantUsage struct {
	TenantID   string `json:"tenantId"`
	TenantName string `json:"tenantName"`
	TenantSlug string `json:"tenantSlug"`
	EnabledAt  string `json:"enabledAt,omitempty"`
	Reason     string `json:"reason"`
}

// Usage is the usage report of one module across tenants.
type Usage struct {
	ModuleKey string        `json:"moduleKey"`
	Total     int           `json:"total"`
	Tenants   []TenantUsage `json:"tenants"`
}

// Encode implements the web.Encoder interface.
func (u Usage) Encode() ([]byte, string, error) {
	data, err := json.Marshal(u)
	return data, "application/json", err
}

func toAppUsage(key modulekey.ModuleKey, bus []tenantbus.Usage) Usage {
	tenants := make([]TenantUsage, len(bus))
	for i, u := range bus {
		var enabledAt string
		if u.EnabledAt != nil {
			enabledAt = u.EnabledAt.Format(time.RFC3339)
		}

		tenants[i] = TenantUsage{
			TenantID:   u.TenantID.String(),
			TenantName: u.TenantName,
			TenantSlug: u.TenantSlug,
			EnabledAt:  enabledAt,
			Reason:     u.Reason,
		}
	}

	return Usage{
		ModuleKey: key.String(),
		Total:     len(tenants),
		Tenants:   tenants,
	}
}
