package tenantapp

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/jcpaschoal/erp-exata/app/sdk/errs"
	"github.com/jcpaschoal/erp-exata/business/domain/auditbus"
	"github.com/jcpaschoal/erp-exata/business/domain/entbus"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/name"
	"github.com/jcpaschoal/erp-exata/business/types/phone"
	"github.com/jcpaschoal/erp-exata/business/types/plan"
	"github.com/jcpaschoal/erp-exata/business/types/slug"
)

// =============================================================================
// Tenant (Output)
// =============================================================================

// ModuleStatus is the per-module status view returned with a tenant.
type ModuleStatus struct {
	ModuleID    string `json:"moduleId"`
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Category    string `json:"category"`
	IsEnabled   bool   `json:"isEnabled"`
	EnabledAt   string `json:"enabledAt,omitempty"`
	DisabledAt  string `json:"disabledAt,omitempty"`
}

func toAppModuleStatus(bus []tenantbus.ModuleStatus) []ModuleStatus {
	app := make([]ModuleStatus, len(bus))
	for i, ms := range bus {
		var enabledAt, disabledAt string
		if ms.EnabledAt != nil {
			enabledAt = ms.EnabledAt.Format(time.RFC3339)
		}
		if ms.DisabledAt != nil {
			disabledAt = ms.DisabledAt.Format(time.RFC3339)
		}

		app[i] = ModuleStatus{
			ModuleID:    ms.ModuleID.String(),
			Key:         ms.Key.String(),
			DisplayName: ms.DisplayName,
			Category:    ms.Category,
			IsEnabled:   ms.IsEnabled,
			EnabledAt:   enabledAt,
			DisabledAt:  disabledAt,
		}
	}
	return app
}

// Tenant represents information about an individual tenant.
type Tenant struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Slug           string         `json:"slug"`
	ContactEmail   string         `json:"contactEmail"`
	ContactPhone   string         `json:"contactPhone,omitempty"`
	Plan           string         `json:"plan"`
	MaxUsers       int            `json:"maxUsers"`
	MaxServers     int            `json:"maxServers"`
	MaxStorageGB   int            `json:"maxStorageGb"`
	Enabled        bool           `json:"enabled"`
	EnabledModules []string       `json:"enabledModules,omitempty"`
	Modules        []ModuleStatus `json:"modules,omitempty"`
	DateCreated    string         `json:"dateCreated"`
	DateUpdated    string         `json:"dateUpdated"`
}

// Encode implements the web.Encoder interface.
func (t Tenant) Encode() ([]byte, string, error) {
	data, err := json.Marshal(t)
	return data, "application/json", err
}

func toAppTenant(bus tenantbus.Tenant, modules []tenantbus.ModuleStatus) Tenant {
	var contactPhone string
	if bus.ContactPhone.String() != "NULL" {
		contactPhone = bus.ContactPhone.String()
	}

	var enabledModules []string
	for _, ms := range modules {
		if ms.IsEnabled {
			enabledModules = append(enabledModules, ms.Key.String())
		}
	}

	return Tenant{
		ID:             bus.ID.String(),
		Name:           bus.Name.String(),
		Slug:           bus.Slug.String(),
		ContactEmail:   bus.ContactEmail.Address,
		ContactPhone:   contactPhone,
		Plan:           bus.Plan.String(),
		MaxUsers:       bus.MaxUsers,
		MaxServers:     bus.MaxServers,
		MaxStorageGB:   bus.MaxStorageGB,
		Enabled:        bus.Enabled,
		EnabledModules: enabledModules,
		Modules:        toAppModuleStatus(modules),
		DateCreated:    bus.CreatedAt.Format(time.RFC3339),
		DateUpdated:    bus.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppTenants(tenants []tenantbus.Tenant) []Tenant {
	app := make([]Tenant, len(tenants))
	for i, t := range tenants {
		app[i] = toAppTenant(t, nil)
	}
	return app
}

// =============================================================================
// NewTenant (Input)
// =============================================================================

// NewTenant defines the data needed to add a new tenant.
type NewTenant struct {
	Name         string   `json:"name" validate:"required"`
	Slug         string   `json:"slug" validate:"required"`
	ContactEmail string   `json:"contactEmail" validate:"required,email"`
	ContactPhone string   `json:"contactPhone"`
	Plan         string   `json:"plan"`
	MaxUsers     int      `json:"maxUsers" validate:"omitempty,gte=1"`
	MaxServers   int      `json:"maxServers" validate:"omitempty,gte=0"`
	MaxStorageGB int      `json:"maxStorageGb" validate:"omitempty,gte=1"`
	Modules      []string `json:"modules"`
}

// Decode implements the web.Decoder interface.
func (app *NewTenant) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewTenant) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

func toBusNewTenant(app NewTenant) (tenantbus.NewTenant, error) {
	nme, err := name.Parse(app.Name)
	if err != nil {
		return tenantbus.NewTenant{}, fmt.Errorf("parse name: %w", err)
	}

	slg, err := slug.Parse(app.Slug)
	if err != nil {
		return tenantbus.NewTenant{}, fmt.Errorf("parse slug: %w", err)
	}

	addr, err := mail.ParseAddress(app.ContactEmail)
	if err != nil {
		return tenantbus.NewTenant{}, fmt.Errorf("parse email: %w", err)
	}

	ph, err := phone.ParseNull(app.ContactPhone)
	if err != nil {
		return tenantbus.NewTenant{}, fmt.Errorf("parse phone: %w", err)
	}

	planValue := app.Plan
	if planValue == "" {
		planValue = "FREE"
	}

	pln, err := plan.Parse(planValue)
	if err != nil {
		return tenantbus.NewTenant{}, fmt.Errorf("parse plan: %w", err)
	}

	modules := make([]modulekey.ModuleKey, len(app.Modules))
	for i, m := range app.Modules {
		modules[i], err = modulekey.Parse(m)
		if err != nil {
			return tenantbus.NewTenant{}, fmt.Errorf("parse module key: %w", err)
		}
	}

	maxUsers := app.MaxUsers
	if maxUsers == 0 {
		maxUsers = 5
	}

	maxStorage := app.MaxStorageGB
	if maxStorage == 0 {
		maxStorage = 10
	}

	bus := tenantbus.NewTenant{
		Name:         nme,
		Slug:         slg,
		ContactEmail: *addr,
		ContactPhone: ph,
		Plan:         pln,
		MaxUsers:     maxUsers,
		MaxServers:   app.MaxServers,
		MaxStorageGB: maxStorage,
		Modules:      modules,
	}

	return bus, nil
}

// =============================================================================
// UpdateTenant (Input)
// =============================================================================

// UpdateTenant defines the data needed to update a tenant.
type UpdateTenant struct {
	Name         *string `json:"name"`
	ContactEmail *string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone *string `json:"contactPhone"`
	Plan         *string `json:"plan"`
	MaxUsers     *int    `json:"maxUsers" validate:"omitempty,gte=1"`
	MaxServers   *int    `json:"maxServers" validate:"omitempty,gte=0"`
	MaxStorageGB *int    `json:"maxStorageGb" validate:"omitempty,gte=1"`
	Enabled      *bool   `json:"enabled"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateTenant) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateTenant) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

func toBusUpdateTenant(app UpdateTenant) (tenantbus.UpdateTenant, error) {
	var bus tenantbus.UpdateTenant

	if app.Name != nil {
		nme, err := name.Parse(*app.Name)
		if err != nil {
			return tenantbus.UpdateTenant{}, fmt.Errorf("parse name: %w", err)
		}
		bus.Name = &nme
	}

	if app.ContactEmail != nil {
		addr, err := mail.ParseAddress(*app.ContactEmail)
		if err != nil {
			return tenantbus.UpdateTenant{}, fmt.Errorf("parse email: %w", err)
		}
		bus.ContactEmail = addr
	}

	if app.ContactPhone != nil {
		ph, err := phone.ParseNull(*app.ContactPhone)
		if err != nil {
			return tenantbus.UpdateTenant{}, fmt.Errorf("parse phone: %w", err)
		}
		bus.ContactPhone = &ph
	}

	if app.Plan != nil {
		pln, err := plan.Parse(*app.Plan)
		if err != nil {
			return tenantbus.UpdateTenant{}, fmt.Errorf("parse plan: %w", err)
		}
		bus.Plan = &pln
	}

	bus.MaxUsers = app.MaxUsers
	bus.MaxServers = app.MaxServers
	bus.MaxStorageGB = app.MaxStorageGB
	bus.Enabled = app.Enabled

	return bus, nil
}

// =============================================================================
// ToggleModule (Input)
// =============================================================================

// ToggleModule defines the data needed to flip one module for a tenant.
type ToggleModule struct {
	ModuleKey string `json:"moduleKey" validate:"required"`
	IsEnabled bool   `json:"isEnabled"`
	Reason    string `json:"reason"`
}

// Decode implements the web.Decoder interface.
func (app *ToggleModule) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app ToggleModule) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

// =============================================================================
// ReconcileModules (Input)
// =============================================================================

// ReconcileModules defines the full desired list of enabled module keys.
type ReconcileModules struct {
	Modules []string `json:"modules" validate:"required"`
}

// Decode implements the web.Decoder interface.
func (app *ReconcileModules) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app ReconcileModules) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

// =============================================================================
// History (Output)
// =============================================================================

// Transition is one audit entry of the entitlement history.
type Transition struct {
	ID          string `json:"id"`
	ModuleKey   string `json:"moduleKey"`
	DisplayName string `json:"displayName"`
	Action      string `json:"action"`
	Reason      string `json:"reason"`
	Actor       string `json:"actor"`
	CreatedAt   string `json:"createdAt"`
}

// History is the entitlement history of one tenant, most recent first.
type History []Transition

// Encode implements the web.Encoder interface.
func (h History) Encode() ([]byte, string, error) {
	data, err := json.Marshal(h)
	return data, "application/json", err
}

func toAppHistory(bus []auditbus.Transition) History {
	app := make(History, len(bus))
	for i, tr := range bus {
		app[i] = Transition{
			ID:          tr.ID.String(),
			ModuleKey:   tr.ModuleKey,
			DisplayName: tr.ModuleDisplayName,
			Action:      tr.Action,
			Reason:      tr.Reason,
			Actor:       tr.Actor,
			CreatedAt:   tr.CreatedAt.Format(time.RFC3339),
		}
	}
	return app
}

// =============================================================================
// Navigation (Output)
// =============================================================================

// NavModule is one navigation entry of the enabled-modules contract.
type NavModule struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"displayName"`
	Category    string   `json:"category"`
	Icon        string   `json:"icon"`
	Color       string   `json:"color"`
	Order       int      `json:"order"`
	Routes      []string `json:"routes"`
	Features    []string `json:"features"`
}

// Navigation is the ordered navigation contract for a tenant.
type Navigation []NavModule

// Encode implements the web.Encoder interface.
func (n Navigation) Encode() ([]byte, string, error) {
	data, err := json.Marshal(n)
	return data, "application/json", err
}

func toAppNavigation(bus []entbus.NavModule) Navigation {
	app := make(Navigation, len(bus))
	for i, nm := range bus {
		app[i] = NavModule{
			Key:         nm.Key.String(),
			DisplayName: nm.DisplayName,
			Category:    nm.Category,
			Icon:        nm.Icon,
			Color:       nm.Color,
			Order:       nm.Order,
			Routes:      nm.Routes,
			Features:    nm.Features,
		}
	}
	return app
}
