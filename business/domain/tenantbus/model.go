package tenantbus

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/name"
	"github.com/jcpaschoal/erp-exata/business/types/phone"
	"github.com/jcpaschoal/erp-exata/business/types/plan"
	"github.com/jcpaschoal/erp-exata/business/types/slug"
)

// Tenant represents a client organization or workspace in the system.
type Tenant struct {
	ID           uuid.UUID
	Name         name.Name
	Slug         slug.Slug
	ContactEmail mail.Address
	ContactPhone phone.Null
	Plan         plan.Plan
	MaxUsers     int
	MaxServers   int
	MaxStorageGB int
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewTenant contains information needed to create a new tenant.
type NewTenant struct {
	Name         name.Name
	Slug         slug.Slug
	ContactEmail mail.Address
	ContactPhone phone.Null
	Plan         plan.Plan
	MaxUsers     int
	MaxServers   int
	MaxStorageGB int

	// Modules enabled as part of provisioning.
	Modules []modulekey.ModuleKey
}

// UpdateTenant contains information needed to update a tenant.
type UpdateTenant struct {
	Name         *name.Name
	ContactEmail *mail.Address
	ContactPhone *phone.Null
	Plan         *plan.Plan
	MaxUsers     *int
	MaxServers   *int
	MaxStorageGB *int
	Enabled      *bool
}

// TenantModule represents the link between one tenant and one module. At most
// one row exists per (tenant, module) pair, enforced by a unique constraint.
type TenantModule struct {
	TenantID   uuid.UUID
	ModuleID   uuid.UUID
	ModuleKey  modulekey.ModuleKey
	Enabled    bool
	EnabledAt  *time.Time
	DisabledAt *time.Time
	Reason     string
	Config     map[string]bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ModuleStatus is the per-module status view returned with tenant reads.
type ModuleStatus struct {
	ModuleID    uuid.UUID
	Key         modulekey.ModuleKey
	DisplayName string
	Category    string
	IsEnabled   bool
	EnabledAt   *time.Time
	DisabledAt  *time.Time
}

// Usage reports one tenant with an enabled link for a given module.
type Usage struct {
	TenantID   uuid.UUID
	TenantName string
	TenantSlug string
	EnabledAt  *time.Time
	Reason     string
}

// Dependents carries the dependent record counts evaluated before a tenant
// can be deleted.
type Dependents struct {
	Users     int
	Customers int
	Products  int
	Servers   int
	Orders    int
	Invoices  int
}

// Total returns the sum of all dependent records.
func (d Dependents) Total() int {
	return d.Users + d.Customers + d.Products + d.Servers + d.Orders + d.Invoices
}
