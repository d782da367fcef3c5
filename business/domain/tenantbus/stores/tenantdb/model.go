package tenantdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/name"
	"github.com/jcpaschoal/erp-exata/business/types/phone"
	"github.com/jcpaschoal/erp-exata/business/types/plan"
	"github.com/jcpaschoal/erp-exata/business/types/slug"
)

// tenantDB represents the structure of the tenant table in the database.
type tenantDB struct {
	ID           uuid.UUID      `db:"tenant_id"`
	Name         string         `db:"name"`
	Slug         string         `db:"slug"`
	ContactEmail string         `db:"contact_email"`
	ContactPhone sql.NullString `db:"contact_phone"`
	Plan         string         `db:"plan"`
	MaxUsers     int            `db:"max_users"`
	MaxServers   int            `db:"max_servers"`
	MaxStorageGB int            `db:"max_storage_gb"`
	Enabled      bool           `db:"enabled"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func toDBTenant(bus tenantbus.Tenant) tenantDB {
	return tenantDB{
		ID:           bus.ID,
		Name:         bus.Name.String(),
		Slug:         bus.Slug.String(),
		ContactEmail: bus.ContactEmail.Address,
		ContactPhone: phone.ToSQLNullString(bus.ContactPhone),
		Plan:         bus.Plan.String(),
		MaxUsers:     bus.MaxUsers,
		MaxServers:   bus.MaxServers,
		MaxStorageGB: bus.MaxStorageGB,
		Enabled:      bus.Enabled,
		CreatedAt:    bus.CreatedAt.UTC(),
		UpdatedAt:    bus.UpdatedAt.UTC(),
	}
}

func toBusTenant(db tenantDB) (tenantbus.Tenant, error) {
	nme, err := name.Parse(db.Name)
	if err != nil {
		return tenantbus.Tenant{}, fmt.Errorf("parse name: %w", err)
	}

	slg, err := slug.Parse(db.Slug)
	if err != nil {
		return tenantbus.Tenant{}, fmt.Errorf("parse slug: %w", err)
	}

	pln, err := plan.Parse(db.Plan)
	if err != nil {
		return tenantbus.Tenant{}, fmt.Errorf("parse plan: %w", err)
	}

	var phn phone.Null
	if db.ContactPhone.Valid {
		phn, err = phone.ParseNull(db.ContactPhone.String)
		if err != nil {
			return tenantbus.Tenant{}, fmt.Errorf("parse phone: %w", err)
		}
	}

	return tenantbus.Tenant{
		ID:           db.ID,
		Name:         nme,
		Slug:         slg,
		ContactEmail: mail.Address{Address: db.ContactEmail},
		ContactPhone: phn,
		Plan:         pln,
		MaxUsers:     db.MaxUsers,
		MaxServers:   db.MaxServers,
		MaxStorageGB: db.MaxStorageGB,
		Enabled:      db.Enabled,
		CreatedAt:    db.CreatedAt.In(time.Local),
		UpdatedAt:    db.UpdatedAt.In(time.Local),
	}, nil
}

func toBusTenants(dbs []tenantDB) ([]tenantbus.Tenant, error) {
	bus := make([]tenantbus.Tenant, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusTenant(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}

// =============================================================================

// tenantModuleDB represents the structure of the tenant_module link table.
type tenantModuleDB struct {
	TenantID   uuid.UUID    `db:"tenant_id"`
	ModuleID   uuid.UUID    `db:"module_id"`
	ModuleKey  string       `db:"module_key"`
	Enabled    bool         `db:"enabled"`
	EnabledAt  sql.NullTime `db:"enabled_at"`
	DisabledAt sql.NullTime `db:"disabled_at"`
	Reason     string       `db:"reason"`
	Config     []byte       `db:"config"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
}

func toDBTenantModule(bus tenantbus.TenantModule) (tenantModuleDB, error) {
	config, err := json.Marshal(bus.Config)
	if err != nil {
		return tenantModuleDB{}, fmt.Errorf("marshal config: %w", err)
	}

	return tenantModuleDB{
		TenantID:   bus.TenantID,
		ModuleID:   bus.ModuleID,
		Enabled:    bus.Enabled,
		EnabledAt:  toNullTime(bus.EnabledAt),
		DisabledAt: toNullTime(bus.DisabledAt),
		Reason:     bus.Reason,
		Config:     config,
		CreatedAt:  bus.CreatedAt.UTC(),
		UpdatedAt:  bus.UpdatedAt.UTC(),
	}, nil
}

func toBusTenantModule(db tenantModuleDB) (tenantbus.TenantModule, error) {
	key, err := modulekey.Parse(db.ModuleKey)
	if err != nil {
		return tenantbus.TenantModule{}, fmt.Errorf("parse key: %w", err)
	}

	var config map[string]bool
	if len(db.Config) > 0 {
		if err := json.Unmarshal(db.Config, &config); err != nil {
			return tenantbus.TenantModule{}, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	return tenantbus.TenantModule{
		TenantID:   db.TenantID,
		ModuleID:   db.ModuleID,
		ModuleKey:  key,
		Enabled:    db.Enabled,
		EnabledAt:  fromNullTime(db.EnabledAt),
		DisabledAt: fromNullTime(db.DisabledAt),
		Reason:     db.Reason,
		Config:     config,
		CreatedAt:  db.CreatedAt.In(time.Local),
		UpdatedAt:  db.UpdatedAt.In(time.Local),
	}, nil
}

func toBusTenantModules(dbs []tenantModuleDB) ([]tenantbus.TenantModule, error) {
	bus := make([]tenantbus.TenantModule, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusTenantModule(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}

// =============================================================================

// moduleStatusDB is a catalog row left joined with the tenant link state.
type moduleStatusDB struct {
	ModuleID    uuid.UUID    `db:"module_id"`
	Key         string       `db:"key"`
	DisplayName string       `db:"display_name"`
	Category    string       `db:"category"`
	IsEnabled   bool         `db:"is_enabled"`
	EnabledAt   sql.NullTime `db:"enabled_at"`
	DisabledAt  sql.NullTime `db:"disabled_at"`
}

func toBusModuleStatus(db moduleStatusDB) (tenantbus.ModuleStatus, error) {
	key, err := modulekey.Parse(db.Key)
	if err != nil {
		return tenantbus.ModuleStatus{}, fmt.Errorf("parse key: %w", err)
	}

	return tenantbus.ModuleStatus{
		ModuleID:    db.ModuleID,
		Key:         key,
		DisplayName: db.DisplayName,
		Category:    db.Category,
		IsEnabled:   db.IsEnabled,
		EnabledAt:   fromNullTime(db.EnabledAt),
		DisabledAt:  fromNullTime(db.DisabledAt),
	}, nil
}

func toBusModuleStatuses(dbs []moduleStatusDB) ([]tenantbus.ModuleStatus, error) {
	bus := make([]tenantbus.ModuleStatus, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusModuleStatus(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}

// =============================================================================

// usageDB is an enabled link row joined with the tenant for display data.
type usageDB struct {
	TenantID   uuid.UUID    `db:"tenant_id"`
	TenantName string       `db:"tenant_name"`
	TenantSlug string       `db:"tenant_slug"`
	EnabledAt  sql.NullTime `db:"enabled_at"`
	Reason     string       `db:"reason"`
}

func toBusUsage(db usageDB) tenantbus.Usage {
	return tenantbus.Usage{
		TenantID:   db.TenantID,
		TenantName: db.TenantName,
		TenantSlug: db.TenantSlug,
		EnabledAt:  fromNullTime(db.EnabledAt),
		Reason:     db.Reason,
	}
}

func toBusUsages(dbs []usageDB) []tenantbus.Usage {
	bus := make([]tenantbus.Usage, len(dbs))
	for i, db := range dbs {
		bus[i] = toBusUsage(db)
	}

	return bus
}

// =============================================================================

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}

	t := nt.Time.In(time.Local)
	return &t
}
