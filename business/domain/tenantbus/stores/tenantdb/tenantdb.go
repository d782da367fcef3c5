// Package tenantdb contains tenant related database functionality.
package tenantdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/order"
	"github.com/jcpaschoal/erp-exata/business/sdk/page"
	"github.com/jcpaschoal/erp-exata/business/sdk/sqldb"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Store manages the set of APIs for tenant database access.
type Store struct {
	log *logger.Logger
	db  sqlx.ExtContext
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB
// value with a sqlx DB value that is currently inside a transaction.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (tenantbus.Storer, error) {
	ec, err := sqldb.GetExtContext(tx)
	if err != nil {
		return nil, err
	}

	store := Store{
		log: s.log,
		db:  ec,
	}

	return &store, nil
}

// Create inserts a new tenant into the database.
func (s *Store) Create(ctx context.Context, t tenantbus.Tenant) error {
	const q = `
	INSERT INTO "public"."tenant"
		(tenant_id, name, slug, contact_email, contact_phone, plan, max_users, max_servers, max_storage_gb, enabled, created_at, updated_at)
	VALUES
		(:tenant_id, :name, :slug, :contact_email, :contact_phone, :plan, :max_users, :max_servers, :max_storage_gb, :enabled, :created_at, :updated_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBTenant(t)); err != nil {
		var dupErr sqldb.ErrDBDuplicatedEntry
		if errors.As(err, &dupErr) {
			switch dupErr.Column {
			case "slug", "uq_tenant_slug":
				return fmt.Errorf("namedexeccontext: %w", tenantbus.ErrUniqueSlug)
			}
		}
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Update replaces a tenant document in the database.
func (s *Store) Update(ctx context.Context, t tenantbus.Tenant) error {
	const q = `
	UPDATE
		"public"."tenant"
	SET
		name = :name,
		contact_email = :contact_email,
		contact_phone = :contact_phone,
		plan = :plan,
		max_users = :max_users,
		max_servers = :max_servers,
		max_storage_gb = :max_storage_gb,
		enabled = :enabled,
		updated_at = :updated_at
	WHERE
		tenant_id = :tenant_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBTenant(t)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Delete removes a tenant from the database.
func (s *Store) Delete(ctx context.Context, t tenantbus.Tenant) error {
	const q = `
	DELETE FROM
		"public"."tenant"
	WHERE
		tenant_id = :tenant_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBTenant(t)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Query retrieves a list of existing tenants from the database.
func (s *Store) Query(ctx context.Context, filter tenantbus.QueryFilter, orderBy order.By, page page.Page) ([]tenantbus.Tenant, error) {
	data := map[string]any{
		"offset":        (page.Number() - 1) * page.RowsPerPage(),
		"rows_per_page": page.RowsPerPage(),
	}

	const q = `
	SELECT
		t.tenant_id, t.name, t.slug, t.contact_email, t.contact_phone, t.plan, t.max_users, t.max_servers, t.max_storage_gb, t.enabled, t.created_at, t.updated_at
	FROM
		"public"."tenant" AS t`

	buf := bytes.NewBufferString(q)
	applyFilter(filter, data, buf)

	orderByClause, err := orderByClause(orderBy)
	if err != nil {
		return nil, err
	}

	buf.WriteString(orderByClause)
	buf.WriteString(" OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY")

	var dbTns []tenantDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, buf.String(), data, &dbTns); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusTenants(dbTns)
}

// Count returns the total number of tenants in the DB.
func (s *Store) Count(ctx context.Context, filter tenantbus.QueryFilter) (int, error) {
	data := map[string]any{}

	const q = `
	SELECT
		count(1)
	FROM
		"public"."tenant" AS t`

	buf := bytes.NewBufferString(q)
	applyFilter(filter, data, buf)

	var count struct {
		Count int `db:"count"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, buf.String(), data, &count); err != nil {
		return 0, fmt.Errorf("db: %w", err)
	}

	return count.Count, nil
}

// QueryByID gets the specified tenant from the database.
func (s *Store) QueryByID(ctx context.Context, tenantID uuid.UUID) (tenantbus.Tenant, error) {
	data := struct {
		ID string `db:"tenant_id"`
	}{
		ID: tenantID.String(),
	}

	const q = `
	SELECT
		t.tenant_id, t.name, t.slug, t.contact_email, t.contact_phone, t.plan, t.max_users, t.max_servers, t.max_storage_gb, t.enabled, t.created_at, t.updated_at
	FROM
		"public"."tenant" AS t
	WHERE
		t.tenant_id = :tenant_id`

	var dbTn tenantDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbTn); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return tenantbus.Tenant{}, fmt.Errorf("db: %w", tenantbus.ErrNotFound)
		}
		return tenantbus.Tenant{}, fmt.Errorf("db: %w", err)
	}

	return toBusTenant(dbTn)
}

// QueryIDBySlug gets the tenant ID for the specified slug.
func (s *Store) QueryIDBySlug(ctx context.Context, slug string) (uuid.UUID, error) {
	data := struct {
		Slug string `db:"slug"`
	}{
		Slug: slug,
	}

	const q = `
	SELECT
		tenant_id
	FROM
		"public"."tenant"
	WHERE
		slug = :slug`

	var dbID struct {
		ID uuid.UUID `db:"tenant_id"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbID); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return uuid.Nil, fmt.Errorf("db: %w", tenantbus.ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("db: %w", err)
	}

	return dbID.ID, nil
}

// CountDependents counts the records in every tenant-owned table in a single
// round trip using scalar subqueries.
func (s *Store) CountDependents(ctx context.Context, tenantID uuid.UUID) (tenantbus.Dependents, error) {
	data := struct {
		ID string `db:"tenant_id"`
	}{
		ID: tenantID.String(),
	}

	const q = `
	SELECT
		(SELECT count(1) FROM "public"."users"    WHERE tenant_id = :tenant_id) AS users,
		(SELECT count(1) FROM "public"."customer" WHERE tenant_id = :tenant_id) AS customers,
		(SELECT count(1) FROM "public"."product"  WHERE tenant_id = :tenant_id) AS products,
		(SELECT count(1) FROM "public"."server"   WHERE tenant_id = :tenant_id) AS servers,
		(SELECT count(1) FROM "public"."orders"   WHERE tenant_id = :tenant_id) AS orders,
		(SELECT count(1) FROM "public"."invoice"  WHERE tenant_id = :tenant_id) AS invoices`

	var dbDeps struct {
		Users     int `db:"users"`
		Customers int `db:"customers"`
		Products  int `db:"products"`
		Servers   int `db:"servers"`
		Orders    int `db:"orders"`
		Invoices  int `db:"invoices"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbDeps); err != nil {
		return tenantbus.Dependents{}, fmt.Errorf("db: %w", err)
	}

	return tenantbus.Dependents{
		Users:     dbDeps.Users,
		Customers: dbDeps.Customers,
		Products:  dbDeps.Products,
		Servers:   dbDeps.Servers,
		Orders:    dbDeps.Orders,
		Invoices:  dbDeps.Invoices,
	}, nil
}

// UpsertModuleLink writes the link row for a (tenant, module) pair. The insert
// lands on the unique constraint so a concurrent writer updates the existing
// row instead of failing. The timestamps mirror the incoming state, at most
// one of enabled_at/disabled_at is set. The config column is kept on update
// so a disable does not wipe tenant customizations.
func (s *Store) UpsertModuleLink(ctx context.Context, tm tenantbus.TenantModule) error {
	dbTm, err := toDBTenantModule(tm)
	if err != nil {
		return err
	}

	const q = `
	INSERT INTO "public"."tenant_module"
		(tenant_id, module_id, enabled, enabled_at, disabled_at, reason, config, created_at, updated_at)
	VALUES
		(:tenant_id, :module_id, :enabled, :enabled_at, :disabled_at, :reason, :config, :created_at, :updated_at)
	ON CONFLICT (tenant_id, module_id) DO UPDATE SET
		enabled     = EXCLUDED.enabled,
		enabled_at  = EXCLUDED.enabled_at,
		disabled_at = EXCLUDED.disabled_at,
		reason      = EXCLUDED.reason,
		updated_at  = EXCLUDED.updated_at`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, dbTm); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// QueryModuleLinks retrieves the raw link rows for a tenant joined with the
// catalog key.
func (s *Store) QueryModuleLinks(ctx context.Context, tenantID uuid.UUID) ([]tenantbus.TenantModule, error) {
	data := struct {
		ID string `db:"tenant_id"`
	}{
		ID: tenantID.String(),
	}

	const q = `
	SELECT
		tm.tenant_id, tm.module_id, tm.enabled, tm.enabled_at, tm.disabled_at, tm.reason, tm.config, tm.created_at, tm.updated_at,
		m.key AS module_key
	FROM
		"public"."tenant_module" AS tm
	JOIN
		"public"."module" AS m ON m.module_id = tm.module_id
	WHERE
		tm.tenant_id = :tenant_id`

	var dbTms []tenantModuleDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbTms); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusTenantModules(dbTms)
}

// QueryModuleStatus retrieves the full catalog left joined with the tenant
// link state. Modules without a link row report as disabled.
func (s *Store) QueryModuleStatus(ctx context.Context, tenantID uuid.UUID) ([]tenantbus.ModuleStatus, error) {
	data := struct {
		ID string `db:"tenant_id"`
	}{
		ID: tenantID.String(),
	}

	const q = `
	SELECT
		m.module_id, m.key, m.display_name, m.category,
		COALESCE(tm.enabled, FALSE) AS is_enabled,
		tm.enabled_at, tm.disabled_at
	FROM
		"public"."module" AS m
	LEFT JOIN
		"public"."tenant_module" AS tm ON tm.module_id = m.module_id AND tm.tenant_id = :tenant_id
	WHERE
		m.is_active = TRUE
	ORDER BY
		m.sort_order, m.name`

	var dbSts []moduleStatusDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbSts); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusModuleStatuses(dbSts)
}

// QueryTenantsByModule retrieves the tenants with an enabled link for the
// specified module.
func (s *Store) QueryTenantsByModule(ctx context.Context, moduleID uuid.UUID) ([]tenantbus.Usage, error) {
	data := struct {
		ID string `db:"module_id"`
	}{
		ID: moduleID.String(),
	}

	const q = `
	SELECT
		t.tenant_id, t.name AS tenant_name, t.slug AS tenant_slug,
		tm.enabled_at, tm.reason
	FROM
		"public"."tenant_module" AS tm
	JOIN
		"public"."tenant" AS t ON t.tenant_id = tm.tenant_id
	WHERE
		tm.module_id = :module_id AND tm.enabled = TRUE
	ORDER BY
		t.name`

	var dbUsgs []usageDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbUsgs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusUsages(dbUsgs), nil
}

// DeleteModuleLinks removes every link row for a tenant.
func (s *Store) DeleteModuleLinks(ctx context.Context, tenantID uuid.UUID) error {
	data := struct {
		ID string `db:"tenant_id"`
	}{
		ID: tenantID.String(),
	}

	const q = `
	DELETE FROM
		"public"."tenant_module"
	WHERE
		tenant_id = :tenant_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}
