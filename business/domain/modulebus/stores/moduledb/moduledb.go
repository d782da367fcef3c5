// Package moduledb contains module catalog related CRUD functionality.
package moduledb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jcpaschoal/erp-exata/business/domain/modulebus"
	"github.com/jcpaschoal/erp-exata/business/sdk/sqldb"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Store manages the set of APIs for module catalog database access.
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
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (modulebus.Storer, error) {
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

// Upsert inserts or fully replaces a module definition in the catalog. The
// statement is a single round trip so concurrent provisioning runs cannot
// produce duplicate keys.
func (s *Store) Upsert(ctx context.Context, m modulebus.Module) (modulebus.Module, error) {
	dbM, err := toDBModule(m)
	if err != nil {
		return modulebus.Module{}, fmt.Errorf("todbmodule: %w", err)
	}

	const q = `
	INSERT INTO "public"."module"
		(module_id, key, name, display_name, description, version, category, is_core,
		 icon, color, sort_order, is_active, config, features, permissions, created_at, updated_at)
	VALUES
		(:module_id, :key, :name, :display_name, :description, :version, :category, :is_core,
		 :icon, :color, :sort_order, :is_active, :config, :features, :permissions, :created_at, :updated_at)
	ON CONFLICT (key) DO UPDATE SET
		name         = EXCLUDED.name,
		display_name = EXCLUDED.display_name,
		description  = EXCLUDED.description,
		version      = EXCLUDED.version,
		category     = EXCLUDED.category,
		is_core      = EXCLUDED.is_core,
		icon         = EXCLUDED.icon,
		color        = EXCLUDED.color,
		sort_order   = EXCLUDED.sort_order,
		is_active    = EXCLUDED.is_active,
		config       = EXCLUDED.config,
		features     = EXCLUDED.features,
		permissions  = EXCLUDED.permissions,
		updated_at   = EXCLUDED.updated_at
	RETURNING module_id, created_at`

	var dbResult moduleIdentity
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, dbM, &dbResult); err != nil {
		return modulebus.Module{}, fmt.Errorf("namedquerystruct: %w", err)
	}

	m.ID = dbResult.ID
	m.CreatedAt = dbResult.CreatedAt.In(m.CreatedAt.Location())

	return m, nil
}

// Query retrieves the list of modules from the catalog ordered for
// navigation rendering.
func (s *Store) Query(ctx context.Context, filter modulebus.QueryFilter) ([]modulebus.Module, error) {
	data := map[string]any{}

	const q = `
	SELECT
		module_id, key, name, display_name, description, version, category, is_core,
		icon, color, sort_order, is_active, config, features, permissions, created_at, updated_at
	FROM
		"public"."module"`

	buf := bytes.NewBufferString(q)
	applyFilter(filter, data, buf)
	buf.WriteString(" ORDER BY sort_order, name")

	var dbMs []moduleDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, buf.String(), data, &dbMs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusModules(dbMs)
}

// QueryByKey gets the specified module from the catalog.
func (s *Store) QueryByKey(ctx context.Context, key modulekey.ModuleKey) (modulebus.Module, error) {
	data := struct {
		Key string `db:"key"`
	}{
		Key: key.String(),
	}

	const q = `
	SELECT
		module_id, key, name, display_name, description, version, category, is_core,
		icon, color, sort_order, is_active, config, features, permissions, created_at, updated_at
	FROM
		"public"."module"
	WHERE
		key = :key`

	var dbM moduleDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbM); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return modulebus.Module{}, fmt.Errorf("db: %w", modulebus.ErrNotFound)
		}
		return modulebus.Module{}, fmt.Errorf("db: %w", err)
	}

	return toBusModule(dbM)
}
