// Package entdb evaluates entitlement policies directly against the module
// catalog tables.
package entdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jcpaschoal/erp-exata/business/domain/entbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/sqldb"
	"github.com/jcpaschoal/erp-exata/business/types/role"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Store manages the set of APIs for entitlement database access.
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

// LoadPolicies reads the permission documents of every active catalog entry
// and flattens them into policies.
func (s *Store) LoadPolicies(ctx context.Context) ([]entbus.Policy, error) {
	const q = `
	SELECT
		key, permissions
	FROM
		"public"."module"
	WHERE
		is_active = TRUE`

	var dbPcs []policyDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, struct{}{}, &dbPcs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusPolicies(dbPcs)
}

// Reload implements the entbus.Storer interface. The database store keeps no
// policy state, every check reads the current catalog.
func (s *Store) Reload(ctx context.Context) error {
	return nil
}

// Check evaluates the access check with a jsonb containment query against the
// catalog permission document. The admin role always passes.
func (s *Store) Check(ctx context.Context, check entbus.AccessCheck) error {
	if check.Role.Equal(role.Admin) {
		return nil
	}

	doc, err := json.Marshal([]permissionDoc{{
		Action: check.Action.String(),
		Roles:  []string{check.Role.String()},
	}})
	if err != nil {
		return fmt.Errorf("marshal check: %w", err)
	}

	data := struct {
		Key string `db:"key"`
		Doc string `db:"doc"`
	}{
		Key: check.Module.String(),
		Doc: string(doc),
	}

	const q = `
	SELECT
		count(1)
	FROM
		"public"."module"
	WHERE
		key = :key
		AND is_active = TRUE
		AND permissions @> :doc::jsonb`

	var count struct {
		Count int `db:"count"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &count); err != nil {
		return fmt.Errorf("namedquerystruct: %w", err)
	}

	if count.Count > 0 {
		return nil
	}

	return entbus.ErrAccessDenied
}
