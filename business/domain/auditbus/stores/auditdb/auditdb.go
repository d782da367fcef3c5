// Package auditdb contains audit log related database functionality.
package auditdb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/domain/auditbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/sqldb"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Store manages the set of APIs for audit log database access.
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
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (auditbus.Storer, error) {
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

// Create appends a new transition entry. Entries are never updated or
// deleted except through cascading tenant deletion.
func (s *Store) Create(ctx context.Context, e auditbus.Entry) error {
	const q = `
	INSERT INTO "public"."module_audit"
		(audit_id, tenant_id, module_id, action, reason, actor, created_at)
	VALUES
		(:audit_id, :tenant_id, :module_id, :action, :reason, :actor, :created_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBEntry(e)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// QueryByTenant retrieves the transitions for a tenant joined with the module
// catalog for display metadata, most recent first.
func (s *Store) QueryByTenant(ctx context.Context, tenantID uuid.UUID) ([]auditbus.Transition, error) {
	data := struct {
		TenantID string `db:"tenant_id"`
	}{
		TenantID: tenantID.String(),
	}

	const q = `
	SELECT
		a.audit_id, a.tenant_id, a.module_id, a.action, a.reason, a.actor, a.created_at,
		m.key AS module_key, m.display_name AS module_display_name
	FROM
		"public"."module_audit" AS a
	JOIN
		"public"."module" AS m ON m.module_id = a.module_id
	WHERE
		a.tenant_id = :tenant_id
	ORDER BY
		a.created_at DESC`

	var dbTrs []transitionDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbTrs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusTransitions(dbTrs), nil
}
