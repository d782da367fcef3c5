// Package auditbus provides business access to the entitlement audit log. The
// log is append only, one entry per enable/disable transition, so prior
// cycles are retained even after the link row is overwritten.
package auditbus

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/sdk/sqldb"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
	"github.com/jcpaschoal/erp-exata/foundation/otel"
)

// Storer defines the behavior required by the auditbus to interact with the
// database.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, e Entry) error
	QueryByTenant(ctx context.Context, tenantID uuid.UUID) ([]Transition, error)
}

// Core manages the set of APIs for audit log access.
type Core struct {
	storer Storer
	log    *logger.Logger
}

// NewCore constructs a core for audit log api access.
func NewCore(log *logger.Logger, storer Storer) *Core {
	return &Core{
		storer: storer,
		log:    log,
	}
}

// NewWithTx constructs a new Core value replacing the Storer
// value with a Storer value that is currently inside a transaction.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newWithTx: %w", err)
	}

	return NewCore(c.log, storer), nil
}

// Append records a single entitlement transition.
func (c *Core) Append(ctx context.Context, ne NewEntry) (Entry, error) {
	ctx, span := otel.AddSpan(ctx, "business.auditbus.append")
	defer span.End()

	e := Entry{
		ID:        uuid.New(),
		TenantID:  ne.TenantID,
		ModuleID:  ne.ModuleID,
		Action:    ne.Action,
		Reason:    ne.Reason,
		Actor:     ne.Actor,
		CreatedAt: time.Now(),
	}

	if err := c.storer.Create(ctx, e); err != nil {
		return Entry{}, fmt.Errorf("create: %w", err)
	}

	return e, nil
}

// QueryByTenant returns every recorded transition for the tenant joined with
// module display metadata, most recent first.
func (c *Core) QueryByTenant(ctx context.Context, tenantID uuid.UUID) ([]Transition, error) {
	ctx, span := otel.AddSpan(ctx, "business.auditbus.queryByTenant")
	defer span.End()

	transitions, err := c.storer.QueryByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query: tenantID[%s]: %w", tenantID, err)
	}

	return transitions, nil
}
