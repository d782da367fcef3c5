// Package modulebus provides business access to the module catalog. The
// catalog is the registry of feature modules that can be enabled per tenant.
package modulebus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/sdk/sqldb"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
	"github.com/jcpaschoal/erp-exata/foundation/otel"
)

var (
	ErrNotFound  = errors.New("module not found")
	ErrUniqueKey = errors.New("module key is not unique")
)

// Storer defines the behavior required by the modulebus to interact with the
// database.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Upsert(ctx context.Context, m Module) (Module, error)
	Query(ctx context.Context, filter QueryFilter) ([]Module, error)
	QueryByKey(ctx context.Context, key modulekey.ModuleKey) (Module, error)
}

// Core manages the set of APIs for module catalog access.
type Core struct {
	storer Storer
	log    *logger.Logger
}

// NewCore constructs a core for module catalog api access.
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

// Upsert writes a full module definition into the catalog. When a module with
// the same key exists every field is replaced, there is no merge.
func (c *Core) Upsert(ctx context.Context, um UpsertModule) (Module, error) {
	ctx, span := otel.AddSpan(ctx, "business.modulebus.upsert")
	defer span.End()

	now := time.Now()

	m := Module{
		ID:          uuid.New(),
		Key:         um.Key,
		Name:        um.Name,
		DisplayName: um.DisplayName,
		Description: um.Description,
		Version:     um.Version,
		Category:    um.Category,
		IsCore:      um.IsCore,
		Icon:        um.Icon,
		Color:       um.Color,
		Order:       um.Order,
		IsActive:    um.IsActive,
		Config:      um.Config,
		Features:    um.Features,
		Permissions: um.Permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	persisted, err := c.storer.Upsert(ctx, m)
	if err != nil {
		return Module{}, fmt.Errorf("upsert: key[%s]: %w", um.Key, err)
	}

	return persisted, nil
}

// Query retrieves the catalog, ordered by the configured navigation order.
func (c *Core) Query(ctx context.Context, filter QueryFilter) ([]Module, error) {
	ctx, span := otel.AddSpan(ctx, "business.modulebus.query")
	defer span.End()

	modules, err := c.storer.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return modules, nil
}

// QueryByKey finds the module by the specified catalog key.
func (c *Core) QueryByKey(ctx context.Context, key modulekey.ModuleKey) (Module, error) {
	ctx, span := otel.AddSpan(ctx, "business.modulebus.queryByKey")
	defer span.End()

	module, err := c.storer.QueryByKey(ctx, key)
	if err != nil {
		return Module{}, fmt.Errorf("query: key[%s]: %w", key, err)
	}

	return module, nil
}
