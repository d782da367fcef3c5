package modulecache_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/domain/modulebus"
	"github.com/jcpaschoal/erp-exata/business/domain/modulebus/stores/modulecache"
	"github.com/jcpaschoal/erp-exata/business/sdk/sqldb"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
)

type dbStore struct {
	modules map[string]modulebus.Module
	reads   int
}

func (s *dbStore) NewWithTx(tx sqldb.CommitRollbacker) (modulebus.Storer, error) {
	return s, nil
}

func (s *dbStore) Upsert(ctx context.Context, m modulebus.Module) (modulebus.Module, error) {
	if existing, ok := s.modules[m.Key.String()]; ok {
		m.ID = existing.ID
		m.CreatedAt = existing.CreatedAt
	}
	s.modules[m.Key.String()] = m
	return m, nil
}

func (s *dbStore) Query(ctx context.Context, filter modulebus.QueryFilter) ([]modulebus.Module, error) {
	var ms []modulebus.Module
	for _, m := range s.modules {
		ms = append(ms, m)
	}
	return ms, nil
}

func (s *dbStore) QueryByKey(ctx context.Context, key modulekey.ModuleKey) (modulebus.Module, error) {
	s.reads++

	m, ok := s.modules[key.String()]
	if !ok {
		return modulebus.Module{}, modulebus.ErrNotFound
	}
	return m, nil
}

func newTestStore(t *testing.T) (*modulecache.Store, *dbStore) {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)
	db := &dbStore{modules: make(map[string]modulebus.Module)}

	return modulecache.NewStore(log, db, time.Minute), db
}

func Test_QueryByKeyCached(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	key := modulekey.MustParse("crm")
	db.modules["crm"] = modulebus.Module{ID: uuid.New(), Key: key, DisplayName: "CRM"}

	for range 5 {
		m, err := store.QueryByKey(ctx, key)
		if err != nil {
			t.Fatalf("query by key: %s", err)
		}
		if m.DisplayName != "CRM" {
			t.Fatalf("expected CRM, got %q", m.DisplayName)
		}
	}

	if db.reads != 1 {
		t.Errorf("expected a single db read, got %d", db.reads)
	}
}

func Test_UpsertRefreshesCache(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	key := modulekey.MustParse("billing")
	db.modules["billing"] = modulebus.Module{ID: uuid.New(), Key: key, DisplayName: "Billing"}

	if _, err := store.QueryByKey(ctx, key); err != nil {
		t.Fatalf("query by key: %s", err)
	}

	updated := modulebus.Module{ID: uuid.New(), Key: key, DisplayName: "Billing v2"}
	if _, err := store.Upsert(ctx, updated); err != nil {
		t.Fatalf("upsert: %s", err)
	}

	m, err := store.QueryByKey(ctx, key)
	if err != nil {
		t.Fatalf("query by key: %s", err)
	}
	if m.DisplayName != "Billing v2" {
		t.Errorf("expected the cached entry to be refreshed, got %q", m.DisplayName)
	}
	if db.reads != 1 {
		t.Errorf("expected the refresh to be served from cache, got %d reads", db.reads)
	}
}

func Test_NewWithTxBypassesCache(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	key := modulekey.MustParse("crm")
	db.modules["crm"] = modulebus.Module{ID: uuid.New(), Key: key, DisplayName: "CRM"}

	if _, err := store.QueryByKey(ctx, key); err != nil {
		t.Fatalf("query by key: %s", err)
	}

	txStore, err := store.NewWithTx(nil)
	if err != nil {
		t.Fatalf("new with tx: %s", err)
	}

	updated := modulebus.Module{ID: uuid.New(), Key: key, DisplayName: "CRM v2"}
	if _, err := txStore.Upsert(ctx, updated); err != nil {
		t.Fatalf("upsert: %s", err)
	}

	// The uncommitted write must not be published through the shared cache.
	m, err := store.QueryByKey(ctx, key)
	if err != nil {
		t.Fatalf("query by key: %s", err)
	}
	if m.DisplayName != "CRM" {
		t.Errorf("expected the cache to keep serving the committed state, got %q", m.DisplayName)
	}
}
