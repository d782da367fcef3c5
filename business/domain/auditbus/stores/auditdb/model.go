package auditdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/domain/auditbus"
)

// entryDB represents the structure of the module_audit table in the database.
type entryDB struct {
	ID        uuid.UUID `db:"audit_id"`
	TenantID  uuid.UUID `db:"tenant_id"`
	ModuleID  uuid.UUID `db:"module_id"`
	Action    string    `db:"action"`
	Reason    string    `db:"reason"`
	Actor     string    `db:"actor"`
	CreatedAt time.Time `db:"created_at"`
}

// transitionDB is an audit row joined with module display metadata.
type transitionDB struct {
	entryDB
	ModuleKey         string `db:"module_key"`
	ModuleDisplayName string `db:"module_display_name"`
}

func toDBEntry(bus auditbus.Entry) entryDB {
	return entryDB{
		ID:        bus.ID,
		TenantID:  bus.TenantID,
		ModuleID:  bus.ModuleID,
		Action:    bus.Action,
		Reason:    bus.Reason,
		Actor:     bus.Actor,
		CreatedAt: bus.CreatedAt.UTC(),
	}
}

func toBusTransition(db transitionDB) auditbus.Transition {
	return auditbus.Transition{
		Entry: auditbus.Entry{
			ID:        db.ID,
			TenantID:  db.TenantID,
			ModuleID:  db.ModuleID,
			Action:    db.Action,
			Reason:    db.Reason,
			Actor:     db.Actor,
			CreatedAt: db.CreatedAt.In(time.Local),
		},
		ModuleKey:         db.ModuleKey,
		ModuleDisplayName: db.ModuleDisplayName,
	}
}

func toBusTransitions(dbs []transitionDB) []auditbus.Transition {
	bus := make([]auditbus.Transition, len(dbs))
	for i, db := range dbs {
		bus[i] = toBusTransition(db)
	}

	return bus
}
