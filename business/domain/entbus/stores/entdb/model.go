package entdb

import (
	"encoding/json"
	"fmt"

	"github.com/jcpaschoal/erp-exata/business/domain/entbus"
	"github.com/jcpaschoal/erp-exata/business/types/actions"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/role"
)

type policyDB struct {
	Key         string `db:"key"`
	Permissions []byte `db:"permissions"`
}

// permissionDoc mirrors one element of the permissions jsonb column.
type permissionDoc struct {
	Action string   `json:"action"`
	Roles  []string `json:"roles"`
}

func toBusPolicies(dbs []policyDB) ([]entbus.Policy, error) {
	var bus []entbus.Policy

	for _, db := range dbs {
		key, err := modulekey.Parse(db.Key)
		if err != nil {
			return nil, fmt.Errorf("parse key: %w", err)
		}

		var docs []permissionDoc
		if len(db.Permissions) > 0 {
			if err := json.Unmarshal(db.Permissions, &docs); err != nil {
				return nil, fmt.Errorf("unmarshal permissions: key[%s]: %w", db.Key, err)
			}
		}

		for _, doc := range docs {
			act, err := actions.Parse(doc.Action)
			if err != nil {
				return nil, fmt.Errorf("parse action: key[%s]: %w", db.Key, err)
			}

			roles := make([]role.Role, len(doc.Roles))
			for i, r := range doc.Roles {
				roles[i], err = role.Parse(r)
				if err != nil {
					return nil, fmt.Errorf("parse role: key[%s]: %w", db.Key, err)
				}
			}

			bus = append(bus, entbus.Policy{
				Module: key,
				Action: act,
				Roles:  roles,
			})
		}
	}

	return bus, nil
}
