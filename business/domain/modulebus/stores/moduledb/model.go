package moduledb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/domain/modulebus"
	"github.com/jcpaschoal/erp-exata/business/types/actions"
	"github.com/jcpaschoal/erp-exata/business/types/category"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/name"
	"github.com/jcpaschoal/erp-exata/business/types/role"
)

// moduleDB represents the structure of the module table in the database. The
// config, features and permissions documents are stored as jsonb.
type moduleDB struct {
	ID          uuid.UUID `db:"module_id"`
	Key         string    `db:"key"`
	Name        string    `db:"name"`
	DisplayName string    `db:"display_name"`
	Description string    `db:"description"`
	Version     string    `db:"version"`
	Category    string    `db:"category"`
	IsCore      bool      `db:"is_core"`
	Icon        string    `db:"icon"`
	Color       string    `db:"color"`
	Order       int       `db:"sort_order"`
	IsActive    bool      `db:"is_active"`
	Config      []byte    `db:"config"`
	Features    []byte    `db:"features"`
	Permissions []byte    `db:"permissions"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// moduleIdentity captures the values generated or preserved by the upsert.
type moduleIdentity struct {
	ID        uuid.UUID `db:"module_id"`
	CreatedAt time.Time `db:"created_at"`
}

type configDoc struct {
	DefaultSettings map[string]bool `json:"defaultSettings"`
}

type featureDoc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsEnabled   bool   `json:"isEnabled"`
}

type permissionDoc struct {
	Action string   `json:"action"`
	Roles  []string `json:"roles"`
}

func toDBModule(bus modulebus.Module) (moduleDB, error) {
	config, err := json.Marshal(configDoc{DefaultSettings: bus.Config.DefaultSettings})
	if err != nil {
		return moduleDB{}, fmt.Errorf("marshal config: %w", err)
	}

	features := make([]featureDoc, len(bus.Features))
	for i, f := range bus.Features {
		features[i] = featureDoc{
			ID:          f.ID,
			Name:        f.Name,
			Description: f.Description,
			IsEnabled:   f.IsEnabled,
		}
	}

	featuresData, err := json.Marshal(features)
	if err != nil {
		return moduleDB{}, fmt.Errorf("marshal features: %w", err)
	}

	permissions := make([]permissionDoc, len(bus.Permissions))
	for i, p := range bus.Permissions {
		roles := make([]string, len(p.Roles))
		for j, r := range p.Roles {
			roles[j] = r.String()
		}
		permissions[i] = permissionDoc{
			Action: p.Action.String(),
			Roles:  roles,
		}
	}

	permissionsData, err := json.Marshal(permissions)
	if err != nil {
		return moduleDB{}, fmt.Errorf("marshal permissions: %w", err)
	}

	return moduleDB{
		ID:          bus.ID,
		Key:         bus.Key.String(),
		Name:        bus.Name.String(),
		DisplayName: bus.DisplayName,
		Description: bus.Description,
		Version:     bus.Version,
		Category:    bus.Category.String(),
		IsCore:      bus.IsCore,
		Icon:        bus.Icon,
		Color:       bus.Color,
		Order:       bus.Order,
		IsActive:    bus.IsActive,
		Config:      config,
		Features:    featuresData,
		Permissions: permissionsData,
		CreatedAt:   bus.CreatedAt.UTC(),
		UpdatedAt:   bus.UpdatedAt.UTC(),
	}, nil
}

func toBusModule(db moduleDB) (modulebus.Module, error) {
	key, err := modulekey.Parse(db.Key)
	if err != nil {
		return modulebus.Module{}, fmt.Errorf("parse key: %w", err)
	}

	nme, err := name.Parse(db.Name)
	if err != nil {
		return modulebus.Module{}, fmt.Errorf("parse name: %w", err)
	}

	cat, err := category.Parse(db.Category)
	if err != nil {
		return modulebus.Module{}, fmt.Errorf("parse category: %w", err)
	}

	var config configDoc
	if len(db.Config) > 0 {
		if err := json.Unmarshal(db.Config, &config); err != nil {
			return modulebus.Module{}, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	var features []featureDoc
	if len(db.Features) > 0 {
		if err := json.Unmarshal(db.Features, &features); err != nil {
			return modulebus.Module{}, fmt.Errorf("unmarshal features: %w", err)
		}
	}

	busFeatures := make([]modulebus.Feature, len(features))
	for i, f := range features {
		busFeatures[i] = modulebus.Feature{
			ID:          f.ID,
			Name:        f.Name,
			Description: f.Description,
			IsEnabled:   f.IsEnabled,
		}
	}

	var permissions []permissionDoc
	if len(db.Permissions) > 0 {
		if err := json.Unmarshal(db.Permissions, &permissions); err != nil {
			return modulebus.Module{}, fmt.Errorf("unmarshal permissions: %w", err)
		}
	}

	busPermissions := make([]modulebus.Permission, len(permissions))
	for i, p := range permissions {
		act, err := actions.Parse(p.Action)
		if err != nil {
			return modulebus.Module{}, fmt.Errorf("parse action: %w", err)
		}

		roles := make([]role.Role, len(p.Roles))
		for j, r := range p.Roles {
			parsed, err := role.Parse(r)
			if err != nil {
				return modulebus.Module{}, fmt.Errorf("parse role: %w", err)
			}
			roles[j] = parsed
		}

		busPermissions[i] = modulebus.Permission{
			Action: act,
			Roles:  roles,
		}
	}

	bus := modulebus.Module{
		ID:          db.ID,
		Key:         key,
		Name:        nme,
		DisplayName: db.DisplayName,
		Description: db.Description,
		Version:     db.Version,
		Category:    cat,
		IsCore:      db.IsCore,
		Icon:        db.Icon,
		Color:       db.Color,
		Order:       db.Order,
		IsActive:    db.IsActive,
		Config:      modulebus.Config{DefaultSettings: config.DefaultSettings},
		Features:    busFeatures,
		Permissions: busPermissions,
		CreatedAt:   db.CreatedAt.In(time.Local),
		UpdatedAt:   db.UpdatedAt.In(time.Local),
	}

	return bus, nil
}

func toBusModules(dbs []moduleDB) ([]modulebus.Module, error) {
	bus := make([]modulebus.Module, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusModule(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
