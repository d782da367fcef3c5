package modulebus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/types/actions"
	"github.com/jcpaschoal/erp-exata/business/types/category"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/name"
	"github.com/jcpaschoal/erp-exata/business/types/role"
)

// Feature represents a single feature toggle declared by a module.
type Feature struct {
	ID          string
	Name        string
	Description string
	IsEnabled   bool
}

// Permission maps an action to the set of roles allowed to perform it.
type Permission struct {
	Action actions.Action
	Roles  []role.Role
}

// Config holds the default configuration document for a module.
type Config struct {
	DefaultSettings map[string]bool
}

// Module represents a catalog entry for a feature module.
type Module struct {
	ID          uuid.UUID
	Key         modulekey.ModuleKey
	Name        name.Name
	DisplayName string
	Description string
	Version     string
	Category    category.Category
	IsCore      bool
	Icon        string
	Color       string
	Order       int
	IsActive    bool
	Config      Config
	Features    []Feature
	Permissions []Permission
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpsertModule contains the full module definition needed to provision a
// module. An existing entry with the same key is replaced field by field.
type UpsertModule struct {
	Key         modulekey.ModuleKey
	Name        name.Name
	DisplayName string
	Description string
	Version     string
	Category    category.Category
	IsCore      bool
	Icon        string
	Color       string
	Order       int
	IsActive    bool
	Config      Config
	Features    []Feature
	Permissions []Permission
}

// QueryFilter holds the available fields a query can be filtered on.
type QueryFilter struct {
	IsActive *bool
	Category *category.Category
}
