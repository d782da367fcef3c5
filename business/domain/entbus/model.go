package entbus

import (
	"github.com/jcpaschoal/erp-exata/business/types/actions"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/role"
)

// Policy maps a module action to the roles allowed to perform it. Policies
// come from the catalog permission documents.
type Policy struct {
	Module modulekey.ModuleKey
	Action actions.Action
	Roles  []role.Role
}

// AccessCheck carries the values needed to authorize one request.
type AccessCheck struct {
	Role   role.Role
	Module modulekey.ModuleKey
	Action actions.Action
}

// NavModule is one entry of the navigation contract handed to clients. Routes
// are derived from the module key and its enabled features.
type NavModule struct {
	Key         modulekey.ModuleKey
	DisplayName string
	Category    string
	Icon        string
	Color       string
	Order       int
	Routes      []string
	Features    []string
}
