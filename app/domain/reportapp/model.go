package reportapp

import "encoding/json"

// EntitlementRow is one module of the entitlement report.
type EntitlementRow struct {
	ModuleKey   string `json:"moduleKey"`
	DisplayName string `json:"displayName"`
	Category    string `json:"category"`
	IsActive    bool   `json:"isActive"`
	Tenants     int    `json:"tenants"`
}

// EntitlementReport summarizes module adoption across tenants.
type EntitlementReport struct {
	Rows []EntitlementRow `json:"rows"`
}

// Encode implements the web.Encoder interface.
func (r EntitlementReport) Encode() ([]byte, string, error) {
	data, err := json.Marshal(r)
	return data, "application/json", err
}

// TenantModuleRow is one module of the tenant report.
type TenantModuleRow struct {
	ModuleKey   string `json:"moduleKey"`
	DisplayName string `json:"displayName"`
	Category    string `json:"category"`
	IsEnabled   bool   `json:"isEnabled"`
}

// TenantModuleReport summarizes the module status of one tenant.
type TenantModuleReport struct {
	Rows []TenantModuleRow `json:"rows"`
}

// Encode implements the web.Encoder interface.
func (r TenantModuleReport) Encode() ([]byte, string, error) {
	data, err := json.Marshal(r)
	return data, "application/json", err
}
