// Package reportapp maintains the app layer api for the reports module. The
// routes only respond for tenants with the reports module enabled.
package reportapp

import (
	"context"
	"net/http"

	"github.com/jcpaschoal/erp-exata/app/sdk/errs"
	"github.com/jcpaschoal/erp-exata/app/sdk/mid"
	"github.com/jcpaschoal/erp-exata/business/domain/modulebus"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/web"
)

type app struct {
	moduleBus *modulebus.Core
	tenantBus *tenantbus.Core
}

func newApp(moduleBus *modulebus.Core, tenantBus *tenantbus.Core) *app {
	return &app{
		moduleBus: moduleBus,
		tenantBus: tenantBus,
	}
}

// entitlements reports, per catalog module, how many tenants have it enabled.
func (a *app) entitlements(ctx context.Context, r *http.Request) web.Encoder {
	modules, err := a.moduleBus.Query(ctx, modulebus.QueryFilter{})
	if err != nil {
		return errs.Errorf(errs.Internal, "query modules: %s", err)
	}

	rows := make([]EntitlementRow, 0, len(modules))
	for _, m := range modules {
		usage, err := a.tenantBus.QueryTenantsByModule(ctx, m.Key)
		if err != nil {
			return errs.Errorf(errs.Internal, "querytenantsbymodule: key[%s]: %s", m.Key, err)
		}

		rows = append(rows, EntitlementRow{
			ModuleKey:   m.Key.String(),
			DisplayName: m.DisplayName,
			Category:    m.Category.String(),
			IsActive:    m.IsActive,
			Tenants:     len(usage),
		})
	}

	return EntitlementReport{Rows: rows}
}

// tenantModules reports the module status of the caller's own tenant.
func (a *app) tenantModules(ctx context.Context, r *http.Request) web.Encoder {
	tenantID, err := mid.GetTenantID(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	status, err := a.tenantBus.QueryModuleStatus(ctx, tenantID)
	if err != nil {
		return errs.Errorf(errs.Internal, "querymodulestatus: tenantID[%s]: %s", tenantID, err)
	}

	rows := make([]TenantModuleRow, len(status))
	for i, ms := range status {
		rows[i] = TenantModuleRow{
			ModuleKey:   ms.Key.String(),
			DisplayName: ms.DisplayName,
			Category:    ms.Category,
			IsEnabled:   ms.IsEnabled,
		}
	}

	return TenantModuleReport{Rows: rows}
}
