package moduleapp

import (
	"net/http"

	"github.com/jcpaschoal/erp-exata/app/sdk/auth"
	"github.com/jcpaschoal/erp-exata/app/sdk/mid"
	"github.com/jcpaschoal/erp-exata/business/domain/entbus"
	"github.com/jcpaschoal/erp-exata/business/domain/modulebus"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/web"
	"github.com/jcpaschoal/erp-exata/business/types/role"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Auth      *auth.Auth
	ModuleBus *modulebus.Core
	TenantBus *tenantbus.Core
	EntBus    *entbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	adminOnly := mid.Authorize(cfg.Auth, role.Admin)
	canRead := mid.Authorize(cfg.Auth, role.Admin, role.Analyst)

	api := newApp(cfg.ModuleBus, cfg.TenantBus, cfg.EntBus)

	app.HandlerFunc(http.MethodPost, version, "/modules", api.upsert, authen, adminOnly)
	app.HandlerFunc(http.MethodGet, version, "/modules", api.query, authen, canRead)
	app.HandlerFunc(http.MethodGet, version, "/modules/{key}/tenants", api.queryTenants, authen, adminOnly)
}
