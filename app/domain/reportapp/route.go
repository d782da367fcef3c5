package reportapp

import (
	"net/http"

	"github.com/jcpaschoal/erp-exata/app/sdk/auth"
	"github.com/jcpaschoal/erp-exata/app/sdk/mid"
	"github.com/jcpaschoal/erp-exata/business/domain/entbus"
	"github.com/jcpaschoal/erp-exata/business/domain/modulebus"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/web"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
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
	entitled := mid.Entitled(cfg.EntBus, modulekey.MustParse("reports"))

	api := newApp(cfg.ModuleBus, cfg.TenantBus)

	app.HandlerFunc(http.MethodGet, version, "/reports/entitlements", api.entitlements, authen, entitled)
	app.HandlerFunc(http.MethodGet, version, "/reports/modules", api.tenantModules, authen, entitled)
}
