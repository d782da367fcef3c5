package authapp

import (
	"net/http"

	"github.com/jcpaschoal/erp-exata/app/sdk/auth"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/web"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Auth      *auth.Auth
	TenantBus *tenantbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	api := newApp(cfg.Auth, cfg.TenantBus)

	app.HandlerFunc(http.MethodPost, version, "/auth/login", api.login)
}
