package tenantapp

import (
	"net/http"

	"github.com/jcpaschoal/erp-exata/app/sdk/auth"
	"github.com/jcpaschoal/erp-exata/app/sdk/mid"
	"github.com/jcpaschoal/erp-exata/business/domain/entbus"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/sqldb"
	"github.com/jcpaschoal/erp-exata/business/sdk/web"
	"github.com/jcpaschoal/erp-exata/business/types/role"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log       *logger.Logger
	DB        *sqlx.DB
	Auth      *auth.Auth
	TenantBus *tenantbus.Core
	EntBus    *entbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	adminOnly := mid.Authorize(cfg.Auth, role.Admin)
	canRead := mid.Authorize(cfg.Auth, role.Admin, role.Analyst)
	tran := mid.BeginCommitRollback(cfg.Log, sqldb.NewBeginner(cfg.DB))

	api := newApp(cfg.TenantBus, cfg.EntBus)

	app.HandlerFunc(http.MethodPost, version, "/tenants", api.create, authen, adminOnly)
	app.HandlerFunc(http.MethodGet, version, "/tenants", api.query, authen, canRead)
	app.HandlerFunc(http.MethodGet, version, "/tenants/{tenant_id}", api.queryByID, authen, canRead)
	app.HandlerFunc(http.MethodPut, version, "/tenants/{tenant_id}", api.update, authen, adminOnly)
	app.HandlerFunc(http.MethodDelete, version, "/tenants/{tenant_id}", api.delete, authen, adminOnly)

	app.HandlerFunc(http.MethodPost, version, "/tenants/{tenant_id}/modules/toggle", api.toggle, authen, adminOnly)
	app.HandlerFunc(http.MethodPut, version, "/tenants/{tenant_id}/modules", api.reconcile, authen, adminOnly, tran)
	app.HandlerFunc(http.MethodGet, version, "/tenants/{tenant_id}/modules/history", api.history, authen, canRead)

	// Contrato de navegação do tenant do próprio token.
	app.HandlerFunc(http.MethodGet, version, "/tenants/enabled-modules", api.enabledModules, authen)
}
