package userapp

import (
	"net/http"

	"github.com/jcpaschoal/erp-exata/app/sdk/auth"
	"github.com/jcpaschoal/erp-exata/app/sdk/mid"
	"github.com/jcpaschoal/erp-exata/business/domain/userbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/web"
	"github.com/jcpaschoal/erp-exata/business/types/role"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Auth    *auth.Auth
	UserBus *userbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	adminOnly := mid.Authorize(cfg.Auth, role.Admin)

	api := newApp(cfg.Auth, cfg.UserBus)

	app.HandlerFunc(http.MethodGet, version, "/users", api.query, authen, adminOnly)
	app.HandlerFunc(http.MethodPost, version, "/users", api.create, authen, adminOnly)
	app.HandlerFunc(http.MethodPut, version, "/users/{user_id}/role", api.updateRole, authen, adminOnly)

	app.HandlerFunc(http.MethodGet, version, "/me", api.queryByID, authen)
	app.HandlerFunc(http.MethodPut, version, "/me", api.update, authen)
	app.HandlerFunc(http.MethodDelete, version, "/me", api.delete, authen)
}
