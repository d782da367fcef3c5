// Package all binds all the routes into the specified app.
package all

import (
	"github.com/jcpaschoal/erp-exata/app/domain/authapp"
	"github.com/jcpaschoal/erp-exata/app/domain/checkapp"
	"github.com/jcpaschoal/erp-exata/app/domain/moduleapp"
	"github.com/jcpaschoal/erp-exata/app/domain/reportapp"
	"github.com/jcpaschoal/erp-exata/app/domain/tenantapp"
	"github.com/jcpaschoal/erp-exata/app/domain/userapp"
	"github.com/jcpaschoal/erp-exata/app/sdk/mux"
	"github.com/jcpaschoal/erp-exata/business/sdk/web"
)

// Routes constructs the add value which provides the implementation of
// of RouteAdder for specifying what routes to bind to this instance.
func Routes() add {
	return add{}
}

type add struct{}

func (add) Add(app *web.App, cfg mux.Config) {
	checkapp.Routes(app, checkapp.Config{
		Build: cfg.Build,
		Log:   cfg.Log,
		DB:    cfg.DB,
	})

	authapp.Routes(app, authapp.Config{
		Auth:      cfg.AuthConfig.Auth,
		TenantBus: cfg.BusConfig.TenantBus,
	})

	userapp.Routes(app, userapp.Config{
		Auth:    cfg.AuthConfig.Auth,
		UserBus: cfg.BusConfig.UserBus,
	})

	moduleapp.Routes(app, moduleapp.Config{
		Auth:      cfg.AuthConfig.Auth,
		ModuleBus: cfg.BusConfig.ModuleBus,
		TenantBus: cfg.BusConfig.TenantBus,
		EntBus:    cfg.BusConfig.EntBus,
	})

	tenantapp.Routes(app, tenantapp.Config{
		Log:       cfg.Log,
		DB:        cfg.DB,
		Auth:      cfg.AuthConfig.Auth,
		TenantBus: cfg.BusConfig.TenantBus,
		EntBus:    cfg.BusConfig.EntBus,
	})

	reportapp.Routes(app, reportapp.Config{
		Auth:      cfg.AuthConfig.Auth,
		ModuleBus: cfg.BusConfig.ModuleBus,
		TenantBus: cfg.BusConfig.TenantBus,
		EntBus:    cfg.BusConfig.EntBus,
	})
}
