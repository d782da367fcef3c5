// Package moduleapp maintains the app layer api for the module catalog.
package moduleapp

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/jcpaschoal/erp-exata/app/sdk/errs"
	"github.com/jcpaschoal/erp-exata/business/domain/entbus"
	"github.com/jcpaschoal/erp-exata/business/domain/modulebus"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/web"
	"github.com/jcpaschoal/erp-exata/business/types/category"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
)

type app struct {
	moduleBus *modulebus.Core
	tenantBus *tenantbus.Core
	entBus    *entbus.Core
}

func newApp(moduleBus *modulebus.Core, tenantBus *tenantbus.Core, entBus *entbus.Core) *app {
	return &app{
		moduleBus: moduleBus,
		tenantBus: tenantBus,
		entBus:    entBus,
	}
}

// upsert provisions a full module definition in the catalog. An existing
// entry with the same key is replaced field by field.
func (a *app) upsert(ctx context.Context, r *http.Request) web.Encoder {
	var req UpsertModule
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	um, err := toBusUpsertModule(req)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	m, err := a.moduleBus.Upsert(ctx, um)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "upsert: key[%s]: %s", req.Key, err)
	}

	// The permission documents may have changed, refresh the cached policy
	// state so revocations apply immediately.
	if err := a.entBus.ReloadPolicies(ctx); err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "reload policies: key[%s]: %s", req.Key, err)
	}

	return toAppModule(m)
}

// query returns the catalog, optionally filtered by active flag and category.
func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	filter, err := parseFilter(r)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	modules, err := a.moduleBus.Query(ctx, filter)
	if err != nil {
		return errs.Errorf(errs.Internal, "query: %s", err)
	}

	return toAppModules(modules)
}

// queryTenants returns the tenants that currently have the module enabled.
func (a *app) queryTenants(ctx context.Context, r *http.Request) web.Encoder {
	key, err := modulekey.Parse(web.Param(r, "key"))
	if err != nil {
		return errs.NewFieldErrors("key", err)
	}

	usage, err := a.tenantBus.QueryTenantsByModule(ctx, key)
	if err != nil {
		if errors.Is(err, tenantbus.ErrModuleNotFound) {
			return errs.New(errs.NotFound, err)
		}
		return errs.Errorf(errs.Internal, "queryTenantsByModule: key[%s]: %s", key, err)
	}

	return toAppUsage(key, usage)
}

func parseFilter(r *http.Request) (modulebus.QueryFilter, error) {
	var filter modulebus.QueryFilter

	values := r.URL.Query()

	if v := values.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return modulebus.QueryFilter{}, err
		}
		filter.IsActive = &active
	}

	if v := values.Get("category"); v != "" {
		cat, err := category.Parse(v)
		if err != nil {
			return modulebus.QueryFilter{}, err
		}
		filter.Category = &cat
	}

	return filter, nil
}
