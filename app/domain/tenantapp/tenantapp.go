// Package tenantapp maintains the app layer api for the tenant domain and
// its module entitlements.
package tenantapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/app/sdk/errs"
	"github.com/jcpaschoal/erp-exata/app/sdk/mid"
	"github.com/jcpaschoal/erp-exata/app/sdk/query"
	"github.com/jcpaschoal/erp-exata/business/domain/entbus"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/order"
	"github.com/jcpaschoal/erp-exata/business/sdk/page"
	"github.com/jcpaschoal/erp-exata/business/sdk/web"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/role"
)

type app struct {
	tenantBus *tenantbus.Core
	entBus    *entbus.Core
}

func newApp(tenantBus *tenantbus.Core, entBus *entbus.Core) *app {
	return &app{
		tenantBus: tenantBus,
		entBus:    entBus,
	}
}

// create provisions a new tenant with its initial set of modules.
func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewTenant
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	nt, err := toBusNewTenant(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	tnt, err := a.tenantBus.Create(ctx, nt, mid.GetClaims(ctx).Subject)
	if err != nil {
		if errors.Is(err, tenantbus.ErrUniqueSlug) {
			return errs.New(errs.Aborted, tenantbus.ErrUniqueSlug)
		}
		if errors.Is(err, tenantbus.ErrModuleNotFound) {
			return errs.New(errs.InvalidArgument, err)
		}
		return errs.Errorf(errs.InternalOnlyLog, "create: slug[%s]: %s", app.Slug, err)
	}

	status, err := a.tenantBus.QueryModuleStatus(ctx, tnt.ID)
	if err != nil {
		return errs.Errorf(errs.Internal, "querymodulestatus: tenantID[%s]: %s", tnt.ID, err)
	}

	return toAppTenant(tnt, status)
}

// update applies a partial update to a tenant.
func (a *app) update(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateTenant
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	tnt, err := a.tenant(ctx, r)
	if err != nil {
		return err
	}

	ut, errT := toBusUpdateTenant(app)
	if errT != nil {
		return errs.New(errs.InvalidArgument, errT)
	}

	updTnt, errT := a.tenantBus.Update(ctx, tnt, ut)
	if errT != nil {
		return errs.Errorf(errs.InternalOnlyLog, "update: tenantID[%s] ut[%+v]: %s", tnt.ID, ut, errT)
	}

	return toAppTenant(updTnt, nil)
}

// delete removes a tenant. The operation is refused while dependent records
// still reference the tenant.
func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	tnt, err := a.tenant(ctx, r)
	if err != nil {
		return err
	}

	if errD := a.tenantBus.Delete(ctx, tnt); errD != nil {
		if errors.Is(errD, tenantbus.ErrHasAssociatedData) {
			return errs.New(errs.Aborted, errD)
		}
		return errs.Errorf(errs.InternalOnlyLog, "delete: tenantID[%s]: %s", tnt.ID, errD)
	}

	return nil
}

// query returns a list of tenants with paging.
func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	qp := parseQueryParams(r)

	page, err := page.Parse(qp.Page, qp.Rows)
	if err != nil {
		return errs.NewFieldErrors("page", err)
	}

	filter, err := parseFilter(qp)
	if err != nil {
		if v, ok := err.(*errs.Error); ok {
			return v
		}
		return errs.NewFieldErrors("filter", err)
	}

	orderBy, err := order.Parse(orderByFields, qp.OrderBy, tenantbus.DefaultOrderBy)
	if err != nil {
		return errs.NewFieldErrors("order", err)
	}

	tnts, err := a.tenantBus.Query(ctx, filter, orderBy, page)
	if err != nil {
		return errs.Errorf(errs.Internal, "query: %s", err)
	}

	total, err := a.tenantBus.Count(ctx, filter)
	if err != nil {
		return errs.Errorf(errs.Internal, "count: %s", err)
	}

	return query.NewResult(toAppTenants(tnts), total, page)
}

// queryByID returns a tenant by its ID along with the full module status.
func (a *app) queryByID(ctx context.Context, r *http.Request) web.Encoder {
	tnt, err := a.tenant(ctx, r)
	if err != nil {
		return err
	}

	status, errS := a.tenantBus.QueryModuleStatus(ctx, tnt.ID)
	if errS != nil {
		return errs.Errorf(errs.Internal, "querymodulestatus: tenantID[%s]: %s", tnt.ID, errS)
	}

	return toAppTenant(tnt, status)
}

// toggle flips one module on or off for a tenant and returns the refreshed
// module status.
func (a *app) toggle(ctx context.Context, r *http.Request) web.Encoder {
	var app ToggleModule
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	tnt, err := a.tenant(ctx, r)
	if err != nil {
		return err
	}

	key, errK := modulekey.Parse(app.ModuleKey)
	if errK != nil {
		return errs.NewFieldErrors("moduleKey", errK)
	}

	reason := app.Reason
	if reason == "" {
		if app.IsEnabled {
			reason = tenantbus.ReasonEnabledByAdmin
		} else {
			reason = tenantbus.ReasonDisabledByAdmin
		}
	}

	actor := mid.GetClaims(ctx).Subject

	if _, errT := a.tenantBus.ToggleModule(ctx, tnt.ID, key, app.IsEnabled, reason, actor); errT != nil {
		if errors.Is(errT, tenantbus.ErrModuleNotFound) {
			return errs.New(errs.NotFound, errT)
		}
		return errs.Errorf(errs.InternalOnlyLog, "togglemodule: tenantID[%s] key[%s]: %s", tnt.ID, key, errT)
	}

	status, errS := a.tenantBus.QueryModuleStatus(ctx, tnt.ID)
	if errS != nil {
		return errs.Errorf(errs.Internal, "querymodulestatus: tenantID[%s]: %s", tnt.ID, errS)
	}

	return toAppTenant(tnt, status)
}

// reconcile converges the tenant's entitlements to the desired list of module
// keys. The route runs under a database transaction, so either every flip is
// recorded with its audit entry or none is.
func (a *app) reconcile(ctx context.Context, r *http.Request) web.Encoder {
	var app ReconcileModules
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	tx, err := mid.GetTran(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "transaction missing in context: %s", err)
	}

	tenantBus, err := a.tenantBus.NewWithTx(tx)
	if err != nil {
		return errs.Errorf(errs.Internal, "newwithtx: %s", err)
	}

	tnt, errT := a.tenantWith(ctx, r, tenantBus)
	if errT != nil {
		return errT
	}

	desired := make([]modulekey.ModuleKey, len(app.Modules))
	for i, m := range app.Modules {
		key, err := modulekey.Parse(m)
		if err != nil {
			return errs.NewFieldErrors("modules", err)
		}
		desired[i] = key
	}

	actor := mid.GetClaims(ctx).Subject

	if err := tenantBus.UpdateModules(ctx, tnt.ID, desired, actor); err != nil {
		if errors.Is(err, tenantbus.ErrModuleNotFound) {
			return errs.New(errs.InvalidArgument, err)
		}
		return errs.Errorf(errs.InternalOnlyLog, "updatemodules: tenantID[%s]: %s", tnt.ID, err)
	}

	status, err := tenantBus.QueryModuleStatus(ctx, tnt.ID)
	if err != nil {
		return errs.Errorf(errs.Internal, "querymodulestatus: tenantID[%s]: %s", tnt.ID, err)
	}

	return toAppTenant(tnt, status)
}

// history returns the entitlement transitions of a tenant, most recent first.
func (a *app) history(ctx context.Context, r *http.Request) web.Encoder {
	tnt, err := a.tenant(ctx, r)
	if err != nil {
		return err
	}

	transitions, errH := a.tenantBus.QueryModuleHistory(ctx, tnt.ID)
	if errH != nil {
		return errs.Errorf(errs.Internal, "querymodulehistory: tenantID[%s]: %s", tnt.ID, errH)
	}

	return toAppHistory(transitions)
}

// enabledModules returns the navigation contract for the caller's tenant,
// filtered by what the caller's role is allowed to see.
func (a *app) enabledModules(ctx context.Context, r *http.Request) web.Encoder {
	tenantID, err := mid.GetTenantID(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	rle, err := role.Parse(mid.GetClaims(ctx).Role)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	nav, err := a.entBus.QueryNavigation(ctx, tenantID, rle)
	if err != nil {
		return errs.Errorf(errs.Internal, "querynavigation: tenantID[%s]: %s", tenantID, err)
	}

	return toAppNavigation(nav)
}

// =============================================================================

func (a *app) tenant(ctx context.Context, r *http.Request) (tenantbus.Tenant, *errs.Error) {
	return a.tenantWith(ctx, r, a.tenantBus)
}

func (a *app) tenantWith(ctx context.Context, r *http.Request, bus *tenantbus.Core) (tenantbus.Tenant, *errs.Error) {
	id := web.Param(r, "tenant_id")

	tenantID, err := uuid.Parse(id)
	if err != nil {
		return tenantbus.Tenant{}, errs.NewFieldErrors("tenant_id", err)
	}

	tnt, err := bus.QueryByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, tenantbus.ErrNotFound) {
			return tenantbus.Tenant{}, errs.New(errs.NotFound, err)
		}
		return tenantbus.Tenant{}, errs.Errorf(errs.InternalOnlyLog, "querybyid: tenantID[%s]: %s", tenantID, err)
	}

	return tnt, nil
}
