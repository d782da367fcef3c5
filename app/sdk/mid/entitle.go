package mid

import (
	"context"
	"net/http"

	"github.com/jcpaschoal/erp-exata/app/sdk/errs"
	"github.com/jcpaschoal/erp-exata/business/domain/entbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/web"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/role"
)

// Entitled guards a module route. The request only passes when the module is
// enabled for the token's tenant and the catalog permissions allow the role
// to perform the action implied by the HTTP method.
func Entitled(entBus *entbus.Core, key modulekey.ModuleKey) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			tenantID, err := GetTenantID(ctx)
			if err != nil {
				return errs.New(errs.Unauthenticated, err)
			}

			if err := entBus.Enabled(ctx, tenantID, key); err != nil {
				return errs.New(errs.PermissionDenied, err)
			}

			act, err := mapHTTPMethodToAction(r.Method)
			if err != nil {
				return errs.New(errs.FailedPrecondition, err)
			}

			rle, err := role.Parse(GetClaims(ctx).Role)
			if err != nil {
				return errs.New(errs.Unauthenticated, err)
			}

			check := entbus.AccessCheck{
				Role:   rle,
				Module: key,
				Action: act,
			}

			if err := entBus.Check(ctx, check); err != nil {
				return errs.New(errs.PermissionDenied, err)
			}

			return next(ctx, r)
		}

		return h
	}

	return m
}
