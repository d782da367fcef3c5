package mid

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jcpaschoal/erp-exata/app/sdk/auth"
	"github.com/jcpaschoal/erp-exata/app/sdk/errs"
	"github.com/jcpaschoal/erp-exata/business/sdk/web"
	"github.com/jcpaschoal/erp-exata/business/types/actions"
	"github.com/jcpaschoal/erp-exata/business/types/role"
)

var ErrInvalidID = errors.New("ID is not in its proper form")

// Authorize valida se o usuário autenticado tem uma das roles permitidas
// para a rota.
func Authorize(ath *auth.Auth, allowedRoles ...role.Role) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			claims := GetClaims(ctx)

			if err := ath.Authorize(ctx, claims, allowedRoles...); err != nil {
				return errs.New(errs.PermissionDenied, err)
			}

			return next(ctx, r)
		}

		return h
	}

	return m
}

func mapHTTPMethodToAction(method string) (actions.Action, error) {
	switch method {
	case http.MethodGet:
		return actions.Get, nil
	case http.MethodPost:
		return actions.Create, nil
	case http.MethodPut, http.MethodPatch:
		return actions.Update, nil
	case http.MethodDelete:
		return actions.Delete, nil
	default:
		return actions.Action{}, fmt.Errorf("action: %s", method)
	}
}
