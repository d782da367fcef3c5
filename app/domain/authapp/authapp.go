// Package authapp maintains the app layer api for authentication.
package authapp

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/jcpaschoal/erp-exata/app/sdk/auth"
	"github.com/jcpaschoal/erp-exata/app/sdk/errs"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/web"
	"github.com/jcpaschoal/erp-exata/business/types/role"
)

type app struct {
	auth      *auth.Auth
	tenantBus *tenantbus.Core
}

func newApp(auth *auth.Auth, tenantBus *tenantbus.Core) *app {
	return &app{
		auth:      auth,
		tenantBus: tenantBus,
	}
}

func (a *app) login(ctx context.Context, r *http.Request) web.Encoder {
	var req Login

	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	addr, err := mail.ParseAddress(req.Email)
	if err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("parsing email: %w", err))
	}

	usr, err := a.auth.Login(ctx, *addr, req.Password)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	// Usuários comuns só autenticam pelo subdomínio do próprio tenant.
	if usr.Role.Equal(role.User) {
		slug := tenantSlug(r.Host)

		tenantID, err := a.tenantBus.QueryIDBySlug(ctx, slug)
		if err != nil || tenantID != usr.TenantID {
			return errs.New(errs.PermissionDenied, auth.ErrForbidden)
		}
	}

	tokenStr, err := a.auth.GenerateToken(usr.ID.String(), usr.TenantID, usr.ID, usr.Role)
	if err != nil {
		return errs.New(errs.Internal, err)
	}

	return toAppToken(tokenStr)
}

// tenantSlug extrai o primeiro label do host (ex: acme.erp.exata -> acme).
func tenantSlug(host string) string {
	domain := auth.ExtractDomain(host)

	if i := strings.Index(domain, "."); i > 0 {
		return domain[:i]
	}
	return domain
}
