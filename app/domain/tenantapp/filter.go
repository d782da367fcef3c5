package tenantapp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/app/sdk/errs"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/types/name"
	"github.com/jcpaschoal/erp-exata/business/types/plan"
	"github.com/jcpaschoal/erp-exata/business/types/slug"
)

// queryParams struct interna para capturar os dados crus da URL.
type queryParams struct {
	Page             string
	Rows             string
	OrderBy          string
	ID               string
	Name             string
	Slug             string
	Plan             string
	Enabled          string
	StartCreatedDate string
	EndCreatedDate   string
}

// parseQueryParams extrai os parâmetros da request.
func parseQueryParams(r *http.Request) queryParams {
	values := r.URL.Query()

	return queryParams{
		Page:             values.Get("page"),
		Rows:             values.Get("rows"),
		OrderBy:          values.Get("orderBy"),
		ID:               values.Get("tenant_id"),
		Name:             values.Get("name"),
		Slug:             values.Get("slug"),
		Plan:             values.Get("plan"),
		Enabled:          values.Get("enabled"),
		StartCreatedDate: values.Get("start_created_date"),
		EndCreatedDate:   values.Get("end_created_date"),
	}
}

// parseFilter valida e converte os parâmetros crus para o filtro de domínio.
// Retorna erro agregado (FieldErrors) se houver falhas de validação.
func parseFilter(qp queryParams) (tenantbus.QueryFilter, error) {
	var fieldErrors errs.FieldErrors
	var filter tenantbus.QueryFilter

	if qp.ID != "" {
		id, err := uuid.Parse(qp.ID)
		switch err {
		case nil:
			filter.ID = &id
		default:
			fieldErrors.Add("tenant_id", err)
		}
	}

	if qp.Name != "" {
		nme, err := name.Parse(qp.Name)
		switch err {
		case nil:
			filter.Name = &nme
		default:
			fieldErrors.Add("name", err)
		}
	}

	if qp.Slug != "" {
		slg, err := slug.Parse(qp.Slug)
		switch err {
		case nil:
			filter.Slug = &slg
		default:
			fieldErrors.Add("slug", err)
		}
	}

	if qp.Plan != "" {
		pln, err := plan.Parse(qp.Plan)
		switch err {
		case nil:
			filter.Plan = &pln
		default:
			fieldErrors.Add("plan", err)
		}
	}

	if qp.Enabled != "" {
		enabled, err := strconv.ParseBool(qp.Enabled)
		switch err {
		case nil:
			filter.Enabled = &enabled
		default:
			fieldErrors.Add("enabled", err)
		}
	}

	if qp.StartCreatedDate != "" {
		t, err := time.Parse(time.RFC3339, qp.StartCreatedDate)
		switch err {
		case nil:
			filter.StartCreatedAt = &t
		default:
			fieldErrors.Add("start_created_date", err)
		}
	}

	if qp.EndCreatedDate != "" {
		t, err := time.Parse(time.RFC3339, qp.EndCreatedDate)
		switch err {
		case nil:
			filter.EndCreatedAt = &t
		default:
			fieldErrors.Add("end_created_date", err)
		}
	}

	if fieldErrors != nil {
		return tenantbus.QueryFilter{}, fieldErrors.ToError()
	}

	return filter, nil
}
