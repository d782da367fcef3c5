package tenantbus

import "github.com/jcpaschoal/erp-exata/business/sdk/order"

var DefaultOrderBy = order.NewBy(OrderByName, order.ASC)

const (
	OrderByID        = "a"
	OrderByName      = "b"
	OrderBySlug      = "c"
	OrderByPlan      = "d"
	OrderByEnabled   = "e"
	OrderByCreatedAt = "f"
)
