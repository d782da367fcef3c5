package tenantdb

import (
	"fmt"

	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/sdk/order"
)

var orderByFields = map[string]string{
	tenantbus.OrderByID:        "t.tenant_id",
	tenantbus.OrderByName:      "t.name",
	tenantbus.OrderBySlug:      "t.slug",
	tenantbus.OrderByPlan:      "t.plan",
	tenantbus.OrderByEnabled:   "t.enabled",
	tenantbus.OrderByCreatedAt: "t.created_at",
}

func orderByClause(orderBy order.By) (string, error) {
	by, exists := orderByFields[orderBy.Field]
	if !exists {
		return "", fmt.Errorf("field %q does not exist", orderBy.Field)
	}

	return " ORDER BY " + by + " " + orderBy.Direction, nil
}
