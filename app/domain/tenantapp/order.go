package tenantapp

import (
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
)

var orderByFields = map[string]string{
	"tenant_id":    tenantbus.OrderByID,
	"name":         tenantbus.OrderByName,
	"slug":         tenantbus.OrderBySlug,
	"plan":         tenantbus.OrderByPlan,
	"enabled":      tenantbus.OrderByEnabled,
	"date_created": tenantbus.OrderByCreatedAt,
}
