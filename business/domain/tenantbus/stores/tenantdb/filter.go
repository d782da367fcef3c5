package tenantdb

import (
	"bytes"
	"strings"

	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
)

func applyFilter(filter tenantbus.QueryFilter, data map[string]any, buf *bytes.Buffer) {
	var wc []string

	if filter.ID != nil {
		data["tenant_id"] = *filter.ID
		wc = append(wc, "t.tenant_id = :tenant_id")
	}

	if filter.Name != nil {
		data["name"] = "%" + filter.Name.String() + "%"
		wc = append(wc, "t.name LIKE :name")
	}

	if filter.Slug != nil {
		data["slug"] = filter.Slug.String()
		wc = append(wc, "t.slug = :slug")
	}

	if filter.Plan != nil {
		data["plan"] = filter.Plan.String()
		wc = append(wc, "t.plan = :plan")
	}

	if filter.Enabled != nil {
		data["enabled"] = *filter.Enabled
		wc = append(wc, "t.enabled = :enabled")
	}

	if filter.StartCreatedAt != nil {
		data["start_created_at"] = filter.StartCreatedAt.UTC()
		wc = append(wc, "t.created_at >= :start_created_at")
	}

	if filter.EndCreatedAt != nil {
		data["end_created_at"] = filter.EndCreatedAt.UTC()
		wc = append(wc, "t.created_at <= :end_created_at")
	}

	if len(wc) > 0 {
		buf.WriteString(" WHERE ")
		buf.WriteString(strings.Join(wc, " AND "))
	}
}
