package moduledb

import (
	"bytes"
	"strings"

	"github.com/jcpaschoal/erp-exata/business/domain/modulebus"
)

func applyFilter(filter modulebus.QueryFilter, data map[string]any, buf *bytes.Buffer) {
	var wc []string

	if filter.IsActive != nil {
		data["is_active"] = *filter.IsActive
		wc = append(wc, "is_active = :is_active")
	}

	if filter.Category != nil {
		data["category"] = filter.Category.String()
		wc = append(wc, "category = :category")
	}

	if len(wc) > 0 {
		buf.WriteString(" WHERE ")
		buf.WriteString(strings.Join(wc, " AND "))
	}
}
