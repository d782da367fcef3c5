package tenantbus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/types/name"
	"github.com/jcpaschoal/erp-exata/business/types/plan"
	"github.com/jcpaschoal/erp-exata/business/types/slug"
)

type QueryFilter struct {
	ID             *uuid.UUID
	Name           *name.Name
	Slug           *slug.Slug
	Plan           *plan.Plan
	Enabled        *bool
	StartCreatedAt *time.Time
	EndCreatedAt   *time.Time
}
