package tenantapp

import (
	"net/mail"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/name"
	"github.com/jcpaschoal/erp-exata/business/types/plan"
	"github.com/jcpaschoal/erp-exata/business/types/slug"
)

func Test_toAppTenantEnabledModules(t *testing.T) {
	now := time.Now()

	bus := tenantbus.Tenant{
		ID:           uuid.New(),
		Name:         name.MustParse("Acme Corp"),
		Slug:         slug.MustParse("acme"),
		ContactEmail: mail.Address{Address: "admin@acme.com"},
		Plan:         plan.Pro,
		MaxUsers:     5,
		MaxServers:   1,
		MaxStorageGB: 10,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	status := []tenantbus.ModuleStatus{
		{ModuleID: uuid.New(), Key: modulekey.MustParse("dashboard"), DisplayName: "Dashboard", IsEnabled: true, EnabledAt: &now},
		{ModuleID: uuid.New(), Key: modulekey.MustParse("crm"), DisplayName: "CRM", IsEnabled: true, EnabledAt: &now},
		{ModuleID: uuid.New(), Key: modulekey.MustParse("billing"), DisplayName: "Billing", IsEnabled: false, DisabledAt: &now},
	}

	app := toAppTenant(bus, status)

	// The flat key list carries only the enabled entries, the status list
	// carries the full catalog view.
	want := []string{"dashboard", "crm"}
	if diff := cmp.Diff(want, app.EnabledModules); diff != "" {
		t.Errorf("enabled modules mismatch (-want +got):\n%s", diff)
	}

	if len(app.Modules) != 3 {
		t.Errorf("expected the full status list, got %d entries", len(app.Modules))
	}
}
