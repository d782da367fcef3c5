package modulekey_test

import (
	"testing"

	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
)

func Test_Parse(t *testing.T) {
	valid := []string{"crm", "billing", "service-desk", "crm2", "a1-b2-c3"}
	for _, v := range valid {
		key, err := modulekey.Parse(v)
		if err != nil {
			t.Errorf("expected %q to parse, got %s", v, err)
			continue
		}
		if key.String() != v {
			t.Errorf("expected %q, got %q", v, key.String())
		}
	}

	// Keys double as URL route segments, so anything that would not survive
	// in a path is rejected.
	invalid := []string{"", "x", "CRM", "crm_core", "crm ", "-crm", "crm-", "crm--core", "crm/core"}
	for _, v := range invalid {
		if _, err := modulekey.Parse(v); err == nil {
			t.Errorf("expected %q to be rejected", v)
		}
	}
}
