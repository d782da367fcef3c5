package entcache

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/jcpaschoal/erp-exata/business/domain/entbus"
	"github.com/jcpaschoal/erp-exata/business/types/role"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
)

const casbinModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == "ROLE:ADMIN" || (r.sub == p.sub && r.obj == p.obj && r.act == p.act)
`

type memoryCache struct {
	log      *logger.Logger
	enforcer *casbin.Enforcer
}

func newMemoryCache(log *logger.Logger) (*memoryCache, error) {
	m, err := model.NewModelFromString(casbinModel)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	return &memoryCache{
		log:      log,
		enforcer: e,
	}, nil
}

// add inserts a policy. Failures are logged with the provided context.
func (c *memoryCache) add(ctx context.Context, p entbus.Policy) {
	obj := p.Module.String()
	act := p.Action.String()

	for _, r := range p.Roles {
		sub := subject(r)

		if _, err := c.enforcer.AddPolicy(sub, obj, act); err != nil {
			c.log.Error(ctx, "entcache: casbin add policy failed", "sub", sub, "obj", obj, "act", act, "err", err)
		}
	}
}

// clear drops every loaded policy so a resync starts from an empty set.
func (c *memoryCache) clear() {
	c.enforcer.ClearPolicy()
}

func (c *memoryCache) check(ctx context.Context, check entbus.AccessCheck) error {
	sub := subject(check.Role)

	ok, err := c.enforcer.Enforce(sub, check.Module.String(), check.Action.String())
	if err != nil {
		return fmt.Errorf("enforce: %w", err)
	}
	if ok {
		return nil
	}

	return fmt.Errorf("denied in cache")
}

func subject(r role.Role) string {
	return "ROLE:" + r.String()
}
