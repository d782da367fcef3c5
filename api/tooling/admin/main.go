// This program performs administrative tasks for the service.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/erp-exata/business/domain/auditbus"
	"github.com/jcpaschoal/erp-exata/business/domain/auditbus/stores/auditdb"
	"github.com/jcpaschoal/erp-exata/business/domain/modulebus"
	"github.com/jcpaschoal/erp-exata/business/domain/modulebus/stores/moduledb"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus"
	"github.com/jcpaschoal/erp-exata/business/domain/tenantbus/stores/tenantdb"
	"github.com/jcpaschoal/erp-exata/business/domain/userbus"
	"github.com/jcpaschoal/erp-exata/business/domain/userbus/stores/userdb"
	"github.com/jcpaschoal/erp-exata/business/sdk/dbmigrate"
	"github.com/jcpaschoal/erp-exata/business/sdk/sqldb"
	"github.com/jcpaschoal/erp-exata/business/types/modulekey"
	"github.com/jcpaschoal/erp-exata/business/types/name"
	"github.com/jcpaschoal/erp-exata/business/types/password"
	"github.com/jcpaschoal/erp-exata/business/types/phone"
	"github.com/jcpaschoal/erp-exata/business/types/plan"
	"github.com/jcpaschoal/erp-exata/business/types/role"
	"github.com/jcpaschoal/erp-exata/business/types/slug"
	"github.com/jcpaschoal/erp-exata/foundation/logger"
	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
)

// Config replicates necessary DB config structure
type Config struct {
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"erp"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"0"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"0"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
	}
}

func main() {
	log := logger.New(os.Stdout, logger.LevelInfo, "ADMIN-TOOL", nil)
	ctx := context.Background()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("processing config: %w", err)
	}

	db, err := sqldb.Open(sqldb.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		DisableTLS:   cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer db.Close()

	moduleBus := modulebus.NewCore(log, moduledb.NewStore(log, db))
	auditBus := auditbus.NewCore(log, auditdb.NewStore(log, db))
	tenantBus := tenantbus.NewCore(log, moduleBus, auditBus, tenantdb.NewStore(log, db))
	userBus := userbus.NewCore(userdb.NewStore(log, db))

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands: migrate, seed, create-tenant, create-user, toggle-module")
		return nil
	}

	switch os.Args[1] {
	case "migrate":
		return runMigrate(ctx, db)
	case "seed":
		return runSeed(ctx, db)
	case "create-tenant":
		return runCreateTenant(ctx, tenantBus, os.Args[2:])
	case "create-user":
		return runCreateUser(ctx, userBus, os.Args[2:])
	case "toggle-module":
		return runToggleModule(ctx, tenantBus, os.Args[2:])
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func runMigrate(ctx context.Context, db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := dbmigrate.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	fmt.Println("migrations complete")
	return nil
}

func runSeed(ctx context.Context, db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := dbmigrate.Seed(ctx, db); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	fmt.Println("seed complete")
	return nil
}

func runCreateTenant(ctx context.Context, tb *tenantbus.Core, args []string) error {
	cmd := flag.NewFlagSet("create-tenant", flag.ExitOnError)
	nameStr := cmd.String("name", "", "Tenant name (Required)")
	slugStr := cmd.String("slug", "", "Tenant slug (Required)")
	emailStr := cmd.String("email", "", "Contact email (Required)")
	planStr := cmd.String("plan", "FREE", "Plan (FREE, BASIC, PRO, ENTERPRISE)")
	modulesStr := cmd.String("modules", "", "Comma separated module keys to enable")
	cmd.Parse(args)

	if *nameStr == "" || *slugStr == "" || *emailStr == "" {
		cmd.PrintDefaults()
		return fmt.Errorf("missing required fields")
	}

	n, err := name.Parse(*nameStr)
	if err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}

	s, err := slug.Parse(*slugStr)
	if err != nil {
		return fmt.Errorf("invalid slug: %w", err)
	}

	addr, err := mail.ParseAddress(*emailStr)
	if err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	p, err := plan.Parse(*planStr)
	if err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}

	var modules []modulekey.ModuleKey
	if *modulesStr != "" {
		for _, m := range strings.Split(*modulesStr, ",") {
			key, err := modulekey.Parse(strings.TrimSpace(m))
			if err != nil {
				return fmt.Errorf("invalid module key %q: %w", m, err)
			}
			modules = append(modules, key)
		}
	}

	nt := tenantbus.NewTenant{
		Name:         n,
		Slug:         s,
		ContactEmail: *addr,
		Plan:         p,
		MaxUsers:     5,
		MaxStorageGB: 10,
		Modules:      modules,
	}

	tnt, err := tb.Create(ctx, nt, "admin-tool")
	if err != nil {
		return fmt.Errorf("creating tenant: %w", err)
	}

	fmt.Printf("tenant created: %s\n", tnt.ID)
	return nil
}

func runCreateUser(ctx context.Context, ub *userbus.Core, args []string) error {
	cmd := flag.NewFlagSet("create-user", flag.ExitOnError)
	emailStr := cmd.String("email", "", "User email (Required)")
	passStr := cmd.String("password", "", "User password (Required)")
	nameStr := cmd.String("name", "", "User full name (Required)")
	roleStr := cmd.String("role", "USER", "User role (ADMIN, ANALYST, USER)")
	tenantStr := cmd.String("tenant", "", "Tenant ID to attach the user to")
	phoneStr := cmd.String("phone", "", "User phone")
	cmd.Parse(args)

	if *emailStr == "" || *passStr == "" || *nameStr == "" {
		cmd.PrintDefaults()
		return fmt.Errorf("missing required fields")
	}

	n, err := name.Parse(*nameStr)
	if err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}

	r, err := role.Parse(*roleStr)
	if err != nil {
		return fmt.Errorf("invalid role: %w", err)
	}

	p, err := password.Parse(*passStr)
	if err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	addr, err := mail.ParseAddress(*emailStr)
	if err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	ph, err := phone.ParseNull(*phoneStr)
	if err != nil {
		return fmt.Errorf("invalid phone: %w", err)
	}

	var tenantID uuid.UUID
	if *tenantStr != "" {
		tenantID, err = uuid.Parse(*tenantStr)
		if err != nil {
			return fmt.Errorf("invalid tenant id: %w", err)
		}
	}

	newUser := userbus.NewUser{
		TenantID: tenantID,
		Name:     n,
		Email:    *addr,
		Phone:    ph,
		Role:     r,
		Password: p,
	}

	usr, err := ub.Create(ctx, newUser)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	fmt.Printf("user created: %s\n", usr.ID)
	return nil
}

func runToggleModule(ctx context.Context, tb *tenantbus.Core, args []string) error {
	cmd := flag.NewFlagSet("toggle-module", flag.ExitOnError)
	tenantStr := cmd.String("tenant", "", "Tenant ID (Required)")
	moduleStr := cmd.String("module", "", "Module key (Required)")
	enable := cmd.Bool("enable", true, "Enable or disable the module")
	reason := cmd.String("reason", "", "Reason for the transition")
	cmd.Parse(args)

	if *tenantStr == "" || *moduleStr == "" {
		cmd.PrintDefaults()
		return fmt.Errorf("missing required fields")
	}

	tenantID, err := uuid.Parse(*tenantStr)
	if err != nil {
		return fmt.Errorf("invalid tenant id: %w", err)
	}

	key, err := modulekey.Parse(*moduleStr)
	if err != nil {
		return fmt.Errorf("invalid module key: %w", err)
	}

	r := *reason
	if r == "" {
		if *enable {
			r = tenantbus.ReasonEnabledByAdmin
		} else {
			r = tenantbus.ReasonDisabledByAdmin
		}
	}

	tm, err := tb.ToggleModule(ctx, tenantID, key, *enable, r, "admin-tool")
	if err != nil {
		return fmt.Errorf("toggling module: %w", err)
	}

	fmt.Printf("module %s enabled=%t for tenant %s\n", tm.ModuleKey, tm.Enabled, tenantID)
	return nil
}
