package router

import (
	"github.com/oksasatya/clinical-monitor/internal/application"
	"github.com/oksasatya/clinical-monitor/internal/container"
	pginfra "github.com/oksasatya/clinical-monitor/internal/infrastructure/postgres"
	"github.com/oksasatya/clinical-monitor/internal/infrastructure/redisstore"
	"github.com/oksasatya/clinical-monitor/internal/infrastructure/search"
	handlers "github.com/oksasatya/clinical-monitor/internal/interface/http"
	"github.com/oksasatya/clinical-monitor/internal/router/modules"
	"github.com/oksasatya/clinical-monitor/pkg/helpers"
)

type AccountModuleDeps struct {
	Service   *application.Service
	Sessions  *application.SessionService
	Auth      *handlers.AuthHandler
	Accounts  *handlers.AccountHandler
	Dashboard *handlers.DashboardHandler
}

func buildAccountDeps() AccountModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	sessions := application.NewSessionService(
		redisstore.NewSessionStore(container.GetRedis()),
		container.GetJWT(),
		helpers.NewCookie(cfg.SessionCookieName, cfg.CookieDomain, cfg.CookieSecure),
		logger,
	)

	svc := application.NewService(
		pginfra.NewAccountRepository(pool),
		pginfra.NewAuthEventRepository(pool),
		sessions,
		logger,
		cfg,
	)
	// Optional collaborators are only assigned when present so the service
	// never sees a typed-nil interface.
	if pub := container.GetRabbitPub(); pub != nil {
		svc.Mail = pub
	}
	if es := container.GetES(); es != nil {
		svc.Index = search.NewAccountIndex(es, cfg.ESAccountsIndex)
	}
	if up := container.GetAvatars(); up != nil {
		svc.Avatars = up
	}

	return AccountModuleDeps{
		Service:   svc,
		Sessions:  sessions,
		Auth:      handlers.NewAuthHandler(svc, logger),
		Accounts:  handlers.NewAccountHandler(svc, logger),
		Dashboard: handlers.NewDashboardHandler(svc, logger),
	}
}

// InitModules builds every application module from the container and
// registers it with the router registry. Call once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	rdb := container.GetRedis()
	deps := buildAccountDeps()

	r.Add(modules.NewAuthModule(deps.Auth, rdb, cfg.SigninRatePerMin, cfg.SignupRatePerMin))
	r.Add(modules.NewAccountModule(deps.Accounts, deps.Dashboard, deps.Sessions, rdb, container.GetLogger()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb))
	}
}
