package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/clinical-monitor/internal/application"
	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
	handlers "github.com/oksasatya/clinical-monitor/internal/interface/http"
	"github.com/oksasatya/clinical-monitor/internal/interface/middleware"
)

// AccountModule registers the signed-in account endpoints:
// GET /api/me, GET /api/accounts/search, PUT /api/profile/avatar
// and the administrator-only GET /api/dashboard/stats.
type AccountModule struct {
	Accounts  *handlers.AccountHandler
	Dashboard *handlers.DashboardHandler
	Sessions  application.SessionIssuer
	RDB       *redis.Client
	Logger    *logrus.Logger
}

func NewAccountModule(accounts *handlers.AccountHandler, dashboard *handlers.DashboardHandler, sessions application.SessionIssuer, rdb *redis.Client, logger *logrus.Logger) *AccountModule {
	return &AccountModule{Accounts: accounts, Dashboard: dashboard, Sessions: sessions, RDB: rdb, Logger: logger}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Session(m.Sessions, m.Logger))
	auth.Use(middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByAccountID(), nil))
	{
		auth.GET("/me", m.Accounts.Me)
		auth.PUT("/profile/avatar", m.Accounts.UploadAvatar)
		auth.GET("/accounts/search",
			middleware.RequireAccountType(entity.AccountTypeClinician, entity.AccountTypeAdministrator),
			m.Accounts.Search,
		)
		auth.GET("/dashboard/stats",
			middleware.RequireAccountType(entity.AccountTypeAdministrator),
			m.Dashboard.Stats,
		)
	}
}
