package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/clinical-monitor/internal/interface/http"
	"github.com/oksasatya/clinical-monitor/internal/interface/middleware"
)

// AuthModule registers the public sign-up, sign-in and sign-out endpoints.
type AuthModule struct {
	Handler       *handlers.AuthHandler
	RDB           *redis.Client
	SigninPerMin  int
	SignupPerMin  int
	SignoutPerMin int
}

func NewAuthModule(h *handlers.AuthHandler, rdb *redis.Client, signinPerMin, signupPerMin int) *AuthModule {
	return &AuthModule{Handler: h, RDB: rdb, SigninPerMin: signinPerMin, SignupPerMin: signupPerMin, SignoutPerMin: 60}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	signupLimiter := middleware.RateLimit(m.RDB, m.SignupPerMin, time.Minute, middleware.KeyByIPAndPath(), nil)
	signinLimiter := middleware.RateLimit(m.RDB, m.SigninPerMin, time.Minute, middleware.KeyByIPAndPath(), nil)
	signoutLimiter := middleware.RateLimit(m.RDB, m.SignoutPerMin, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/signup", signupLimiter, m.Handler.Signup)
	rg.POST("/auth/signin", signinLimiter, m.Handler.Signin)
	rg.POST("/auth/signout", signoutLimiter, m.Handler.Signout)
}
