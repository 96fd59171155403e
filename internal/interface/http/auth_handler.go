package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/clinical-monitor/internal/application"
	"github.com/oksasatya/clinical-monitor/internal/interface/middleware"
	"github.com/oksasatya/clinical-monitor/pkg/helpers"
	"github.com/oksasatya/clinical-monitor/pkg/response"
)

// SignoutRedirect is where the browser lands after signing out.
const SignoutRedirect = "/auth"

// AuthHandler serves the sign-up, sign-in and sign-out endpoints used by the
// web front end. Every failure is a 400 with {"error": message}.
type AuthHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	AccountType string `json:"accountType"`
}

func (r credentialsRequest) credentials() application.Credentials {
	return application.Credentials{Email: r.Email, Password: r.Password, AccountType: r.AccountType}
}

func requestMeta(c *gin.Context) application.RequestMeta {
	return application.RequestMeta{IP: middleware.ClientIP(c), UserAgent: c.GetHeader("User-Agent")}
}

func (h *AuthHandler) fail(c *gin.Context, op string, err error) {
	if kind := application.KindOf(err); kind == application.KindPersistence || kind == 0 {
		helpers.LogError(h.Logger, "auth request failed", err, logrus.Fields{
			"op":         op,
			"request_id": c.GetString(middleware.CtxRequestIDKey),
		})
	}
	response.Fail(c, http.StatusBadRequest, application.PublicMessage(err))
}

// bind decodes the body. A malformed body is treated as empty input so the
// caller gets the same message as for missing fields.
func bind(c *gin.Context) application.Credentials {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return application.Credentials{}
	}
	return req.credentials()
}

func (h *AuthHandler) Signup(c *gin.Context) {
	in := bind(c)
	meta := requestMeta(c)
	ctx := c.Request.Context()

	if _, err := h.Svc.SignUp(ctx, in, meta); err != nil {
		h.fail(c, "signup", err)
		return
	}
	a, err := h.Svc.SignIn(ctx, c, in, meta)
	if err != nil {
		h.fail(c, "signup", err)
		return
	}
	response.Redirect(c, a.AccountType.DashboardPath())
}

func (h *AuthHandler) Signin(c *gin.Context) {
	a, err := h.Svc.SignIn(c.Request.Context(), c, bind(c), requestMeta(c))
	if err != nil {
		h.fail(c, "signin", err)
		return
	}
	response.Redirect(c, a.AccountType.DashboardPath())
}

func (h *AuthHandler) Signout(c *gin.Context) {
	h.Svc.SignOut(c.Request.Context(), c, requestMeta(c))
	response.Redirect(c, SignoutRedirect)
}

