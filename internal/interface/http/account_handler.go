package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/clinical-monitor/internal/application"
	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
	"github.com/oksasatya/clinical-monitor/internal/interface/middleware"
	"github.com/oksasatya/clinical-monitor/pkg/helpers"
	"github.com/oksasatya/clinical-monitor/pkg/response"
	"github.com/oksasatya/clinical-monitor/pkg/validation"
)

// maxAvatarBytes caps the multipart avatar upload.
const maxAvatarBytes = 5 << 20

type AccountHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewAccountHandler(svc *application.Service, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{Svc: svc, Logger: logger}
}

type accountResponse struct {
	ID            string             `json:"id"`
	Username      string             `json:"username"`
	Email         string             `json:"email"`
	AccountType   entity.AccountType `json:"account_type"`
	FirstName     string             `json:"first_name"`
	LastName      string             `json:"last_name"`
	AvatarURL     string             `json:"avatar_url"`
	DashboardPath string             `json:"dashboard_path"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func toAccountResponse(a *entity.Account) accountResponse {
	return accountResponse{
		ID:            a.ID,
		Username:      a.Username,
		Email:         a.Email,
		AccountType:   a.AccountType,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		AvatarURL:     a.AvatarURL,
		DashboardPath: a.AccountType.DashboardPath(),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// statusFor maps an application error kind onto an HTTP status.
func statusFor(err error) int {
	switch application.KindOf(err) {
	case application.KindValidation:
		return http.StatusBadRequest
	case application.KindConflict:
		return http.StatusConflict
	case application.KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		helpers.LogError(logger, "request failed", err, logrus.Fields{
			"request_id": c.GetString(middleware.CtxRequestIDKey),
			"account_id": c.GetString(middleware.CtxAccountIDKey),
			"path":       c.FullPath(),
		})
	}
	response.Error[any](c, status, application.PublicMessage(err), nil)
}

func (h *AccountHandler) Me(c *gin.Context) {
	a, err := h.Svc.GetAccount(c.Request.Context(), c.GetString(middleware.CtxAccountIDKey))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toAccountResponse(a), "account", nil)
}

type searchQuery struct {
	Q    string `form:"q" json:"q" binding:"max=100"`
	Type string `form:"type" json:"type" binding:"omitempty,accounttype"`
	Size int    `form:"size" json:"size" binding:"omitempty,min=1,max=100"`
}

func (h *AccountHandler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	hits, err := h.Svc.SearchAccounts(c.Request.Context(), q.Q, q.Type, q.Size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "accounts", map[string]any{"count": len(hits)})
}

func (h *AccountHandler) UploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAvatarBytes)
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "avatar file is required", err.Error())
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "avatar file is unreadable", nil)
		return
	}
	defer f.Close()

	a, err := h.Svc.UploadAvatar(c.Request.Context(), c.GetString(middleware.CtxAccountIDKey), application.Avatar{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toAccountResponse(a), "avatar updated", nil)
}
