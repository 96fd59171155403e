package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/clinical-monitor/internal/application"
	"github.com/oksasatya/clinical-monitor/pkg/response"
)

type DashboardHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewDashboardHandler(svc *application.Service, logger *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{Svc: svc, Logger: logger}
}

// Stats returns the account counts shown on the administrator dashboard.
func (h *DashboardHandler) Stats(c *gin.Context) {
	counts, err := h.Svc.DashboardCounts(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, counts, "dashboard stats", nil)
}
