package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/clinical-monitor/internal/application"
	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
	"github.com/oksasatya/clinical-monitor/pkg/response"
)

// Gin context keys set by Session.
const (
	CtxSessionKey   = "session"
	CtxAccountIDKey = "accountID"
	CtxAccountType  = "accountType"
)

// Session resolves the signed session cookie and stores the session in the
// Gin context. The authenticator renews the cookie when the sliding window
// calls for it.
func Session(sessions application.SessionIssuer, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := sessions.Authenticate(c.Request.Context(), c)
		if err != nil {
			if !errors.Is(err, application.ErrNoSession) && logger != nil {
				logger.WithError(err).WithField("request_id", c.GetString(CtxRequestIDKey)).Error("session lookup failed")
			}
			response.Error[any](c, http.StatusUnauthorized, "sign in required", nil)
			return
		}
		c.Set(CtxSessionKey, sess)
		c.Set(CtxAccountIDKey, sess.AccountID)
		c.Set(CtxAccountType, string(sess.AccountType))
		c.Next()
	}
}

// CurrentSession returns the session stored by Session.
func CurrentSession(c *gin.Context) (*entity.Session, bool) {
	v, ok := c.Get(CtxSessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*entity.Session)
	return sess, ok && sess != nil
}

// RequireAccountType lets through only sessions of the listed categories.
// It must run after Session.
func RequireAccountType(types ...entity.AccountType) gin.HandlerFunc {
	allowed := make(map[entity.AccountType]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok {
			response.Error[any](c, http.StatusUnauthorized, "sign in required", nil)
			return
		}
		if _, ok := allowed[sess.AccountType]; !ok {
			response.Error[any](c, http.StatusForbidden, "forbidden", nil)
			return
		}
		c.Next()
	}
}
