package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Constants for context keys
const (
	ContextPrincipalKey = "principal"
	SessionCookieName   = "session"
)

var (
	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of http request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)
)

// tokenFromRequest reads the session cookie, falling back to a Bearer
// header for non-browser clients.
func tokenFromRequest(c *gin.Context) (string, error) {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie, nil
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("not signed in")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("Authorization header format must be Bearer {token}")
	}
	return parts[1], nil
}

// AuthMiddleware resolves the caller's principal or aborts with 401.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := tokenFromRequest(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		principal, err := authService.ParseToken(tokenString)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Invalid or expired session")
			return
		}
		c.Set(ContextPrincipalKey, principal)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the principal when a valid token is present
// and lets anonymous requests through.
func OptionalAuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, err := tokenFromRequest(c); err == nil {
			if principal, err := authService.ParseToken(tokenString); err == nil {
				c.Set(ContextPrincipalKey, principal)
			}
		}
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RoleMiddleware creates middleware to check if user has the required role(s).
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFrom(c)
		if !ok {
			abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
			return
		}
		for _, role := range allowedRoles {
			if principal.Role() == role {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", principal.Role()))
	}
}

// --- Principal helpers (used by handlers) ---

func principalFrom(c *gin.Context) (domain.Principal, bool) {
	raw, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return nil, false
	}
	principal, ok := raw.(domain.Principal)
	return principal, ok
}

func adminFrom(c *gin.Context) (domain.AdminPrincipal, bool) {
	principal, _ := principalFrom(c)
	admin, ok := principal.(domain.AdminPrincipal)
	if !ok {
		abortWithError(c, http.StatusForbidden, "Admin access required")
	}
	return admin, ok
}

func coachFrom(c *gin.Context) (domain.CoachPrincipal, bool) {
	principal, _ := principalFrom(c)
	coach, ok := principal.(domain.CoachPrincipal)
	if !ok {
		abortWithError(c, http.StatusForbidden, "Coach access required")
	}
	return coach, ok
}

func memberFrom(c *gin.Context) (domain.MemberPrincipal, bool) {
	principal, _ := principalFrom(c)
	member, ok := principal.(domain.MemberPrincipal)
	if !ok {
		abortWithError(c, http.StatusForbidden, "Member access required")
	}
	return member, ok
}

// --- Ambient middleware ---

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if p, ok := principalFrom(c); ok {
			fields = append(fields, zap.String("user_id", p.UserID().Hex()), zap.String("role", string(p.Role())))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request handled", fields...)
		}
	}
}

// PrometheusMiddleware records request counts and latencies labelled by
// route template, so ids do not explode label cardinality.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		statusStr := strconv.Itoa(c.Writer.Status())
		httpRequestTotal.WithLabelValues(c.Request.Method, path, statusStr).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, statusStr).Observe(time.Since(start).Seconds())
	}
}

// CORSMiddleware allows the configured browser origin with credentials.
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && origin == allowedOrigin {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
