package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/tidianeba/qualichain/internal/config"
	"github.com/tidianeba/qualichain/internal/domain/models"
	"github.com/tidianeba/qualichain/internal/server/handlers"
)

// Handlers collects the per-service HTTP adapters. A nil field means the
// hosting process does not mount that service.
type Handlers struct {
	PurchaseOrder *handlers.PurchaseOrderHandler
	GoodsReceipt  *handlers.GoodsReceiptHandler
	QCTest        *handlers.QCTestHandler
	QCSample      *handlers.QCSampleHandler
	QCResult      *handlers.QCResultHandler
	QADeviation   *handlers.QADeviationHandler
	QARelease     *handlers.QAReleaseHandler
	Warehouse     *handlers.WarehouseHandler
}

// registrar is what every handler exposes to mount its routes.
type registrar interface {
	Register(rg *gin.RouterGroup)
}

// New wires the Gin engine with the mounted services and middlewares.
func New(h Handlers, auth config.AuthConfig, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(authMiddleware(auth))

	var regs []registrar
	if h.PurchaseOrder != nil {
		regs = append(regs, h.PurchaseOrder)
	}
	if h.GoodsReceipt != nil {
		regs = append(regs, h.GoodsReceipt)
	}
	if h.QCTest != nil {
		regs = append(regs, h.QCTest)
	}
	if h.QCSample != nil {
		regs = append(regs, h.QCSample)
	}
	if h.QCResult != nil {
		regs = append(regs, h.QCResult)
	}
	if h.QADeviation != nil {
		regs = append(regs, h.QADeviation)
	}
	if h.QARelease != nil {
		regs = append(regs, h.QARelease)
	}
	if h.Warehouse != nil {
		regs = append(regs, h.Warehouse)
	}
	for _, reg := range regs {
		reg.Register(api)
	}
	mounted := len(regs)

	if logger != nil {
		logger.Info("router initialized", zap.Int("services_mounted", mounted))
	}

	return r
}

// authMiddleware resolves the caller into a principal. Inter-service calls
// present the shared service token and act as a system principal; gateway
// traffic presents an HMAC-signed JWT carrying sub, email and roles claims.
func authMiddleware(auth config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		if auth.ServiceToken != "" && token == auth.ServiceToken {
			c.Set(handlers.PrincipalKey, models.Principal{
				ID:    "system",
				Roles: []string{models.RoleAdmin},
			})
			c.Next()
			return
		}

		parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(auth.GatewaySecret), nil
		})
		if err != nil || !parsed.Valid {
			// Leave the principal unset; the service layer answers Unauthorized.
			c.Next()
			return
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			c.Next()
			return
		}

		p := models.Principal{}
		if sub, err := claims.GetSubject(); err == nil {
			p.ID = sub
		}
		if email, ok := claims["email"].(string); ok {
			p.Email = email
		}
		if raw, ok := claims["roles"].([]interface{}); ok {
			for _, r := range raw {
				if role, ok := r.(string); ok {
					p.Roles = append(p.Roles, role)
				}
			}
		}

		c.Set(handlers.PrincipalKey, p)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
