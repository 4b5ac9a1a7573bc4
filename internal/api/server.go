// Package api exposes the back-office operations over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gitlab.com/yelinaung/caja-gym/internal/audit"
	"gitlab.com/yelinaung/caja-gym/internal/auth"
	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/report"
	"gitlab.com/yelinaung/caja-gym/internal/service"
)

// Services groups the domain services behind the API.
type Services struct {
	Catalog   *service.CatalogService
	Options   *service.OptionService
	Movements *service.MovementService
	Users     *service.UserService
	Reports   *report.Service
	Audit     *audit.Recorder
}

// NewServices builds every service on db.
func NewServices(db database.DB, tokens *auth.TokenManager, policy service.EditPolicy) *Services {
	return &Services{
		Catalog:   service.NewCatalogService(db),
		Options:   service.NewOptionService(db),
		Movements: service.NewMovementService(db, policy),
		Users:     service.NewUserService(db, tokens),
		Reports:   report.NewService(db),
		Audit:     audit.NewRecorder(db),
	}
}

// HealthFunc reports whether the backing store is reachable.
type HealthFunc func(ctx context.Context) error

// RouterOptions configures NewRouter.
type RouterOptions struct {
	CORSOrigins []string
	Health      HealthFunc
}

type handlers struct {
	svc    *Services
	health HealthFunc
}

// NewRouter wires every route on a new gin engine.
func NewRouter(opts RouterOptions, svc *Services, gate *auth.Gate) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	h := &handlers{svc: svc, health: opts.Health}

	r.GET("/healthz", h.healthz)

	apiGroup := r.Group("/api")
	apiGroup.POST("/auth/login", h.login)

	user := apiGroup.Group("", authenticate(gate))
	user.GET("/auth/me", h.me)

	user.GET("/categorias", h.listCategories)
	user.GET("/categorias/:id", h.getCategory)
	user.GET("/medios-pago", h.listPaymentMethods)
	user.GET("/medios-pago/:id", h.getPaymentMethod)
	user.GET("/opciones", h.listOptions)

	user.POST("/movimientos", h.createMovement)
	user.GET("/movimientos", h.listMovements)
	user.GET("/movimientos/:id", h.getMovement)
	user.PUT("/movimientos/:id", h.updateMovement)
	user.GET("/movimientos/:id/puede-editar", h.canEditMovement)
	user.GET("/movimientos/:id/historial", h.movementHistory)

	admin := user.Group("", requireAdmin())
	admin.GET("/usuarios", h.listUsers)
	admin.POST("/usuarios", h.createUser)
	admin.PATCH("/usuarios/:id/toggle", h.toggleUser)

	admin.POST("/categorias", h.createCategory)
	admin.PUT("/categorias/:id", h.updateCategory)
	admin.PATCH("/categorias/:id/toggle", h.toggleCategory)

	admin.POST("/medios-pago", h.createPaymentMethod)
	admin.PUT("/medios-pago/:id", h.updatePaymentMethod)
	admin.PATCH("/medios-pago/:id/toggle", h.togglePaymentMethod)

	admin.POST("/opciones", h.createOption)
	admin.POST("/opciones/precios", h.applyPercentage)
	admin.PUT("/opciones/:id", h.updateOption)
	admin.PATCH("/opciones/:id/toggle", h.toggleOption)
	admin.PATCH("/opciones/:id/orden", h.reorderOption)
	admin.DELETE("/opciones/:id", h.deleteOption)

	admin.GET("/auditoria", h.searchAudit)

	admin.GET("/reportes/resumen", h.summary)
	admin.GET("/reportes/movimientos.csv", h.exportCSV)
	admin.GET("/reportes/grafico.png", h.chart)

	return r
}

// NewHTTPServer wraps handler with server spans and returns a server on addr.
func NewHTTPServer(addr, serviceName string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(handler, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func (h *handlers) healthz(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
