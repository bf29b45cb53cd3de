package handlers

import (
	"strings"

	"github.com/finbeat/marketdata/cmd/docs"
	portssvc "github.com/finbeat/marketdata/internal/core/ports/services"
	"github.com/finbeat/marketdata/internal/middleware"
	"github.com/finbeat/marketdata/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	limiterInstance *limiter.Limiter,
) {
	registerCustomValidators()

	// Health check route
	r.GET("/health", getHealth)

	setupAPIV1Routes(r, cfg, services, limiterInstance)

	// Swagger routes (conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	limiterInstance *limiter.Limiter,
) {
	authMW := middleware.AuthMiddleware(cfg.JWTSecret)

	// Public market-data reads are IP rate limited; writes carry auth on top.
	v1 := r.Group("/api/v1", middleware.RateLimit(limiterInstance))
	registerRateRoutes(v1, services.Rate, authMW)
	registerPriceRoutes(v1, services.Price, authMW)

	// The operational surface requires auth on every route.
	registerAdminRoutes(v1.Group("", authMW), services.Rate, services.Price)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// registerCustomValidators adds the currencycode rule used by manual-entry
// request bindings: exactly three ASCII letters, case-insensitive.
func registerCustomValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("currencycode", func(fl validator.FieldLevel) bool {
		code := fl.Field().String()
		if len(code) != 3 {
			return false
		}
		for _, r := range strings.ToUpper(code) {
			if r < 'A' || r > 'Z' {
				return false
			}
		}
		return true
	})
}
