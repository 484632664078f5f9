package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/validation"
)

// Dependencies are the shared resources the routes are built from.
type Dependencies struct {
	Config *config.Config
	DB     *gorm.DB
	// Redis enables token revocation and rate limiting when set.
	Redis *redis.Client
	// Images defaults to inline storage.
	Images service.ImageStore
}

// SetupRouter configures the application routes
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := validation.RegisterGin(); err != nil {
		logging.Fatal().Err(err).Msg("failed to register validators")
	}

	var denylist service.TokenDenylist
	var recipeLimit gin.HandlerFunc
	if deps.Redis != nil {
		denylist = service.NewRedisTokenDenylist(deps.Redis)
		if cfg.RecipeRateLimit > 0 {
			recipeLimit = middleware.NewRecipeCreationRateLimiter(deps.Redis, cfg.RecipeRateLimit, cfg.RecipeRateWindow).RateLimitMiddleware()
		}
	}

	relations := service.NewRelations(deps.DB)
	authService := service.NewAuthService(deps.DB, cfg.JWTSecret, cfg.TokenTTL, denylist)
	userService := service.NewUserService(deps.DB, relations)
	recipeService := service.NewRecipeService(deps.DB, deps.Images, relations)
	shoppingService := service.NewShoppingListService(deps.DB)
	catalogService := service.NewCatalogService(deps.DB)

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		otelgin.Middleware(cfg.OTELServiceName),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.CORS(cfg.AllowedOrigins()),
	)

	router.GET("/health", api.NewHealthHandler(deps.DB, deps.Redis).HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers := &api.Handlers{
		Auth:    api.NewAuthHandler(authService),
		Users:   api.NewUserHandler(userService, authService),
		Recipes: api.NewRecipeHandler(recipeService, shoppingService),
		Catalog: api.NewCatalogHandler(catalogService),
	}
	handlers.RegisterRoutes(router.Group("/api"), api.Middlewares{
		Required:    middleware.AuthMiddleware(authService),
		Optional:    middleware.OptionalAuth(authService),
		RecipeLimit: recipeLimit,
	})

	return router
}
