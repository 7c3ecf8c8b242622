package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/figureimg/internal/api/handler"
	"github.com/timmy/figureimg/internal/api/middleware"
	"github.com/timmy/figureimg/internal/logger"
)

// Services groups what the HTTP surface calls into.
type Services struct {
	Search  handler.Searcher
	Product handler.ProductResolver
	Catalog interface {
		handler.CatalogAdmin
		handler.CacheCounter
	}
}

// SetupRouter configures the Gin router with all routes. Every route is
// served both at the root and under /api.
func SetupRouter(
	svc Services,
	log *logger.Logger,
	cors middleware.CORSConfig,
	mode string,
) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cors))

	// Create handlers
	healthHandler := handler.NewHealthHandler(svc.Catalog)
	searchHandler := handler.NewSearchHandler(svc.Search)
	productHandler := handler.NewProductHandler(svc.Product)
	catalogHandler := handler.NewCatalogHandler(svc.Catalog)

	for _, g := range []*gin.RouterGroup{r.Group("/"), r.Group("/api")} {
		g.GET("/health", healthHandler.Health)
		g.GET("/search", searchHandler.Search)
		g.GET("/product", productHandler.Product)
		g.GET("/catalogs", catalogHandler.Catalogs)
		g.POST("/refresh-cache", catalogHandler.RefreshCache)
	}

	return r
}
