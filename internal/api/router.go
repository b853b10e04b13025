package api

import (
	"github.com/gin-gonic/gin"

	"github.com/tomaz/vidsent/internal/api/handler"
	"github.com/tomaz/vidsent/internal/api/middleware"
	"github.com/tomaz/vidsent/internal/logger"
	"github.com/tomaz/vidsent/internal/service"
	"github.com/tomaz/vidsent/internal/store"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	jobs *store.JobStore,
	index handler.JobIndex,
	queue service.Enqueuer,
	newQueue string,
	log *logger.Logger,
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
	r.Use(middleware.CORS(middleware.CORSConfig{AllowAllOrigins: true}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	jobHandler := handler.NewJobHandler(jobs, index, queue, newQueue)

	// Health check
	r.GET("/health", healthHandler.Health)

	// Job intake and retrieval share the root path; the query string
	// selects the document on reads.
	r.POST("/", jobHandler.Create)
	r.GET("/", jobHandler.Get)
	r.GET("/jobs", jobHandler.List)

	return r
}
