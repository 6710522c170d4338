package main

import (
	"context"
	"os"

	_ "portal/api/swagger" // swagger docs
	"portal/internal/database"
	"portal/internal/handler"
	"portal/internal/middleware"
	"portal/internal/repository"
	"portal/internal/service"
	"portal/internal/websocket"
	"portal/pkg/filestore"
	"portal/pkg/logger"
	"portal/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Company Portal API
// @version         1.0
// @description     Internal portal: purchase approval workflow, leave, maintenance, projects and ideas.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// .env is optional, plain env vars work too.
	_ = godotenv.Load("configs/.env")

	if err := logger.Init(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: os.Getenv("APP_ENV"),
		ServiceName: "portal-api",
	}); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Get()

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "portal")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	log.Info("connected to postgres")

	middleware.InitPermissionMiddleware(db)

	// Invoice files go to local disk; the public URL prefix is what clients see.
	store, err := filestoreFromEnv()
	if err != nil {
		log.Fatal("file store init failed", zap.Error(err))
	}

	// Set up WebSocket Hub for stage change notifications
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	txManager := repository.NewTransactionManager(db)

	userService := service.NewUserService(userRepo, txManager, db)
	roleService := service.NewRoleService(db)
	permissionService := service.NewPermissionService(db)
	purchaseService := service.NewPurchaseService(db, store, wsHub)
	leaveService := service.NewLeaveService(db)
	maintenanceService := service.NewMaintenanceService(db)
	projectService := service.NewProjectService(db)
	ideaService := service.NewIdeaService(db)
	supplierService := service.NewSupplierService(db)
	auditService := service.NewAuditService(db)
	statisticsService := service.NewStatisticsService(db)

	// Seed roles, permissions and the initial admin account.
	ctx := context.Background()
	if err := roleService.SeedDefaultRolesAndPermissions(ctx); err != nil {
		log.Fatal("role seeding failed", zap.Error(err))
	}
	if err := userService.SeedAdminUser(ctx); err != nil {
		log.Fatal("admin seeding failed", zap.Error(err))
	}

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(userService, permissionService)
	adminHandler := handler.NewAdminHandler(userService, roleService, permissionService)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService)
	leaveHandler := handler.NewLeaveHandler(leaveService)
	maintenanceHandler := handler.NewMaintenanceHandler(maintenanceService)
	projectHandler := handler.NewProjectHandler(projectService)
	ideaHandler := handler.NewIdeaHandler(ideaService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	auditHandler := handler.NewAuditHandler(auditService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(logger.GinMiddleware())
	router.Use(metrics.NewHTTPMetrics("portal-api").Middleware())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "Idempotency-Key"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Serve uploaded invoice files
	router.Static("/uploads", envOr("UPLOAD_DIR", "./uploads"))

	// Register API Routes
	api := router.Group("/api")
	authHandler.RegisterRoutes(api)
	adminHandler.RegisterRoutes(api)
	purchaseHandler.RegisterRoutes(api)
	leaveHandler.RegisterRoutes(api)
	maintenanceHandler.RegisterRoutes(api)
	projectHandler.RegisterRoutes(api)
	ideaHandler.RegisterRoutes(api)
	supplierHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	statisticsHandler.RegisterRoutes(api)

	port := envOr("PORT", "8080")
	log.Info("server listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func filestoreFromEnv() (*filestore.LocalStore, error) {
	baseDir := envOr("UPLOAD_DIR", "./uploads")
	publicURL := envOr("UPLOAD_PUBLIC_URL", "/uploads")
	return filestore.NewLocalStore(baseDir, publicURL)
}
