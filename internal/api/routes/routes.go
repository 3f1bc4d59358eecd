package routes

import (
	"time"

	"space-service/internal/api/handlers"
	"space-service/internal/api/middleware"
	"space-service/internal/config"
	"space-service/internal/repositories/postgres"
	"space-service/internal/services"
	"space-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Router struct {
	engine       *gin.Engine
	wsHandler    *handlers.WSHandler
	spaceHandler *handlers.SpaceHandler
	userHandler  *handlers.UserHandler
	authHandler  *handlers.AuthHandler
	rateLimitMW  *middleware.RateLimitMiddleware
	authMW       *middleware.AuthMiddleware
}

func NewRouter(
	hub *websocket.Hub,
	authorizer *websocket.Authorizer,
	redisService *services.RedisService,
	db *gorm.DB,
	cfg *config.Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogApi())

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	spaceRepo := postgres.NewSpaceRepository(db)
	messageRepo := postgres.NewMessageRepository(db)

	// Services
	userService := services.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.ExpirationTime)
	spaceService := services.NewSpaceService(spaceRepo, messageRepo, authorizer)

	return &Router{
		engine:       engine,
		wsHandler:    handlers.NewWSHandler(hub),
		spaceHandler: handlers.NewSpaceHandler(spaceService),
		userHandler:  handlers.NewUserHandler(userService),
		authHandler:  handlers.NewAuthHandler(userService),
		rateLimitMW:  middleware.NewRateLimitMiddleware(redisService),
		authMW:       middleware.NewAuthMiddleware(cfg.JWT.Secret),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api/v1")

	// WebSocket endpoint; identity comes from the token query parameter.
	api.GET("/ws",
		r.authMW.WSAuth(),
		r.wsHandler.HandleWebSocket,
	)

	// Authenticated routes
	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		auth.POST("/auth/logout", r.authHandler.Logout)

		users := auth.Group("/users")
		users.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			users.GET("/profile", r.userHandler.GetProfile)
			users.PUT("/profile", r.userHandler.UpdateProfile)
			users.GET("/search", r.userHandler.Search)
		}

		spaces := auth.Group("/spaces")
		spaces.Use(r.rateLimitMW.RateLimit(100, time.Minute))
		{
			spaces.POST("/", r.spaceHandler.Create)
			spaces.GET("/", r.spaceHandler.List)
			spaces.GET("/:id", r.spaceHandler.GetByID)
			spaces.POST("/:id/join", r.spaceHandler.Join)
		}
	}

	// Public routes (no authentication required)
	public := api.Group("/auth")
	public.Use(r.rateLimitMW.RateLimitIP(50, time.Minute))
	{
		public.POST("/register", r.authHandler.Register)
		public.POST("/login", r.authHandler.Login)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
