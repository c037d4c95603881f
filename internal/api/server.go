package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/meddist/internal-api/docs"
	v1 "github.com/meddist/internal-api/internal/api/handler/v1"
	"github.com/meddist/internal-api/internal/api/handler/v1/response"
	"github.com/meddist/internal-api/internal/api/middleware"
	"github.com/meddist/internal-api/internal/config"
	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/pkg/events"
	"github.com/meddist/internal-api/internal/pkg/jwthelper"
	"github.com/meddist/internal-api/internal/pkg/lock"
	"github.com/meddist/internal-api/internal/repository"
	"github.com/meddist/internal-api/internal/repository/dao"
	"github.com/meddist/internal-api/internal/service"
)

const basePath = "/api/v1"

// Dependencies are the infrastructure clients built by the caller. Redis may be nil.
type Dependencies struct {
	Redis     *redis.Client
	Locker    lock.Locker
	Publisher events.Publisher
	Hub       *v1.InventoryHub
	Store     service.ImageStore
	Mailer    service.PasswordResetMailer
}

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	db     *gorm.DB
	deps   Dependencies
	issuer *jwthelper.Issuer
}

type handlers struct {
	health    *v1.HealthHandler
	auth      *v1.AuthHandler
	user      *v1.UserHandler
	location  *v1.LocationHandler
	channel   *v1.ChannelHandler
	category  *v1.CategoryHandler
	product   *v1.ProductHandler
	inventory *v1.InventoryHandler
}

func NewServer(conf *config.AppConfig, db *gorm.DB, deps Dependencies) (*Server, error) {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
		db:     db,
		deps:   deps,
		issuer: jwthelper.NewIssuer(conf.JWT),
	}

	s.MountMiddlewares()

	h, err := s.initHandlers()
	if err != nil {
		return nil, err
	}
	s.MountHandlers(h)

	return s, nil
}

func (s *Server) initHandlers() (handlers, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return handlers{}, fmt.Errorf("s.db.DB -> %w", err)
	}

	userRepo := repository.NewUserRepository(dao.NewUserDAO(s.db), dao.NewAddressDAO(s.db))
	authSvc := service.NewAuthService(userRepo, s.issuer)
	userSvc := service.NewUserService(userRepo, s.deps.Mailer, s.Config.API.FrontendURL)

	locationSvc := service.NewLocationService(repository.NewLocationRepository(dao.NewLocationDAO(s.db)))
	channelSvc := service.NewChannelService(repository.NewChannelRepository(dao.NewChannelDAO(s.db)))
	categorySvc := service.NewCategoryService(repository.NewCategoryRepository(dao.NewCategoryDAO(s.db)))
	productSvc := service.NewProductService(repository.NewProductRepository(dao.NewProductDAO(s.db)), s.deps.Store)
	inventorySvc := service.NewInventoryService(
		repository.NewInventoryRepository(dao.NewInventoryDAO(s.db)),
		s.deps.Locker,
		s.deps.Publisher,
		s.Config.Inventory.MaxRetries,
	)

	return handlers{
		health:    v1.NewHealthHandler(sqlDB),
		auth:      v1.NewAuthHandler(authSvc),
		user:      v1.NewUserHandler(userSvc),
		location:  v1.NewLocationHandler(locationSvc),
		channel:   v1.NewChannelHandler(channelSvc),
		category:  v1.NewCategoryHandler(categorySvc),
		product:   v1.NewProductHandler(productSvc),
		inventory: v1.NewInventoryHandler(inventorySvc),
	}, nil
}

func (s *Server) MountMiddlewares() {
	s.Router.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))
	s.Router.Use(ginzap.RecoveryWithZap(zap.L(), true))
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
	if s.Config.Telemetry.TracingEnabled {
		s.Router.Use(otelgin.Middleware(s.Config.Telemetry.ServiceName))
	}
	s.Router.Use(middleware.Metrics())

	if rl := s.Config.RateLimit; rl.Enabled {
		var limiter middleware.Limiter
		if s.deps.Redis != nil {
			limiter = middleware.NewRedisLimiter(s.deps.Redis, rl.Requests, rl.Window)
		} else {
			limiter = middleware.NewLocalLimiter(rl.Requests, rl.Window)
		}
		s.Router.Use(middleware.RateLimit(limiter))
	}
}

func (s *Server) MountHandlers(h handlers) {
	authn := middleware.NewAuthenticator(s.issuer).VerifyJWT()
	roles := middleware.RequireRoles

	auth := s.Router.Group(basePath + "/auth")
	{
		auth.POST("/login", h.auth.HandleLogin)
		auth.POST("/refresh", h.auth.HandleRefresh)
	}

	public := s.Router.Group(basePath + "/users")
	{
		public.POST("/register", h.user.HandleRegister)
		public.POST("/forgot-password", h.user.HandleForgotPassword)
		public.POST("/reset-password", h.user.HandleResetPassword)
	}

	users := s.Router.Group(basePath+"/users", authn)
	{
		users.GET("", h.user.HandleListUsers)
		users.GET("/:userID", h.user.HandleGetUser)
		users.GET("/email/:email", h.user.HandleGetUserByEmail)
		users.PATCH("/:userID", h.user.HandleUpdateUser)
		users.PUT("/:userID/roles", roles(domain.RoleAdmin), h.user.HandleSetRoles)
		users.GET("/:userID/addresses", h.user.HandleListAddresses)
		users.POST("/:userID/addresses", h.user.HandleAddAddress)
		users.DELETE("/:userID/addresses/:addressID", h.user.HandleDeleteAddress)
	}

	locations := s.Router.Group(basePath+"/locations", authn)
	{
		read := roles(domain.RoleAdmin, domain.RoleInventoryViewer)
		write := roles(domain.RoleAdmin, domain.RoleInventoryManager)

		locations.POST("", write, h.location.HandleCreateLocation)
		locations.GET("", read, h.location.HandleListLocations)
		locations.GET("/:locationID", read, h.location.HandleGetLocation)
		locations.PATCH("/:locationID", write, h.location.HandleUpdateLocation)
		locations.DELETE("/:locationID", write, h.location.HandleDeleteLocation)
	}

	channels := s.Router.Group(basePath+"/channels", authn)
	{
		read := roles(domain.RoleAdmin, domain.RoleChannelsViewer)
		write := roles(domain.RoleAdmin, domain.RoleChannelsManager)

		channels.POST("", write, h.channel.HandleCreateChannel)
		channels.GET("", read, h.channel.HandleListChannels)
		channels.GET("/:channelID", read, h.channel.HandleGetChannel)
		channels.PATCH("/:channelID", write, h.channel.HandleUpdateChannel)
		channels.DELETE("/:channelID", write, h.channel.HandleDeleteChannel)
	}

	categories := s.Router.Group(basePath+"/categories", authn)
	{
		read := roles(domain.RoleAdmin, domain.RoleCategoryViewer)
		write := roles(domain.RoleAdmin, domain.RoleCategoryManager)

		categories.POST("", write, h.category.HandleCreateCategory)
		categories.GET("", read, h.category.HandleListCategories)
		categories.GET("/tree", read, h.category.HandleCategoryTree)
		categories.GET("/:categoryID", read, h.category.HandleGetCategory)
		categories.PATCH("/:categoryID", write, h.category.HandleUpdateCategory)
		categories.DELETE("/:categoryID", write, h.category.HandleDeleteCategory)
	}

	products := s.Router.Group(basePath+"/products", authn)
	{
		read := roles(domain.RoleAdmin, domain.RoleProductViewer)
		write := roles(domain.RoleAdmin, domain.RoleProductManager)

		products.POST("", write, h.product.HandleCreateProduct)
		products.GET("", read, h.product.HandleListProducts)
		products.GET("/:productID", read, h.product.HandleGetProduct)
		products.PATCH("/:productID", write, h.product.HandleUpdateProduct)
		products.DELETE("/:productID", write, h.product.HandleDeleteProduct)
	}

	inventory := s.Router.Group(basePath+"/inventory", authn)
	{
		read := roles(domain.RoleAdmin, domain.RoleInventoryViewer)
		write := roles(domain.RoleAdmin, domain.RoleInventoryManager)

		inventory.POST("", write, h.inventory.HandleCreateInventory)
		inventory.GET("", read, h.inventory.HandleListInventory)
		inventory.GET("/logs", read, h.inventory.HandleListInventoryLogs)
		inventory.GET("/:productId/:locationId/:channelId", read, h.inventory.HandleGetInventory)
		inventory.POST("/update", write, h.inventory.HandleUpdateStock)
		inventory.POST("/reserve", write, h.inventory.HandleReserve)
		inventory.POST("/release", write, h.inventory.HandleRelease)
		if s.deps.Hub != nil {
			inventory.GET("/stream", roles(domain.RoleAdmin), s.deps.Hub.HandleStream)
		}
	}

	s.Router.GET("/", h.health.HandleHealthcheck)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.Router.NoRoute(func(ctx *gin.Context) {
		response.RenderErr(ctx, response.ErrNotFound("Cannot %s %s", ctx.Request.Method, ctx.Request.URL.Path))
	})

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "MedDist internal API"
	docs.SwaggerInfo.Description = "Admin API for users, catalog and multi-channel inventory."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.Router
}
