package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Irvanev/hvala-dvisor-sub000/authz"
	"github.com/Irvanev/hvala-dvisor-sub000/configs"
	"github.com/Irvanev/hvala-dvisor-sub000/controllers"
	"github.com/Irvanev/hvala-dvisor-sub000/events"
	"github.com/Irvanev/hvala-dvisor-sub000/identity"
	"github.com/Irvanev/hvala-dvisor-sub000/metrics"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/logging"
	"github.com/Irvanev/hvala-dvisor-sub000/repository"
	"github.com/Irvanev/hvala-dvisor-sub000/routes"
	"github.com/Irvanev/hvala-dvisor-sub000/services"
	"github.com/Irvanev/hvala-dvisor-sub000/supervisor"
	"github.com/Irvanev/hvala-dvisor-sub000/utils"
	"github.com/Irvanev/hvala-dvisor-sub000/ws"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config failed")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := configs.ConnectionDB(cfg.DBSource)
	if err != nil {
		logging.Fatal().Err(err).Msg("connect database failed")
	}
	if err := configs.SetupDatabase(db); err != nil {
		logging.Fatal().Err(err).Msg("migrate failed")
	}

	if err := utils.RegisterValidators(); err != nil {
		logging.Fatal().Err(err).Msg("register validators failed")
	}

	userRepo := repository.NewUserRepository(db)
	restaurantRepo := repository.NewRestaurantRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	moderationRepo := repository.NewModerationRepository(db)

	// identity
	var (
		idp   identity.Provider
		local *identity.Local
	)
	switch cfg.IdentityProvider {
	case configs.IdentityFirebase:
		fb, err := identity.NewFirebase(ctx, cfg.FirebaseProjectID)
		if err != nil {
			logging.Fatal().Err(err).Msg("firebase init failed")
		}
		idp = fb
	default:
		local = identity.NewLocal(userRepo, cfg.JWTSecret, cfg.JWTTTL)
		idp = local
	}
	logging.Info().Str("provider", cfg.IdentityProvider).Msg("identity provider ready")

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		logging.Fatal().Err(err).Msg("load authorization policy failed")
	}

	bus, err := events.NewBus(events.NewLoggerAdapter(logging.Logger()))
	if err != nil {
		logging.Fatal().Err(err).Msg("event bus init failed")
	}
	defer bus.Close()

	hub := ws.NewNotificationHub()
	hub.OnDrop(metrics.NotificationPushDropped)

	// services
	authSvc := services.NewAuthService(userRepo, local)
	restaurantSvc := services.NewRestaurantService(db, restaurantRepo, userRepo, enforcer)
	reviewSvc := services.NewReviewService(db, reviewRepo, restaurantRepo, userRepo, enforcer)
	favoriteSvc := services.NewFavoriteService(db, likeRepo, restaurantRepo, userRepo)
	notificationSvc := services.NewNotificationService(notificationRepo, hub)
	moderationSvc := services.NewModerationService(userRepo, restaurantRepo, moderationRepo, idp, enforcer, notificationSvc, bus)
	roleSvc := services.NewRoleService(userRepo, idp, enforcer)
	bootstrapSvc := services.NewBootstrapService(userRepo, idp, cfg.AdminBootstrapKey)
	if cfg.AdminBootstrapKey == "" {
		logging.Warn().Msg("admin_bootstrap_key is empty; createInitialAdmin is disabled")
	}

	bus.OnRestaurantModerated("push-owner", notificationSvc.PushRestaurantModerated)

	// HTTP
	if cfg.LogFormat != "console" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	routes.RegisterRoutes(r, routes.Deps{
		Identity:               idp,
		CORSOrigins:            cfg.CORSOrigins,
		BootstrapRatePerMinute: cfg.BootstrapRatePerMinute,

		Auth:          controllers.NewAuthController(authSvc),
		Restaurants:   controllers.NewRestaurantController(restaurantSvc),
		Reviews:       controllers.NewReviewController(reviewSvc),
		Favorites:     controllers.NewFavoriteController(favoriteSvc),
		Moderation:    controllers.NewModerationController(moderationSvc),
		Notifications: controllers.NewNotificationController(notificationSvc),
		Admin:         controllers.NewAdminController(roleSvc),
		Functions:     controllers.NewFunctionsController(roleSvc, moderationSvc, bootstrapSvc, cfg.FunctionTimeout),
		Hub:           hub,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	root := supervisor.New("hvala", logging.Logger(), supervisor.Config{})
	root.Add(bus)
	root.Add(hub)
	errCh := root.ServeBackground(ctx)

	// moderation events published before the router subscribes would be lost
	select {
	case <-bus.Running():
	case err := <-errCh:
		logging.Fatal().Err(err).Msg("supervisor stopped during start-up")
	}
	root.Add(supervisor.NewHTTPService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("server running")

	if err := <-errCh; err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("supervisor stopped")
		os.Exit(1)
	}
	logging.Info().Msg("shutdown complete")
}
