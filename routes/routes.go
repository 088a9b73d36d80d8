package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Irvanev/hvala-dvisor-sub000/controllers"
	"github.com/Irvanev/hvala-dvisor-sub000/identity"
	"github.com/Irvanev/hvala-dvisor-sub000/metrics"
	"github.com/Irvanev/hvala-dvisor-sub000/middlewares"
	"github.com/Irvanev/hvala-dvisor-sub000/ws"
)

// Deps is everything the router needs, built once in main.
type Deps struct {
	Identity               identity.Provider
	CORSOrigins            []string
	BootstrapRatePerMinute int

	Auth          *controllers.AuthController
	Restaurants   *controllers.RestaurantController
	Reviews       *controllers.ReviewController
	Favorites     *controllers.FavoriteController
	Moderation    *controllers.ModerationController
	Notifications *controllers.NotificationController
	Admin         *controllers.AdminController
	Functions     *controllers.FunctionsController
	Hub           *ws.NotificationHub
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middlewares.RequestLogger())
	r.Use(metrics.Middleware())
	r.Use(middlewares.CORSMiddleware(d.CORSOrigins))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := middlewares.AuthMiddleware(d.Identity)
	optional := middlewares.OptionalAuth(d.Identity)

	// Privileged functions
	fn := r.Group("/functions")
	{
		fn.POST("/setUserRole", middlewares.CallableAuth(d.Identity), d.Functions.SetUserRole)
		fn.POST("/moderateRestaurant", middlewares.CallableAuth(d.Identity), d.Functions.ModerateRestaurant)
		fn.GET("/createInitialAdmin", middlewares.RateLimit(d.BootstrapRatePerMinute), d.Functions.CreateInitialAdmin)
	}

	// Auth (public)
	a := r.Group("/auth")
	{
		a.POST("/register", d.Auth.Register)
		a.POST("/login", d.Auth.Login)
	}

	// Auth (protected)
	aAuth := a.Group("", auth)
	{
		aAuth.GET("/me", d.Auth.Me)
		aAuth.PATCH("/me", d.Auth.UpdateMe)
	}

	// Restaurants: reads and submission work anonymously
	rest := r.Group("/restaurants")
	{
		rest.GET("", d.Restaurants.List)
		rest.POST("", optional, d.Restaurants.Submit)
		rest.GET("/:id", optional, d.Restaurants.Detail)
		rest.PATCH("/:id", auth, d.Restaurants.Update)
		rest.DELETE("/:id", auth, d.Restaurants.Delete)

		rest.GET("/:id/reviews", d.Reviews.ListForRestaurant)
		rest.POST("/:id/reviews", auth, d.Reviews.Create)
		rest.POST("/:id/like", auth, d.Favorites.Toggle)
	}

	reviews := r.Group("/reviews", auth)
	{
		reviews.PATCH("/:id", d.Reviews.Update)
		reviews.DELETE("/:id", d.Reviews.Delete)
		reviews.POST("/:id/helpful", d.Reviews.Helpful)
		reviews.POST("/:id/hide", d.Reviews.Hide)
	}

	// Profile
	profile := r.Group("/profile", auth)
	{
		profile.GET("/restaurants", d.Restaurants.ListMine)
		profile.GET("/reviews", d.Reviews.ListMine)
		profile.GET("/favorites", d.Favorites.List)
	}

	// Moderation (moderator/admin, checked against the stored role)
	mod := r.Group("/moderation", auth)
	{
		mod.GET("/restaurants", d.Moderation.Queue)
		mod.GET("/actions", d.Moderation.History)
	}

	notif := r.Group("/notifications", auth)
	{
		notif.GET("", d.Notifications.List)
		notif.PATCH("/:id/read", d.Notifications.MarkRead)
		notif.POST("/read-all", d.Notifications.MarkAllRead)
	}
	r.GET("/ws/notifications", middlewares.WSAuthMiddleware(d.Identity), d.Hub.HandleWebSocket)

	// Admin (admin only)
	admin := r.Group("/admin", auth)
	{
		admin.GET("/users", d.Admin.Users)
	}
}
