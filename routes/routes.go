package routes

import (
	"time"

	"gymbook/handlers"
	"gymbook/middleware"
	"gymbook/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterSessionRoutes registers session authoring and calendar endpoints.
func RegisterSessionRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	staff := middleware.RequireRole(utils.RoleTrainer, utils.RoleAdmin)

	sessions := api.Group("/sessions")
	{
		sessions.GET("/:id", hb.GetSessionHandler)
		sessions.GET("/calendar/:start/:end", hb.GetCalendarHandler)

		sessions.POST("", staff, hb.CreateSessionHandler)
		sessions.POST("/recurring", staff, hb.CreateRecurringSessionsHandler)
		sessions.DELETE("/:id", staff, hb.DeleteSessionHandler)
		sessions.POST("/:id/cancel", staff, hb.CancelSessionHandler)
		sessions.PATCH("/:id/status", staff, hb.UpdateSessionStatusHandler)
	}
}

// RegisterBookingRoutes registers booking, reservation and waitlist endpoints.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	staff := middleware.RequireRole(utils.RoleTrainer, utils.RoleAdmin)

	sessions := api.Group("/sessions/:id")
	{
		sessions.POST("/book", hb.BookSessionSpotHandler)
		sessions.DELETE("/book/:clientId", hb.CancelBookingHandler)
		sessions.POST("/reserve", hb.ReserveHandler)
		sessions.GET("/bookings", staff, hb.GetSessionBookingsHandler)
		sessions.POST("/attendance", staff, hb.MarkAttendanceHandler)

		sessions.POST("/waitlist", hb.JoinWaitlistHandler)
		sessions.DELETE("/waitlist/:clientId", hb.LeaveWaitlistHandler)
		sessions.GET("/waitlist", hb.GetSessionWaitlistHandler)
	}

	clients := api.Group("/clients/:id")
	{
		clients.GET("/bookings", hb.GetClientBookingsHandler)
		clients.GET("/waitlist", hb.GetClientWaitlistHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)

	api := r.Group("/api")
	api.Use(middleware.JWTAuthMiddleware())
	RegisterSessionRoutes(api, hb)
	RegisterBookingRoutes(api, hb)
}
