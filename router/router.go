package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ordengo/floor-api/controllers"
	"github.com/ordengo/floor-api/hub"
	"github.com/ordengo/floor-api/middlewares"
	"github.com/ordengo/floor-api/services"
	"github.com/ordengo/floor-api/utils"
	"gorm.io/gorm"
)

// SetupRouter wires the request surface. Tablet endpoints are addressed by
// the table's QR token; staff endpoints require a bearer token carrying the
// tenant.
func SetupRouter(db *gorm.DB, push services.PushEnqueuer) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	// 50 requests per second per IP; must attach before any route is
	// registered or gin's handler chains never pick it up.
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	userCtrl := controllers.NewUserController(db)
	tableCtrl := controllers.NewTableController(db)
	sessionCtrl := controllers.NewSessionController(db)
	orderCtrl := controllers.NewOrderController(db)
	notificationCtrl := controllers.NewNotificationController(db, push)
	pushCtrl := controllers.NewPushController(db)
	wsCtrl := controllers.NewWSController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := 200
		shared := utils.GetDB()
		if shared == nil {
			shared = db
		}
		if sqlDB, err := shared.DB(); err != nil || sqlDB.Ping() != nil {
			status = "degraded"
			code = 503
		}
		c.JSON(code, gin.H{
			"status":     status,
			"ws_clients": hub.ClientCount(),
		})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// ----------------------------------------------------------------
	//                      TABLET ROUTES (QR token)
	// ----------------------------------------------------------------
	tablet := r.Group("/t/:token")
	{
		tablet.GET("", tableCtrl.ScanTable)
		tablet.POST("/session", sessionCtrl.StartSession)
		tablet.GET("/orders", orderCtrl.GetTableOrders)
		tablet.POST("/orders", orderCtrl.CreateOrder)
		tablet.POST("/notifications", notificationCtrl.CreateFromTable)
		tablet.GET("/ws", wsCtrl.TableSocket)
	}

	// ----------------------------------------------------------------
	//                      STAFF ROUTES (JWT)
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())

	// TABLES; reshaping the floor is an admin concern, running it is not.
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.POST("/tables", middlewares.RequireRoles("admin"), tableCtrl.CreateTable)
	auth.PATCH("/tables/:table_id/status", middlewares.RequireRoles("waiter"), tableCtrl.OverrideTableStatus)
	auth.DELETE("/tables/:table_id", middlewares.RequireRoles("admin"), tableCtrl.DeleteTable)

	// SESSIONS
	auth.GET("/sessions/:session_id", sessionCtrl.GetSession)
	auth.GET("/sessions/:session_id/orders", sessionCtrl.GetSessionOrders)
	auth.POST("/sessions/:session_id/close", middlewares.RequireRoles("waiter"), sessionCtrl.CloseSession)

	// ORDERS
	auth.POST("/orders", middlewares.RequireRoles("waiter"), orderCtrl.CreateStaffOrder)
	auth.GET("/orders/active", orderCtrl.GetActiveOrders)
	auth.PATCH("/orders/:order_id/status", middlewares.RequireRoles("kitchen", "waiter"), orderCtrl.UpdateOrderStatus)

	// NOTIFICATIONS
	auth.POST("/notifications", middlewares.RequireRoles("waiter"), notificationCtrl.CreateNotification)
	auth.GET("/notifications/pending", notificationCtrl.GetPendingNotifications)
	auth.PATCH("/notifications/:notif_id/resolve", middlewares.RequireRoles("waiter"), notificationCtrl.ResolveNotification)

	// PUSH
	auth.POST("/push/subscribe", pushCtrl.Subscribe)

	// Staff websocket; browsers pass the token as a query parameter.
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("", wsCtrl.StaffSocket)
	}

	return r
}
