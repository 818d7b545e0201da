package handler

import (
	"net/http"

	"github.com/eaglebank/transaction-api/shared/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Routes bundles what RegisterRoutes needs. Auth, when set, guards the
// mutating transaction routes.
type Routes struct {
	Transactions *TransactionHandler
	Reservations *ReservationHandler
	Auth         gin.HandlerFunc
}

func RegisterRoutes(router *gin.Engine, routes Routes) {
	router.HandleMethodNotAllowed = true
	router.NoRoute(func(c *gin.Context) {
		middleware.RespondWithError(c, http.StatusNotFound, "Resource not found")
	})
	router.NoMethod(func(c *gin.Context) {
		middleware.RespondWithError(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if h := routes.Transactions; h != nil {
		v1 := router.Group("/api/v1/transactions")
		v1.GET("", h.ListTransactions)
		v1.GET("/:id", h.GetTransaction)

		writes := v1.Group("")
		if routes.Auth != nil {
			writes.Use(routes.Auth)
		}
		writes.POST("", h.CreateTransaction)
		writes.PUT("", h.UpdateTransaction)
		writes.DELETE("", h.DeleteTransaction)
		writes.DELETE("/", h.DeleteTransaction)
		writes.DELETE("/:id", h.DeleteTransaction)
	}

	if h := routes.Reservations; h != nil {
		reservations := router.Group("/room/v1/reservation", cors.Default())
		reservations.GET("/:roomId", h.GetReservation)
		reservations.POST("/", h.CreateReservation)
		reservations.PUT("/:roomId", h.UpdatePrice)
		// preflight is answered by the cors middleware
		reservations.OPTIONS("/", func(*gin.Context) {})
		reservations.OPTIONS("/:roomId", func(*gin.Context) {})
	}
}
