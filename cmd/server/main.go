package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"orderly/backend/internal/auth"
	"orderly/backend/internal/config"
	"orderly/backend/internal/database"
	"orderly/backend/internal/handler"
	"orderly/backend/internal/metrics"
	"orderly/backend/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Swagger imports
	_ "orderly/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Orderly Group Ordering API
// @version         1.0
// @description     Collaborative group-ordering sessions and live stock propagation for the Orderly platform.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	// Background maintenance: close expired sessions, prune the join ledger.
	sweeper := session.NewSweeper(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Start(ctx)

	router := gin.Default()
	router.Use(metrics.Middleware())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes. Group-order and stock-stream routes are deliberately
	// unauthenticated: guests join with a code and a device token only.
	apiV1 := router.Group("/api/v1")
	{
		groupOrders := apiV1.Group("/group-orders")
		{
			groupOrders.POST("", handler.CreateGroupOrder)
			groupOrders.GET("/:code", handler.GetGroupOrder)
			groupOrders.POST("/:code/join", handler.JoinGroupOrder)
			groupOrders.POST("/:code/leave", handler.LeaveGroupOrder)
			groupOrders.PUT("/:code/cart", handler.UpdateParticipantCart)
			groupOrders.DELETE("/:code/participants/:participantID", handler.KickParticipant)
		}

		merchants := apiV1.Group("/merchants")
		{
			merchants.GET("/:merchantID/stock", handler.GetStockSnapshot)
			merchants.GET("/:merchantID/stock/stream", handler.StreamStock)
		}
	}

	// Internal routes for the checkout flow, the POS bridge and merchant
	// dashboards (protected by a service token).
	internalV1 := router.Group("/internal/v1")
	internalV1.Use(auth.ServiceAuthMiddleware())
	{
		internalV1.POST("/stock/decrement", handler.CommitStockDecrement)
		internalV1.POST("/stock/items", handler.CreateStockItem)
		internalV1.GET("/merchants/:merchantID/group-orders", handler.ListMerchantGroupOrders)
	}

	addr := ":" + config.AppConfig.Port
	fmt.Println("Server is running on " + addr)
	fmt.Println("Swagger UI is available at http://localhost:8080/swagger/index.html")
	log.Fatal(router.Run(addr))
}
