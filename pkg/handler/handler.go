package handler

import (
	"cypherd_wallet_back/pkg/middleware"
	"cypherd_wallet_back/pkg/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *service.Service
	origins []string
}

func NewHandler(service *service.Service, corsOrigins []string) *Handler {
	return &Handler{
		service: service,
		origins: corsOrigins,
	}
}

func (h *Handler) InitRoute() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     h.origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/me", middleware.AuthMiddleware(h.service.Authorization), h.Me)
	}

	api := router.Group("/api", middleware.AuthMiddleware(h.service.Authorization))
	{
		wallets := api.Group("/wallets")
		{
			wallets.POST("/create", h.CreateWallet)
			wallets.GET("/me", h.MyWallet)
		}

		transfer := api.Group("/transfer")
		{
			transfer.POST("/prepare", h.PrepareTransfer)
			transfer.POST("/execute", h.ExecuteTransfer)
		}

		api.GET("/history", h.History)
	}
	return router
}
