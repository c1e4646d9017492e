package main

import (
	"log"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/config"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/database"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/handlers"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/middleware"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/services"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/ws"

	_ "github.com/SwAsTiK-KuL/realtime-voting/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Realtime Voting API
// @version         1.0
// @description     Poll voting API with live tally broadcast over WebSocket
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	hub := ws.NewHub()

	authService := services.NewAuthService(db, cfg.JWTSecret)
	pollService := services.NewPollService(db)
	resultsService := services.NewResultsService(db)
	voteService := services.NewVoteService(db, cfg.SingleChoicePolls)

	authHandler := handlers.NewAuthHandler(authService)
	pollHandler := handlers.NewPollHandler(pollService)
	voteHandler := handlers.NewVoteHandler(voteService, hub)
	wsHandler := handlers.NewWSHandler(ws.NewEventHandler(hub, authService, pollService, resultsService))

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: cfg.CORSOrigin != "*",
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws", wsHandler.HandleWebSocket)

	api := r.Group("/api")
	api.Use(middleware.NewAPIRateLimiter().Handler())
	{
		api.GET("/health", handlers.Health)

		users := api.Group("/users")
		{
			users.POST("/register", authHandler.Register)
			users.POST("/login", authHandler.Login)
			users.GET("/profile", middleware.JWTAuth(authService), authHandler.Profile)
		}

		polls := api.Group("/polls")
		{
			polls.POST("", middleware.JWTAuth(authService), pollHandler.CreatePoll)
			polls.GET("", middleware.OptionalAuth(authService), pollHandler.ListPolls)
			polls.GET("/:id", middleware.OptionalAuth(authService), pollHandler.GetPoll)
			polls.PUT("/:id", middleware.JWTAuth(authService), pollHandler.UpdatePoll)
			polls.DELETE("/:id", middleware.JWTAuth(authService), pollHandler.DeletePoll)
		}

		votes := api.Group("/votes")
		votes.Use(middleware.JWTAuth(authService))
		{
			votes.POST("", voteHandler.CastVote)
			votes.DELETE("/:id", voteHandler.RemoveVote)
			votes.GET("/mine", voteHandler.ListMyVotes)
			votes.GET("/poll/:pollId", voteHandler.ListPollVotes)
		}
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
