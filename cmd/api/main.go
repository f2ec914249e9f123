package main

import (
	"log"

	"nutrichat/internal/config"
	"nutrichat/internal/handler"
	"nutrichat/internal/llm"
	"nutrichat/internal/middleware"
	"nutrichat/internal/relay"
	"nutrichat/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("main(): no .env file found, using process environment")
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatal("main(): failed to load config: ", err)
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("main(): failed to init database: ", err)
	}
	defer store.Close()
	log.Printf("main(): database ready at %s, model %s via %s", cfg.DBPath, cfg.LLMModel, cfg.LLMBaseURL)

	client := llm.NewClient(cfg.LLMBaseURL, cfg.LLMModel)
	h := handler.New(store, relay.New(client))

	router := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	router.POST("/signup", h.Signup)
	router.POST("/login", h.Login)

	protected := router.Group("/api").Use(middleware.AuthMiddleware())
	{
		protected.GET("/profile", h.GetProfile)
		protected.PUT("/profile", h.SaveProfile)
		protected.GET("/history", h.GetChatHistory)
	}

	router.GET("/ws/chat", h.HandleChat)
	log.Fatal(router.Run(cfg.ListenAddr))
}
