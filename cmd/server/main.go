package main

import (
	"log"

	"github.com/stekatag/project-management-app/internal/auth"
	"github.com/stekatag/project-management-app/internal/config"
	"github.com/stekatag/project-management-app/internal/database"
	"github.com/stekatag/project-management-app/internal/handlers"
	"github.com/stekatag/project-management-app/internal/routes"
	"github.com/stekatag/project-management-app/internal/storage"
)

func main() {
	cfg := config.Load()

	auth.Configure(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)

	database.InitDB(cfg.DatabasePath)

	disk, err := storage.NewDisk(cfg.StorageDir, cfg.StorageBaseURL)
	if err != nil {
		log.Fatal("Failed to initialize storage: ", err)
	}
	handlers.Init(disk)

	router := routes.SetupRoutes(disk)

	addr := ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
