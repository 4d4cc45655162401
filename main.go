package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/DodiBTW/RevisiaAPI/modules/api"
	"github.com/DodiBTW/RevisiaAPI/modules/auth"
	"github.com/DodiBTW/RevisiaAPI/modules/cache"
	"github.com/DodiBTW/RevisiaAPI/modules/images"
	"github.com/DodiBTW/RevisiaAPI/modules/study"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Revisia API ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	authModule := auth.NewModule()
	cacheModule := cache.NewModule()
	studyModule := study.NewModule()
	imagesModule := images.NewModule()
	apiModule := api.NewModule()

	// Providers are wired before start; modules resolve concrete services
	// in their own Start, so registration order matters here.
	studyModule.SetCacheModule(cacheModule)
	apiModule.SetStudyModule(studyModule)
	apiModule.SetImagesModule(imagesModule)

	app.Register(authModule)
	app.Register(cacheModule)
	app.Register(studyModule)
	app.Register(imagesModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("REST API Endpoints (http://localhost:3000):")
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/auth/register  - Register a new user")
	log.Println("  POST   /api/v1/auth/login     - Login and get tokens")
	log.Println("  POST   /api/v1/auth/refresh   - Rotate the refresh token")
	log.Println("  POST   /api/v1/auth/logout    - Invalidate a refresh token")
	log.Println("  GET    /health                - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /api/v1/users/me       - Current user profile")
	log.Println("  CRUD   /api/v1/courses        - Courses, chapters, deck links")
	log.Println("  CRUD   /api/v1/decks          - Decks and cards")
	log.Println("  POST   /api/v1/reviews        - Record card answers")
	log.Println("  GET    /api/v1/settings       - Scheduling settings")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
