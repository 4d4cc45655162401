package api

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/DodiBTW/RevisiaAPI/modules/auth"
	"github.com/DodiBTW/RevisiaAPI/modules/images"
	"github.com/DodiBTW/RevisiaAPI/modules/study"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// APIModule is the HTTP API module.
type APIModule struct {
	app           *fiber.App
	authContainer mono.ServiceContainer
	authAdapter   auth.AuthPort
	studyModule   *study.StudyModule
	imagesModule  *images.ImagesModule
	listenAddr    string
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule() *APIModule {
	addr := os.Getenv("API_LISTEN_ADDR")
	if addr == "" {
		addr = ":3000"
	}
	return &APIModule{
		listenAddr: addr,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authContainer = container
		m.authAdapter = auth.NewAuthAdapter(container)
	}
}

// SetStudyModule wires the study provider. Call before Start; the study
// module must be registered ahead of this one.
func (m *APIModule) SetStudyModule(sm *study.StudyModule) {
	m.studyModule = sm
}

// SetImagesModule wires the image storage provider. When storage is
// disabled the image endpoints answer 503.
func (m *APIModule) SetImagesModule(im *images.ImagesModule) {
	m.imagesModule = im
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authContainer == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.studyModule == nil || m.studyModule.GetService() == nil {
		return fmt.Errorf("study module not set or not started")
	}

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		BodyLimit:             8 * 1024 * 1024,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	m.app.Use(cors.New())

	m.setupRoutes()

	go func() {
		if err := m.app.Listen(m.listenAddr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", m.listenAddr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr": m.listenAddr,
		},
	}
}

// setupRoutes configures all API routes.
func (m *APIModule) setupRoutes() {
	var imageService *images.Service
	if m.imagesModule != nil {
		imageService = m.imagesModule.GetService()
	}
	handlers := NewHandlers(m.authContainer, m.authAdapter, m.studyModule.GetService(), imageService)

	// Health check endpoint
	m.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	v1 := m.app.Group("/api/v1")

	// Public auth routes
	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", handlers.Register)
	authRoutes.Post("/login", handlers.Login)
	authRoutes.Post("/refresh", handlers.Refresh)
	authRoutes.Post("/logout", handlers.Logout)

	// Protected routes (require authentication)
	protected := v1.Group("")
	protected.Use(AuthMiddleware(m.authAdapter))

	protected.Get("/users/me", handlers.Profile)

	protected.Get("/courses", handlers.ListCourses)
	protected.Post("/courses", handlers.CreateCourse)
	protected.Get("/courses/:id", handlers.GetCourse)
	protected.Put("/courses/:id", handlers.UpdateCourse)
	protected.Delete("/courses/:id", handlers.DeleteCourse)

	protected.Get("/courses/:id/chapters", handlers.ListChapters)
	protected.Post("/courses/:id/chapters", handlers.CreateChapter)
	protected.Put("/courses/:id/chapters/:chapterId", handlers.UpdateChapter)
	protected.Delete("/courses/:id/chapters/:chapterId", handlers.DeleteChapter)

	protected.Get("/courses/:id/decks", handlers.ListCourseDecks)
	protected.Post("/courses/:id/decks/:deckId", handlers.AddDeckToCourse)
	protected.Delete("/courses/:id/decks/:deckId", handlers.RemoveDeckFromCourse)

	protected.Get("/decks", handlers.ListDecks)
	protected.Post("/decks", handlers.CreateDeck)
	protected.Get("/decks/:id", handlers.GetDeck)
	protected.Put("/decks/:id", handlers.UpdateDeck)
	protected.Delete("/decks/:id", handlers.DeleteDeck)

	protected.Get("/decks/:id/cards", handlers.ListDeckCards)
	protected.Post("/decks/:id/cards", handlers.CreateCard)
	protected.Get("/cards/:id", handlers.GetCard)
	protected.Put("/cards/:id", handlers.UpdateCard)
	protected.Delete("/cards/:id", handlers.DeleteCard)

	protected.Post("/cards/:id/image", handlers.UploadCardImage)
	protected.Get("/cards/:id/image", handlers.GetCardImage)
	protected.Delete("/cards/:id/image", handlers.DeleteCardImage)

	protected.Get("/reviews", handlers.ListReviews)
	protected.Post("/reviews", handlers.CreateReview)

	protected.Get("/settings", handlers.GetSettings)
	protected.Put("/settings", handlers.SaveSettings)
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
