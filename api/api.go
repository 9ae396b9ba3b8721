package api

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/utils/response"
)

// APIServer owns the fiber instance and its listen lifecycle
type APIServer struct {
	app           *fiber.App
	listenAddress string
}

// NewAPIServer builds the fiber app. Framework-level errors (unknown
// routes, oversized bodies) go through the same JSON envelope the
// handlers produce.
func NewAPIServer(listenAddress string) *APIServer {
	app := fiber.New(fiber.Config{
		AppName:      "LeadScout",
		ErrorHandler: errorHandler,
		BodyLimit:    2 * 1024 * 1024,
		ReadTimeout:  15 * time.Second,
		// Export downloads stream a whole workbook, so writes get longer.
		WriteTimeout: 60 * time.Second,
	})

	return &APIServer{
		app:           app,
		listenAddress: listenAddress,
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(response.Response{
		Success: false,
		Error: &response.ErrorDetail{
			Code:    fmt.Sprintf("HTTP_%d", code),
			Message: message,
		},
	})
}

// GetEngine exposes the underlying fiber app for route registration
func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

// Run listens until SIGINT or SIGTERM, then drains in-flight requests
// before returning so deferred cleanup in the caller can run.
func (s *APIServer) Run() error {
	shutdownErr := make(chan error, 1)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down API server...")
		shutdownErr <- s.app.Shutdown()
	}()

	log.Printf("Starting LeadScout API on %s", s.listenAddress)
	if err := s.app.Listen(s.listenAddress); err != nil {
		return err
	}
	return <-shutdownErr
}
