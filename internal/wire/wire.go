// internal/wire/wire.go
package wire

import (
	"net/http"

	"appointment-booking/internal/adaptor"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/usecase"
	"appointment-booking/pkg/database"
	"appointment-booking/pkg/events"
	"appointment-booking/pkg/middleware"
	"appointment-booking/pkg/ratelimit"
	"appointment-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds all dependencies
type App struct {
	Router *chi.Mux
}

// Wiring initializes all dependencies
func Wiring(db *database.DB, pub events.Publisher, config *utils.Config, logger *zap.Logger) *App {
	repo := repository.NewRepository(db, logger)

	exec := database.NewExecutor(db, database.ExecutorConfig{
		WriteTimeout:   config.Transaction.WriteTimeout(),
		ReadTimeout:    config.Transaction.ReadTimeout(),
		MaxRetries:     config.Transaction.MaxRetries,
		RetryBaseDelay: config.Transaction.RetryBaseDelay(),
		RetryMaxDelay:  config.Transaction.RetryMaxDelay(),
	}, logger)

	limiter := ratelimit.NewSlidingWindow(config.RateLimit.MaxAttempts, config.RateLimit.Window())

	// Initialize services and handlers
	service := usecase.NewService(repo, exec, limiter, pub, config, logger)
	handler := adaptor.NewHandler(service, logger)

	// Setup router
	router := setupRouter(handler, repo, config, logger)

	return &App{
		Router: router,
	}
}

// setupRouter configures the Chi router
func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Apply routes
	wireBooking(r, handler.Booking, repo, config, logger)
	wireSchedule(r, handler.Schedule, repo, config, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
