// main.go
package main

import (
	"log"

	"appointment-booking/cmd"
	"appointment-booking/internal/wire"
	"appointment-booking/pkg/database"
	"appointment-booking/pkg/events"
	"appointment-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Connect to the event broker, or run without one
	var pub events.Publisher = events.NopPublisher{}
	if config.AMQP.URL != "" {
		amqpPub, err := events.NewAMQPPublisher(config.AMQP.URL, config.AMQP.Exchange)
		if err != nil {
			logger.Fatal("Failed to connect to AMQP broker", zap.Error(err))
		}
		pub = amqpPub
		logger.Info("AMQP broker connected", zap.String("exchange", config.AMQP.Exchange))
	} else {
		logger.Warn("AMQP_URL not set, domain events will be dropped")
	}
	defer pub.Close()

	// Wire all dependencies
	app := wire.Wiring(db, pub, config, logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(app.Router, config.App.Port)
}
