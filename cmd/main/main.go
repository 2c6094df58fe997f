package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"censuspop/internal/api"
	"censuspop/internal/config"
	"censuspop/internal/postgres"
	"censuspop/internal/redis"
	"censuspop/internal/service/population"
	"censuspop/internal/service/zone"
	"censuspop/internal/worker"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := loadConfiguration()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, cache := initializeDatabaseAndCache(cfg)
	defer closeConnections()

	setupSignalHandler(cancel)

	svc := initializeServices(ctx, cfg, source, cache)

	worker.StartAllWorkers(ctx, svc, cache != nil)

	runAPIServer(cfg, svc)
}

func setupLogging(cfg config.Config) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
	}

	if cfg.LogFile == "" {
		return
	}

	// Set up logging to file and terminal
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	// The file stays open for the lifetime of the process

	// Use MultiWriter to output logs to both terminal and file
	multiWriter := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(multiWriter)
}

func loadConfiguration() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, err
	}
	if cfg.Port == "" {
		cfg.Port = ":8080"
	}
	return cfg, nil
}

// initializeDatabaseAndCache connects the optional backends. Zones are read
// from PostgreSQL when DB_URL is set and from the CSV data directory otherwise.
func initializeDatabaseAndCache(cfg config.Config) (zone.Source, population.Cache) {
	var source zone.Source = zone.CSVSource{DataDir: cfg.DataDir}
	if cfg.DBUrl != "" {
		db, err := postgres.Init(cfg.DBUrl)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		source = zone.PGSource{Store: postgres.NewZoneStore(db)}
	} else {
		log.Printf("DB_URL is not set, reading zones from %s", cfg.DataDir)
	}

	var cache population.Cache
	if cfg.RedisUrl != "" {
		client, err := redis.Init(cfg.RedisUrl)
		if err != nil {
			log.Errorf("Redis unavailable, running without cache: %v", err)
		} else {
			cache = redis.NewCache(client, "censuspop:")
		}
	}

	return source, cache
}

func initializeServices(ctx context.Context, cfg config.Config, source zone.Source, cache population.Cache) *population.Service {
	// Initialize zone service
	zoneService := zone.GetZoneService()
	if err := zoneService.InitService(ctx, source, cfg.CityNames()); err != nil {
		log.Fatalf("Failed to initialize zone service: %v", err)
	}

	opts := []population.Option{population.WithWorkers(cfg.Pass2Workers)}
	if cache != nil {
		opts = append(opts, population.WithCache(cache, cfg.CacheTTL))
	}
	return population.NewService(zoneService, opts...)
}

func runAPIServer(cfg config.Config, svc *population.Service) {
	// Initialize Gin router
	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		r.Use(gin.LoggerWithWriter(log.StandardLogger().Writer()))
	}

	// Configure API routes
	api.SetupRouter(r, svc, cfg)

	// Start the server
	log.Printf("Listening on %s", cfg.Port)
	if err := r.Run(cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func closeConnections() {
	if err := postgres.Close(); err != nil {
		log.Printf("Error closing PostgreSQL connection: %v", err)
	}

	if err := redis.Close(); err != nil {
		log.Printf("Error closing Redis connection: %v", err)
	}
}

func setupSignalHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Println("Shutdown signal received, closing connections...")
		cancel()
		closeConnections()
		os.Exit(0)
	}()
}
