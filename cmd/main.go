package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/clinical-monitor/config"
	"github.com/oksasatya/clinical-monitor/internal/container"
	pginfra "github.com/oksasatya/clinical-monitor/internal/infrastructure/postgres"
	"github.com/oksasatya/clinical-monitor/internal/infrastructure/search"
	"github.com/oksasatya/clinical-monitor/internal/interface/middleware"
	"github.com/oksasatya/clinical-monitor/internal/router"
	"github.com/oksasatya/clinical-monitor/pkg/helpers"
	"github.com/oksasatya/clinical-monitor/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Postgres
	pool, err := pginfra.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	// Redis holds sessions; without it nobody can sign in
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()
	if err := helpers.PingRedis(ctx, rdb); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	container.SetJWT(helpers.NewJWTManager(cfg.SessionSecret, cfg.SessionTTL))

	closeOptional := initOptional(ctx, cfg, logger)
	defer closeOptional()

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) > 0 {
		r.Use(cors.New(corsCfg))
	}
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	reg := router.NewRegistry(r)
	reg.AddHealthCheck("postgres", func(ctx context.Context) error { return pginfra.Ping(ctx, pool) })
	reg.AddHealthCheck("redis", func(ctx context.Context) error { return helpers.PingRedis(ctx, rdb) })
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// initOptional connects the clients the account flows can run without:
// avatar storage, the email queue and the account directory. A failure is
// logged and the feature stays off.
func initOptional(ctx context.Context, cfg *config.Config, logger *logrus.Logger) func() {
	var closers []func()

	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Warn("GCS unavailable, avatar upload disabled")
		} else {
			container.SetAvatars(helpers.NewGCSUploader(gcsClient, cfg.GCSBucket))
			closers = append(closers, func() { _ = gcsClient.Close() })
		}
	}

	if cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("RabbitMQ unavailable, email notifications disabled")
		} else {
			container.SetRabbitPub(pub)
			closers = append(closers, pub.Close)
		}
	}

	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("Elasticsearch unavailable, account search disabled")
		} else if err := search.NewAccountIndex(es, cfg.ESAccountsIndex).EnsureIndex(ctx); err != nil {
			logger.WithError(err).Warn("Elasticsearch index setup failed, account search disabled")
		} else {
			container.SetES(es)
		}
	}

	return func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
