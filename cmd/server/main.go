package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkinflow/config"
	_ "checkinflow/docs"
	"checkinflow/internal/adapters/auth"
	"checkinflow/internal/adapters/export"
	"checkinflow/internal/adapters/line"
	"checkinflow/internal/adapters/qrcode"
	"checkinflow/internal/adapters/storage"
	deliveryhttp "checkinflow/internal/delivery/http"
	"checkinflow/internal/delivery/http/controllers"
	"checkinflow/internal/delivery/http/middleware"
	"checkinflow/internal/repository/postgres"
	"checkinflow/internal/services"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// @title CheckinFlow API
// @version 1.0
// @description Event check-in and check-out with LINE Login, geofencing and attendance export.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		config.NewLogger().Error("config load failed", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("db open failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		logger.Error("db connection failed", "err", err)
		os.Exit(1)
	}
	if err := postgres.Migrate(db); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	fileStorage, err := storage.NewFileStorage(storage.Config{
		Provider: cfg.StorageType,
		Local:    storage.LocalConfig{Dir: cfg.UploadDir, BaseURL: cfg.PublicURL},
		S3: storage.S3Config{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Bucket:          cfg.S3BucketName,
			Endpoint:        cfg.S3Endpoint,
		},
	})
	if err != nil {
		logger.Error("storage init failed", "err", err)
		os.Exit(1)
	}

	tx := postgres.NewTransactor(db)
	eventRepo := postgres.NewEventRepository(db)
	attendeeRepo := postgres.NewAttendeeRepository(db)
	attendanceRepo := postgres.NewAttendanceRepository(db)
	adminRepo := postgres.NewAdminRepository(db)
	templateRepo := postgres.NewTemplateRepository(db)

	issuer := auth.NewJWTIssuer(cfg.JWTSecret)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	lineClient := line.NewClient(line.Config{
		ChannelID:     cfg.LineChannelID,
		ChannelSecret: cfg.LineChannelSecret,
		CallbackURL:   cfg.LineCallbackURL,
	})

	eventSvc := services.NewEventService(services.EventServiceConfig{
		Tx:             tx,
		EventRepo:      eventRepo,
		AttendanceRepo: attendanceRepo,
		QR:             qrcode.NewGenerator(0),
		Storage:        fileStorage,
		Exporter:       export.NewExporter(),
		FrontendURL:    cfg.FrontendURL,
		SeriesLocation: cfg.SeriesTimezone,
		Timeout:        cfg.RequestTimeout,
	})
	attendanceSvc := services.NewAttendanceService(tx, eventRepo, attendeeRepo, attendanceRepo, cfg.RequestTimeout)
	attendeeSvc := services.NewAttendeeService(attendeeRepo, lineClient, issuer, cfg.JWTExpiry, cfg.RequestTimeout)
	adminSvc := services.NewAdminService(adminRepo, auth.NewBcryptHasher(bcrypt.DefaultCost), issuer, cfg.JWTExpiry, cfg.AllowRegistration, cfg.RequestTimeout)
	templateSvc := services.NewTemplateService(templateRepo, cfg.RequestTimeout)

	uploadDir := ""
	if cfg.StorageType != "s3" {
		uploadDir = cfg.UploadDir
	}
	router := deliveryhttp.NewRouter(deliveryhttp.RouterDeps{
		Logger:    logger,
		Verifier:  verifier,
		Accounts:  adminRepo,
		UploadDir: uploadDir,
		Events:    controllers.NewEventController(logger, eventSvc),
		Checkins:  controllers.NewCheckinController(logger, attendanceSvc),
		Attendees: controllers.NewAttendeeController(logger, attendeeSvc, cfg.FrontendURL),
		Auth:      controllers.NewAuthController(logger, adminSvc),
		Admins:    controllers.NewAdminController(logger, adminSvc),
		Templates: controllers.NewTemplateController(logger, templateSvc),
	})
	handler := middleware.CORS(cfg.CORSOrigins, middleware.LoggingMiddleware(logger, router))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr, "env", cfg.Environment, "storage", cfg.StorageType)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
