package v1

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"certverify/verification-backend/internal/ai"
	"certverify/verification-backend/internal/alerts"
	"certverify/verification-backend/internal/auth"
	"certverify/verification-backend/internal/certificates"
	"certverify/verification-backend/internal/config"
	"certverify/verification-backend/internal/dashboard"
	"certverify/verification-backend/internal/database"
	"certverify/verification-backend/internal/ocr"
	"certverify/verification-backend/internal/records"
	"certverify/verification-backend/internal/verification"
	"certverify/verification-backend/pkg/storage"
	"certverify/verification-backend/pkg/workflows"
)

// API holds every service and handler of the verification backend
type API struct {
	Auth         *auth.Service
	Records      *records.Service
	Certificates *certificates.Service
	Alerts       *alerts.Service
	Predictions  *ai.Service
	Verification *verification.Service
	Dashboard    *dashboard.Service
	Hub          *alerts.Hub

	authHandler         *auth.Handler
	recordsHandler      *records.Handler
	certificatesHandler *certificates.Handler
	alertsHandler       *alerts.Handler
	aiHandler           *ai.Handler
	verificationHandler *verification.Handler
	dashboardHandler    *dashboard.Handler
}

// Models lists the tables owned by the API, in migration order
func Models() []interface{} {
	return []interface{}{
		&auth.User{},
		&records.VerifiedRecord{},
		&certificates.Certificate{},
		&certificates.CertificateData{},
		&alerts.Alert{},
		&ai.Prediction{},
	}
}

// Setup builds the API with all dependencies
func Setup(ctx context.Context, cfg *config.Config, conns *database.Connections, logger *zap.Logger) (*API, error) {
	store, err := newObjectStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	authService := auth.NewService(auth.NewRepository(conns.Gorm), cfg.Security.JWTSecret, cfg.Security.TokenTTL, logger)
	recordService := records.NewService(records.NewPostgresRepository(conns.SQL), logger)

	extractor := ocr.NewTesseract(cfg.OCR.TesseractCmd, cfg.OCR.Languages, cfg.OCR.Timeout, logger)
	certService := certificates.NewService(
		certificates.NewPostgresRepository(conns.SQL),
		certificates.NewStorageProvider(store, cfg.Storage.PresignExpiry),
		extractor,
		certificates.UploadPolicy{
			MaxFileSize:       cfg.Upload.MaxFileSize,
			AllowedExtensions: cfg.Upload.AllowedExtensions,
		},
		logger,
	)

	hub := alerts.NewHub(cfg.CORS.AllowedOrigins, logger)
	alertRepo := alerts.NewGormRepository(conns.Gorm)
	alertOpts, err := notificationOptions(ctx, cfg.Notifications, logger)
	if err != nil {
		return nil, err
	}
	alertOpts = append(alertOpts, alerts.WithBroadcaster(hub))
	alertService := alerts.NewService(alertRepo, logger, alertOpts...)

	var predictor ai.Predictor
	if cfg.AI.ServiceURL != "" {
		predictor = ai.NewHTTPPredictor(cfg.AI.ServiceURL, cfg.AI.ModelVersion, cfg.AI.Timeout)
	}
	aiService := ai.NewService(ai.NewGormRepository(conns.Gorm), predictor, certService, logger)

	verifyService := verification.NewService(
		certService,
		recordService,
		verification.NewGormOutcomeStore(conns.Gorm, alertRepo, workflows.NewStateMachine()),
		alertService,
		aiService,
		verification.Options{
			Thresholds:     verification.ThresholdsFromConfig(cfg.Verification),
			CandidateLimit: cfg.Verification.CandidateLimit,
			BulkLimit:      cfg.Verification.BulkLimit,
		},
		logger,
	)

	dashService := dashboard.NewService(dashboard.NewPostgresRepository(conns.SQL), cfg.Dashboard.CacheTTL, logger)

	return &API{
		Auth:         authService,
		Records:      recordService,
		Certificates: certService,
		Alerts:       alertService,
		Predictions:  aiService,
		Verification: verifyService,
		Dashboard:    dashService,
		Hub:          hub,

		authHandler:         auth.NewHandler(authService, logger),
		recordsHandler:      records.NewHandler(recordService, logger),
		certificatesHandler: certificates.NewHandler(certService, logger),
		alertsHandler:       alerts.NewHandler(alertService, certService, hub, logger),
		aiHandler:           ai.NewHandler(aiService, logger),
		verificationHandler: verification.NewHandler(verifyService, logger),
		dashboardHandler:    dashboard.NewHandler(dashService, logger),
	}, nil
}

// RegisterRoutes mounts the public auth endpoints and the token-protected API under router
func RegisterRoutes(router *gin.RouterGroup, api *API, logger *zap.Logger) {
	protected := router.Group("")
	protected.Use(auth.RequireAuth(api.Auth, logger))

	auth.RegisterRoutes(router, protected, api.authHandler)
	api.recordsHandler.RegisterRoutes(protected)
	api.certificatesHandler.RegisterRoutes(protected)
	api.verificationHandler.RegisterRoutes(protected)
	api.alertsHandler.RegisterRoutes(protected)
	api.aiHandler.RegisterRoutes(protected)
	api.dashboardHandler.RegisterRoutes(protected)
}

func newObjectStore(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStore, error) {
	switch cfg.Driver {
	case "s3":
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			UsePathStyle:    cfg.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 store: %w", err)
		}
		return store, nil
	default:
		store, err := storage.NewLocalStore(cfg.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create local store: %w", err)
		}
		return store, nil
	}
}

// notificationOptions enables SNS push and the SES digest when they are configured
func notificationOptions(ctx context.Context, cfg config.NotificationsConfig, logger *zap.Logger) ([]alerts.Option, error) {
	if cfg.SNSTopicARN == "" && cfg.SESFromAddress == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var opts []alerts.Option
	if cfg.SNSTopicARN != "" {
		opts = append(opts, alerts.WithNotifier(alerts.NewSNSNotifier(sns.NewFromConfig(awsCfg), cfg.SNSTopicARN)))
		logger.Info("Critical alerts will be published to SNS", zap.String("topic", cfg.SNSTopicARN))
	}
	if cfg.SESFromAddress != "" && len(cfg.DigestRecipients) > 0 {
		opts = append(opts, alerts.WithDigest(alerts.NewSESDigestSender(sesv2.NewFromConfig(awsCfg), cfg.SESFromAddress), cfg.DigestRecipients))
	}
	return opts, nil
}
