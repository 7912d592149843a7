// cmd/server/main.go
package main

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"zapdispatch/internal/config"
	"zapdispatch/internal/controller"
	"zapdispatch/internal/db"
	"zapdispatch/internal/gateway"
	"zapdispatch/internal/metrics"
	"zapdispatch/internal/progress"
	"zapdispatch/internal/queue"
	"zapdispatch/internal/repository"
	"zapdispatch/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on OS environment variables")
	}
	cfg := config.Load()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			logger.WithError(err).Warn("sentry init failed")
		}
		defer sentry.Flush(2 * time.Second)
	}

	conn, err := db.Connect(cfg.DBDSN)
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}
	defer conn.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	progressChannel := progress.NewRedisChannel(rdb, logger)

	mq, err := queue.Dial(cfg.AMQPURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("RabbitMQ connection failed")
	}
	defer mq.Close()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	messageRepo := &repository.MessageRepository{DB: conn}
	contactRepo := &repository.ContactRepository{DB: conn}
	categoryRepo := &repository.CategoryRepository{DB: conn}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		MessageRepo:  messageRepo,
		ContactRepo:  contactRepo,
		Queue:        mq,
		Logger:       logger,
	}
	contactService := &service.ContactService{ContactRepo: contactRepo, Logger: logger}
	quickSendService := &service.QuickSendService{
		ContactRepo: contactRepo,
		Gateway:     newGatewayClient(cfg, logger),
		Logger:      logger,
	}
	statsService := &service.StatsService{
		ContactRepo:  contactRepo,
		CategoryRepo: categoryRepo,
		CampaignRepo: campaignRepo,
		MessageRepo:  messageRepo,
	}

	validate := validator.New()
	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
		Progress:        progressChannel,
		Validate:        validate,
	}
	contactController := &controller.ContactController{
		ContactRepo:    contactRepo,
		ContactService: contactService,
		Validate:       validate,
	}
	categoryController := &controller.CategoryController{CategoryRepo: categoryRepo, Validate: validate}
	quickSendController := &controller.QuickSendController{QuickSendService: quickSendService}
	dashboardController := &controller.DashboardController{StatsService: statsService, Gateway: cfg.Gateway}

	metrics.Register()

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(metrics.HTTPMiddleware)

	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)
	r.Post("/campaigns/{id}/start", campaignController.StartCampaign)
	r.Post("/campaigns/{id}/requeue-failed", campaignController.RequeueFailed)
	r.Get("/campaigns/{id}/events", campaignController.StreamEvents)

	r.Post("/contacts", contactController.CreateContact)
	r.Get("/contacts", contactController.ListContacts)
	r.Get("/contacts/{id}", contactController.GetContact)
	r.Put("/contacts/{id}", contactController.UpdateContact)
	r.Delete("/contacts/{id}", contactController.DeleteContact)
	r.Put("/contacts/{id}/categories", contactController.SetCategories)
	r.Post("/contacts/import", contactController.ImportCSV)
	r.Get("/contacts/export", contactController.ExportCSV)

	r.Post("/categories", categoryController.CreateCategory)
	r.Get("/categories", categoryController.ListCategories)
	r.Put("/categories/{id}", categoryController.UpdateCategory)
	r.Delete("/categories/{id}", categoryController.DeleteCategory)

	r.Post("/quick-send", quickSendController.Send)
	r.Get("/dashboard/stats", dashboardController.Stats)
	r.Get("/gateway/status", dashboardController.GatewayStatus)

	r.Handle("/metrics", metrics.Handler())

	logger.WithField("port", cfg.HTTPPort).Info("server running")
	logger.Fatal(http.ListenAndServe(":"+cfg.HTTPPort, r))
}

func newGatewayClient(cfg *config.Config, logger *logrus.Logger) *gateway.Client {
	return gateway.NewClient(cfg.Gateway, cfg.SendTimeout, logger)
}
