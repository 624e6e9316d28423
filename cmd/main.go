package main

import (
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	cypherd "cypherd_wallet_back"
	"cypherd_wallet_back/pkg/approvals"
	"cypherd_wallet_back/pkg/handler"
	"cypherd_wallet_back/pkg/prices"
	"cypherd_wallet_back/pkg/repository"
	"cypherd_wallet_back/pkg/service"
	"cypherd_wallet_back/pkg/utils"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	if err := godotenv.Load(); err != nil {
		logrus.Infof("no .env file loaded: %s", err)
	}

	if err := initConfig(); err != nil {
		logrus.Fatalf("failed to read config: %s", err.Error())
	}

	db, err := repository.NewPostgresDB(repository.Config{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   viper.GetString("db.dbname"),
		SSLMode:  viper.GetString("db.sslmode"),
	})
	if err != nil {
		logrus.Fatalf("failed to connect to postgres: %s", err.Error())
	}
	logrus.Info("postgres connected")

	repos := repository.NewRepository(db)

	approvalStore := newApprovalStore()
	oracle := prices.NewOracle(prices.Config{
		URL:               viper.GetString("prices.url"),
		Timeout:           viper.GetDuration("prices.timeout"),
		FallbackRateCents: viper.GetInt64("prices.fallback_eth_usd") * 100,
	})
	notifier := utils.NewNotifier(utils.NotifyConfig{
		FromEmail:     viper.GetString("notify.from_email"),
		FromName:      viper.GetString("notify.from_name"),
		MailjetAPIKey: os.Getenv("MAILJET_API_KEY"),
		MailjetSecret: os.Getenv("MAILJET_SECRET_KEY"),
		SMTPHost:      viper.GetString("notify.smtp_host"),
		SMTPPort:      viper.GetInt("notify.smtp_port"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
	})

	services := service.NewService(service.Deps{
		Repos:     repos,
		Approvals: approvalStore,
		Oracle:    oracle,
		Notifier:  notifier,
		Auth: service.AuthConfig{
			SigningKey: os.Getenv("SECRET_KEY"),
			TokenTTL:   viper.GetDuration("auth.token_ttl"),
		},
	})
	handlers := handler.NewHandler(services, viper.GetStringSlice("server.cors_origins"))

	port := os.Getenv("PORT")
	if port == "" {
		port = viper.GetString("server.port")
	}

	srv := new(cypherd.Server)
	logrus.Infof("starting server on port %s", port)
	if err := srv.Run(port, handlers.InitRoute()); err != nil {
		logrus.Fatalf("server stopped: %s", err)
	}
}

func newApprovalStore() service.Approvals {
	ttl := viper.GetDuration("approvals.ttl")
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	if viper.GetString("approvals.backend") == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     viper.GetString("redis.addr"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("redis.db"),
		})
		logrus.Info("approvals: using redis store")
		return approvals.NewRedisStore(rdb, ttl)
	}
	logrus.Info("approvals: using in-memory store")
	return approvals.NewStore(ttl)
}

func initConfig() error {
	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}
