package main

import (
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/cartwisp/recovery-gateway/internal/config"
	gateway "github.com/cartwisp/recovery-gateway/internal/gateways"
	"github.com/cartwisp/recovery-gateway/internal/handlers"
	"github.com/cartwisp/recovery-gateway/internal/recovery"
	"github.com/cartwisp/recovery-gateway/internal/repository"
	"github.com/cartwisp/recovery-gateway/internal/services"
	"github.com/cartwisp/recovery-gateway/pkg/logger"
	"github.com/cartwisp/recovery-gateway/pkg/pg"
	"github.com/cartwisp/recovery-gateway/pkg/redis"
	xhttp "github.com/cartwisp/recovery-gateway/pkg/xhttp"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	client, err := gateway.NewClient(&gateway.Config{
		APIURL:             config.Get().ProviderApiUrl,
		Token:              config.Get().ProviderApiToken,
		From:               config.Get().ProviderFromNumber,
		Timeout:            config.Get().ProviderSendTimeout,
		DefaultCountryCode: config.Get().DefaultCountryCode,
	})
	if err != nil {
		logger.Error("failed to create provider client", "error", err)
		return
	}

	cartRepo := repository.NewCartRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	deliveryLogRepo := repository.NewDeliveryLogRepository(db)

	// services
	captureService := services.NewCaptureService(cartRepo, redisAdap)
	notifyService := services.NewNotifyService(orderRepo, deliveryLogRepo, client)
	sessions := recovery.NewSessionStore(redisAdap)
	recoveryService := recovery.NewService(cartRepo, productRepo, couponRepo, sessions, config.Get().ShopUrl+"/checkout")

	// v1 handlers
	cartHandler := handlers.NewCartHandler(captureService)
	orderHandler := handlers.NewOrderHandler(notifyService)
	couponHandler := handlers.NewCouponHandler(couponRepo)
	recoveryHandler := handlers.NewRecoveryHandler(recoveryService)
	healthHandler := handlers.NewHealthHandler()

	g := s.Router.Group("/api/v1")
	handlers.RegisterCartRoutes(g, cartHandler)
	handlers.RegisterOrderRoutes(g, orderHandler)
	handlers.RegisterCouponRoutes(g, couponHandler)
	handlers.RegisterRecoveryRoutes(s.Router, recoveryHandler)
	handlers.RegisterHealthRoutes(s.Router, healthHandler)

	// Create new server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
