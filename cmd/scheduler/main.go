package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cartwisp/recovery-gateway/internal/config"
	"github.com/cartwisp/recovery-gateway/internal/coupon"
	gateway "github.com/cartwisp/recovery-gateway/internal/gateways"
	"github.com/cartwisp/recovery-gateway/internal/repository"
	"github.com/cartwisp/recovery-gateway/internal/scheduler"
	"github.com/cartwisp/recovery-gateway/internal/services"
	"github.com/cartwisp/recovery-gateway/pkg/logger"
	"github.com/cartwisp/recovery-gateway/pkg/pg"
	"github.com/cartwisp/recovery-gateway/pkg/prom"
	"github.com/cartwisp/recovery-gateway/pkg/redis"
	"github.com/cartwisp/recovery-gateway/pkg/runner"
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

	couponIssuer := coupon.NewIssuer(db, couponRepo)
	scanner := scheduler.NewScanner(cartRepo, productRepo, deliveryLogRepo, couponIssuer, client, redisAdap)
	notifyService := services.NewNotifyService(orderRepo, deliveryLogRepo, client)

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	go func() {
		prom.ListenAndServer(":9100", "/metrics")
	}()

	r := runner.New()
	r.Add("cart-scan", config.Get().CartScanInterval, func(ctx context.Context) {
		if err := scanner.Scan(ctx); err != nil {
			logger.Error("cart scan failed", "error", err)
		}
	})
	r.Add("coupon-sweep", config.Get().CouponSweepInterval, func(ctx context.Context) {
		if _, err := couponIssuer.SweepExpired(ctx, time.Now()); err != nil {
			logger.Error("coupon sweep failed", "error", err)
		}
	})
	r.Add("review-scan", config.Get().ReviewScanInterval, func(ctx context.Context) {
		if err := notifyService.ScanReviewReminders(ctx); err != nil {
			logger.Error("review reminder scan failed", "error", err)
		}
	})
	r.Start()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt, syscall.SIGTERM)

	select {
	case <-c:
		r.Stop()
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
