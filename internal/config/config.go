package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/cartwisp/recovery-gateway/pkg/logger"
)

var config *Config

// Config holds every setting the service reads. Only this struct may be used
// to hold configuration values; no direct access to env or any other config
// source should be made elsewhere.
type Config struct {
	AppEnv     string `env:"APP_ENV" default:"dev"`
	AppName    string `env:"APP_NAME" default:"recovery_gateway"`
	AppDebug   bool   `env:"APP_DEBUG" default:"1"`
	AppBaseUrl string `env:"APP_BASE_URL" default:"http://localhost:8080"`

	HttpListenAddr string `env:"HTTP_LISTEN_ADDR" default:":8080"`

	ShopName     string `env:"SHOP_NAME" default:"CartWisp Store"`
	ShopUrl      string `env:"SHOP_URL" default:"http://localhost:8080"`
	ShopCurrency string `env:"SHOP_CURRENCY" default:"$"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX" default:"cartwisp"`

	PromNamespace string `env:"PROM_NAMESPACE" default:"recovery_gateway"`

	// Messaging provider. A missing token or from-number makes every send
	// fail fast without a network call.
	ProviderApiUrl      string        `env:"PROVIDER_API_URL"`
	ProviderApiToken    string        `env:"PROVIDER_API_TOKEN"`
	ProviderFromNumber  string        `env:"PROVIDER_FROM_NUMBER"`
	ProviderSendTimeout time.Duration `env:"PROVIDER_SEND_TIMEOUT" default:"30s"`

	DefaultCountryCode string `env:"DEFAULT_COUNTRY_CODE" default:"57"`
	AttachCartImage    bool   `env:"ATTACH_CART_IMAGE"`
	EnableDeliveryLog  bool   `env:"ENABLE_DELIVERY_LOG" default:"1"`

	AdminNumbers []string `env:"ADMIN_NUMBERS"`

	CartScanInterval    time.Duration `env:"CART_SCAN_INTERVAL" default:"5m"`
	CouponSweepInterval time.Duration `env:"COUPON_SWEEP_INTERVAL" default:"24h"`
	ReviewScanInterval  time.Duration `env:"REVIEW_SCAN_INTERVAL" default:"10m"`

	CaptureTokenTTL time.Duration `env:"CAPTURE_TOKEN_TTL" default:"2h"`

	Step1Enabled          bool          `env:"STEP1_ENABLED"`
	Step1Delay            time.Duration `env:"STEP1_DELAY" default:"30m"`
	Step1Template         string        `env:"STEP1_TEMPLATE"`
	Step1CouponEnabled    bool          `env:"STEP1_COUPON_ENABLED"`
	Step1CouponType       string        `env:"STEP1_COUPON_TYPE" default:"percent"`
	Step1CouponAmount     float64       `env:"STEP1_COUPON_AMOUNT" default:"10"`
	Step1CouponExpiryDays int           `env:"STEP1_COUPON_EXPIRY_DAYS" default:"7"`
	Step1CouponPrefix     string        `env:"STEP1_COUPON_PREFIX" default:"CARTWISP"`

	Step2Enabled          bool          `env:"STEP2_ENABLED"`
	Step2Delay            time.Duration `env:"STEP2_DELAY" default:"24h"`
	Step2Template         string        `env:"STEP2_TEMPLATE"`
	Step2CouponEnabled    bool          `env:"STEP2_COUPON_ENABLED"`
	Step2CouponType       string        `env:"STEP2_COUPON_TYPE" default:"percent"`
	Step2CouponAmount     float64       `env:"STEP2_COUPON_AMOUNT" default:"10"`
	Step2CouponExpiryDays int           `env:"STEP2_COUPON_EXPIRY_DAYS" default:"7"`
	Step2CouponPrefix     string        `env:"STEP2_COUPON_PREFIX" default:"CARTWISP"`

	Step3Enabled          bool          `env:"STEP3_ENABLED"`
	Step3Delay            time.Duration `env:"STEP3_DELAY" default:"72h"`
	Step3Template         string        `env:"STEP3_TEMPLATE"`
	Step3CouponEnabled    bool          `env:"STEP3_COUPON_ENABLED"`
	Step3CouponType       string        `env:"STEP3_COUPON_TYPE" default:"percent"`
	Step3CouponAmount     float64       `env:"STEP3_COUPON_AMOUNT" default:"10"`
	Step3CouponExpiryDays int           `env:"STEP3_COUPON_EXPIRY_DAYS" default:"7"`
	Step3CouponPrefix     string        `env:"STEP3_COUPON_PREFIX" default:"CARTWISP"`

	OrderProcessingEnabled  bool   `env:"ORDER_PROCESSING_ENABLED"`
	OrderProcessingTemplate string `env:"ORDER_PROCESSING_TEMPLATE"`
	OrderCompletedEnabled   bool   `env:"ORDER_COMPLETED_ENABLED"`
	OrderCompletedTemplate  string `env:"ORDER_COMPLETED_TEMPLATE"`
	OrderCancelledEnabled   bool   `env:"ORDER_CANCELLED_ENABLED"`
	OrderCancelledTemplate  string `env:"ORDER_CANCELLED_TEMPLATE"`
	OrderNoteEnabled        bool   `env:"ORDER_NOTE_ENABLED"`
	OrderNoteTemplate       string `env:"ORDER_NOTE_TEMPLATE"`
	AdminOrderTemplate      string `env:"ADMIN_ORDER_TEMPLATE"`

	ReviewReminderEnabled  bool   `env:"REVIEW_REMINDER_ENABLED"`
	ReviewReminderDays     int    `env:"REVIEW_REMINDER_DAYS" default:"7"`
	ReviewReminderTemplate string `env:"REVIEW_REMINDER_TEMPLATE"`
}

// StepConfig is the per-reminder view the scheduler and coupon issuer work
// against instead of picking through numbered fields.
type StepConfig struct {
	Number           int
	Enabled          bool
	Delay            time.Duration
	Template         string
	CouponEnabled    bool
	CouponType       string
	CouponAmount     float64
	CouponExpiryDays int
	CouponPrefix     string
}

func (c *Config) Step(n int) StepConfig {
	switch n {
	case 1:
		return StepConfig{1, c.Step1Enabled, c.Step1Delay, c.Step1Template, c.Step1CouponEnabled, c.Step1CouponType, c.Step1CouponAmount, c.Step1CouponExpiryDays, c.Step1CouponPrefix}
	case 2:
		return StepConfig{2, c.Step2Enabled, c.Step2Delay, c.Step2Template, c.Step2CouponEnabled, c.Step2CouponType, c.Step2CouponAmount, c.Step2CouponExpiryDays, c.Step2CouponPrefix}
	case 3:
		return StepConfig{3, c.Step3Enabled, c.Step3Delay, c.Step3Template, c.Step3CouponEnabled, c.Step3CouponType, c.Step3CouponAmount, c.Step3CouponExpiryDays, c.Step3CouponPrefix}
	}
	return StepConfig{Number: n}
}

func (c *Config) Steps() [3]StepConfig {
	return [3]StepConfig{c.Step(1), c.Step(2), c.Step(3)}
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)
	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	if err := c.validate(); err != nil {
		return err
	}

	config = c
	return nil
}

func (c *Config) validate() error {
	for _, s := range c.Steps() {
		if !s.Enabled {
			continue
		}
		if s.Delay <= 0 {
			return fmt.Errorf("config: step %d enabled with non-positive delay", s.Number)
		}
		if s.Template == "" {
			return fmt.Errorf("config: step %d enabled without a template", s.Number)
		}
		if s.CouponEnabled {
			if s.CouponType != "percent" && s.CouponType != "fixed_amount" {
				return fmt.Errorf("config: step %d coupon type %q is not percent or fixed_amount", s.Number, s.CouponType)
			}
			if s.CouponAmount <= 0 {
				return fmt.Errorf("config: step %d coupon amount must be positive", s.Number)
			}
			if s.CouponExpiryDays <= 0 {
				return fmt.Errorf("config: step %d coupon expiry days must be positive", s.Number)
			}
		}
	}
	if c.ReviewReminderEnabled && c.ReviewReminderDays <= 0 {
		return fmt.Errorf("config: review reminder enabled with non-positive delay days")
	}
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// Set replaces the loaded config. Tests use it to run components against a
// fixture without touching the environment.
func Set(c *Config) {
	config = c
}
