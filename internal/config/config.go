package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"billing-be/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv    string
	AppPort   string
	AppURL    string
	JWTSecret string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	Payment    PaymentConfig
	HTTPClient HTTPClientConfig

	Arkpay       ArkpayConfig
	Instaxchange InstaxchangeConfig
	Ccbill       CcbillConfig
	Myxspend     MyxspendConfig
}

// PaymentConfig holds settings shared by every gateway.
type PaymentConfig struct {
	Currency            string
	DefaultAmount       float64
	TransactionSalt     string
	CallbackSuccessPath string
	CallbackFailedPath  string
}

type HTTPClientConfig struct {
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

type ArkpayConfig struct {
	APIURL string
	APIKey string
	Secret string
}

type InstaxchangeConfig struct {
	APIURL       string
	AccountRefID string
	SecretKey    string
}

type CcbillPlan struct {
	FormID string
	Price  float64
}

type CcbillConfig struct {
	APIURL     string
	APIURLTest string
	Plans      map[string]CcbillPlan
}

type MyxspendConfig struct {
	APIURL    string
	APIKey    string
	CompanyID string
	Email     string
	Password  string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    os.Getenv("APP_ENV"),
		AppPort:   getEnv("APP_PORT", "8080"),
		AppURL:    strings.TrimRight(os.Getenv("APP_URL"), "/"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		Payment: PaymentConfig{
			Currency:            strings.ToUpper(getEnv("PAY_CURRENCY", "USD")),
			DefaultAmount:       getEnvFloat("DEFAULT_PAY_AMOUNT", 0),
			TransactionSalt:     os.Getenv("TRANSACTION_SALT"),
			CallbackSuccessPath: getEnv("AFTER_CALLBACK_SUCCESS_URL", "/payment/success"),
			CallbackFailedPath:  getEnv("AFTER_CALLBACK_FAILED_URL", "/payment/failed"),
		},
		HTTPClient: HTTPClientConfig{
			BreakerMaxFailures: uint32(getEnvInt("HTTP_BREAKER_MAX_FAILURES", 5)),
			BreakerOpenTimeout: getEnvDuration("HTTP_BREAKER_OPEN_TIMEOUT", 30*time.Second),
		},

		Arkpay: ArkpayConfig{
			APIURL: strings.TrimRight(os.Getenv("ARKPAY_API_URL"), "/"),
			APIKey: os.Getenv("ARKPAY_API_KEY"),
			Secret: os.Getenv("ARKPAY_SECRET"),
		},
		Instaxchange: InstaxchangeConfig{
			APIURL:       strings.TrimRight(os.Getenv("INSTAXCHANGE_API_URL"), "/"),
			AccountRefID: os.Getenv("INSTAXCHANGE_ACCOUNT_REF_ID"),
			SecretKey:    os.Getenv("INSTAXCHANGE_SECRET_KEY"),
		},
		Ccbill: CcbillConfig{
			APIURL:     os.Getenv("CCBILL_API_URL"),
			APIURLTest: os.Getenv("CCBILL_API_URL_TEST"),
			Plans: map[string]CcbillPlan{
				"premium": {
					FormID: os.Getenv("CCBILL_PREMIUM_FORM_ID"),
					Price:  getEnvFloat("CCBILL_PREMIUM_PRICE", 0),
				},
				"pro": {
					FormID: os.Getenv("CCBILL_PRO_FORM_ID"),
					Price:  getEnvFloat("CCBILL_PRO_PRICE", 0),
				},
			},
		},
		Myxspend: MyxspendConfig{
			APIURL:    strings.TrimRight(os.Getenv("MYXSPEND_API_URL"), "/"),
			APIKey:    os.Getenv("MYXSPEND_API_KEY"),
			CompanyID: os.Getenv("MYXSPEND_COMPANY_ID"),
			Email:     os.Getenv("MYXSPEND_EMAIL"),
			Password:  os.Getenv("MYXSPEND_PASSWORD"),
		},
	}

	if cfg.DBHost == "" {
		logger.L().Fatal("Environment variables not loaded properly")
	}

	return cfg
}

// CallbackSuccessURL is where a browser is sent after a provider callback.
func (c *Config) CallbackSuccessURL() string {
	return c.AppURL + c.Payment.CallbackSuccessPath
}

func (c *Config) CallbackFailedURL() string {
	return c.AppURL + c.Payment.CallbackFailedPath
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
