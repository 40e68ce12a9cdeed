package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Service names accepted in the SERVICES env variable.
const (
	ServicePurchaseOrder = "purchaseorder"
	ServiceGoodsReceipt  = "goodsreceipt"
	ServiceQCTest        = "qctest"
	ServiceQCSample      = "qcsample"
	ServiceQCResult      = "qcresult"
	ServiceQADeviation   = "qadeviation"
	ServiceQARelease     = "qarelease"
	ServiceWarehouse     = "warehouse"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Services  ServicesConfig
	Mongo     MongoConfig
	Auth      AuthConfig
	Peers     PeersConfig
	Reporting ReportingConfig
	Sheets    SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// ServicesConfig selects which services this process instance mounts. Each
// service remains independently deployable; local development mounts all.
type ServicesConfig struct {
	Enabled []string
}

// Mounts reports whether the named service is enabled in this process.
func (s ServicesConfig) Mounts(name string) bool {
	for _, e := range s.Enabled {
		if e == "all" || e == name {
			return true
		}
	}
	return false
}

// MongoConfig holds settings for MongoDB. Each service gets its own logical
// database, named <DBPrefix>_<service>.
type MongoConfig struct {
	URI      string
	DBPrefix string
}

// DBName returns the database name for a service.
func (m MongoConfig) DBName(service string) string {
	return fmt.Sprintf("%s_%s", m.DBPrefix, service)
}

// AuthConfig holds the gateway trust material. GatewaySecret verifies the
// HMAC on principal tokens forwarded by the gateway; ServiceToken is attached
// to outbound inter-service calls.
type AuthConfig struct {
	GatewaySecret string
	ServiceToken  string
}

// PeerConfig locates one downstream service.
type PeerConfig struct {
	BaseURL string
}

// PeersConfig holds the base URLs of every service this process may call.
type PeersConfig struct {
	PurchaseOrder PeerConfig
	GoodsReceipt  PeerConfig
	QCTest        PeerConfig
	QCSample      PeerConfig
	QCResult      PeerConfig
	Warehouse     PeerConfig
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	DailyReportSchedule string
	NotifyRetrySchedule string
	Timezone            string
}

// SheetsConfig configures the optional Google Sheets export of the daily
// quality report. Export is disabled when CredentialsPath is empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the sheets export is configured.
func (s SheetsConfig) Enabled() bool {
	return s.CredentialsPath != "" && s.SpreadsheetID != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	selfURL := getenvWithDefault("SELF_BASE_URL", "http://localhost:"+getenvWithDefault("APP_PORT", "8080"))

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Services: ServicesConfig{
			Enabled: splitCSV(getenvWithDefault("SERVICES", "all")),
		},
		Mongo: MongoConfig{
			URI:      getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBPrefix: getenvWithDefault("MONGODB_DB_PREFIX", "qualichain"),
		},
		Auth: AuthConfig{
			GatewaySecret: os.Getenv("GATEWAY_JWT_SECRET"),
			ServiceToken:  os.Getenv("SERVICE_TOKEN"),
		},
		Peers: PeersConfig{
			PurchaseOrder: PeerConfig{BaseURL: getenvWithDefault("PO_SERVICE_URL", selfURL)},
			GoodsReceipt:  PeerConfig{BaseURL: getenvWithDefault("GRN_SERVICE_URL", selfURL)},
			QCTest:        PeerConfig{BaseURL: getenvWithDefault("QC_TEST_SERVICE_URL", selfURL)},
			QCSample:      PeerConfig{BaseURL: getenvWithDefault("QC_SAMPLE_SERVICE_URL", selfURL)},
			QCResult:      PeerConfig{BaseURL: getenvWithDefault("QC_RESULT_SERVICE_URL", selfURL)},
			Warehouse:     PeerConfig{BaseURL: getenvWithDefault("WAREHOUSE_SERVICE_URL", selfURL)},
		},
		Reporting: ReportingConfig{
			DailyReportSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 6 * * *"),
			NotifyRetrySchedule: getenvWithDefault("NOTIFY_RETRY_CRON_SCHEDULE", "*/10 * * * *"),
			Timezone:            getenvWithDefault("TIMEZONE", "UTC"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("QUALITY_SHEET_ID"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if len(c.Services.Enabled) == 0 {
		return errors.New("SERVICES must name at least one service")
	}

	if c.Mongo.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}

	if c.Mongo.DBPrefix == "" {
		return errors.New("MONGODB_DB_PREFIX must not be empty")
	}

	if c.Auth.GatewaySecret == "" {
		return errors.New("GATEWAY_JWT_SECRET must be provided")
	}

	if c.Reporting.DailyReportSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.NotifyRetrySchedule == "" {
		return errors.New("NOTIFY_RETRY_CRON_SCHEDULE must be provided")
	}

	if c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID == "" {
		return errors.New("QUALITY_SHEET_ID must be provided when sheets credentials are set")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(strings.ToLower(p)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
