package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName      string `validate:"required"`
	Environment  string
	HTTP         HTTPConfig
	Context      ContextConfig
	Logger       LoggerConfig
	Identity     IdentityConfig
	Registration RegistrationConfig
	Mail         MailConfig
	Monitor      MonitorConfig
}

type HTTPConfig struct {
	Host         string
	Port         string `validate:"required"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string `validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	Encoding string `validate:"omitempty,oneof=json console"`
}

// IdentityConfig points at the SCIM endpoint of the identity service.
type IdentityConfig struct {
	Endpoint        string `validate:"required,url"`
	Timeout         time.Duration
	MaxConnsPerHost int
}

// RegistrationConfig holds the values the registration flow injects into
// users, links and the registration page.
type RegistrationConfig struct {
	LinkPrefix            string `validate:"required,url"`
	ExtensionURN          string `validate:"required,startswith=urn:"`
	ActivationTokenField  string `validate:"required"`
	DefaultRole           string `validate:"required"`
	ClientRegistrationURI string `validate:"required"`
	PagePath              string `validate:"required"`
	BootstrapURL          string
	AngularURL            string
	JQueryURL             string
}

type MailConfig struct {
	Host        string `validate:"required,hostname|ip"`
	Port        int    `validate:"required,min=1,max=65535"`
	Username    string
	Password    string
	From        string `validate:"required,email"`
	TemplateDir string `validate:"required"`
	Timeout     time.Duration
}

type MonitorConfig struct {
	Interval time.Duration
}

// Load reads configuration from environment variables (optionally .env),
// applies defaults and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "selfreg"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 10*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Identity: IdentityConfig{
			Endpoint:        getString("IDENTITY_ENDPOINT", "http://localhost:8080/osiam"),
			Timeout:         getDuration("IDENTITY_TIMEOUT", 5*time.Second),
			MaxConnsPerHost: getInt("IDENTITY_MAX_CONNS", 64),
		},
		Registration: RegistrationConfig{
			LinkPrefix:            getString("REGISTER_LINK_PREFIX", "http://localhost:8080/selfreg/register/activate"),
			ExtensionURN:          getString("REGISTER_EXTENSION_URN", "urn:org.osiam:scim:extensions:addon-self-registration"),
			ActivationTokenField:  getString("REGISTER_ACTIVATION_TOKEN_FIELD", "activationToken"),
			DefaultRole:           getString("REGISTER_DEFAULT_ROLE", "USER"),
			ClientRegistrationURI: getString("REGISTER_CLIENT_URI", "/register/create"),
			PagePath:              getString("REGISTER_PAGE_PATH", "./assets/registration/registration.html"),
			BootstrapURL:          getString("HTML_BOOTSTRAP_URL", "https://cdn.jsdelivr.net/npm/bootstrap@3.4.1/dist/css/bootstrap.min.css"),
			AngularURL:            getString("HTML_ANGULAR_URL", "https://ajax.googleapis.com/ajax/libs/angularjs/1.8.2/angular.min.js"),
			JQueryURL:             getString("HTML_JQUERY_URL", "https://code.jquery.com/jquery-3.7.1.min.js"),
		},
		Mail: MailConfig{
			Host:        getString("SMTP_HOST", "localhost"),
			Port:        getInt("SMTP_PORT", 25),
			Username:    os.Getenv("SMTP_USERNAME"),
			Password:    os.Getenv("SMTP_PASSWORD"),
			From:        getString("MAIL_FROM", "noreply@localhost.localdomain"),
			TemplateDir: getString("MAIL_TEMPLATE_DIR", "./assets/mail"),
			Timeout:     getDuration("SMTP_TIMEOUT", 15*time.Second),
		},
		Monitor: MonitorConfig{
			Interval: getDuration("MONITOR_INTERVAL", 30*time.Second),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}

// SMTPAddress returns host:port of the mail relay.
func (c *Config) SMTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Mail.Host, c.Mail.Port)
}
