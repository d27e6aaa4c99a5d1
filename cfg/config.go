package cfg

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Logger struct {
	Level  string `env:"LOG_LEVEL, default=debug"`
	Format string `env:"LOG_FORMAT, default=text"`
}

type DataBase struct {
	User         string `env:"DB_USER"`
	Password     string `env:"DB_PASSWORD"`
	Port         string `env:"DB_PORT, default=5432"`
	Host         string `env:"DB_HOST"`
	DatabaseName string `env:"DB_NAME"`
	SSLMode      string `env:"DB_SSL_MODE, default=disable"`
}

// Keycloak authentication is enabled only when AuthURL is set.
type Keycloak struct {
	AuthURL          string `env:"AUTH_URL"`
	AuthRealm        string `env:"AUTH_REALM"`
	AuthClientID     string `env:"AUTH_CLIENT_ID"`
	AuthClientSecret string `env:"AUTH_CLIENT_SECRET"`
}

func (k Keycloak) Enabled() bool {
	return k.AuthURL != ""
}

type Server struct {
	APIPath             string        `env:"SERVER_API_PATH, default=api"`
	Port                string        `env:"SERVER_PORT, default=8080"`
	WriteTimeout        time.Duration `env:"SERVER_WRITE_TIMEOUT, default=15s"`
	ReadTimeout         time.Duration `env:"SERVER_READ_TIMEOUT, default=15s"`
	IdleTimeout         time.Duration `env:"SERVER_IDLE_TIMEOUT, default=60s"`
	DeadlineOnInterrupt time.Duration `env:"SERVER_DEADLINE_ON_INTERRUPT, default=15s"`
	MinPageSize         int           `env:"SERVER_MIN_PAGE_SIZE, default=10"`
	MaxPageSize         int           `env:"SERVER_MAX_PAGE_SIZE, default=500"`
	MaxBodyBytes        int64         `env:"SERVER_MAX_BODY_BYTES, default=1048576"`
}

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Store struct {
	Backend string `env:"STORE_BACKEND, default=memory"`
}

const (
	UnknownPathReject = "reject"
	UnknownPathIgnore = "ignore"
)

type Patch struct {
	// UnknownPath decides what happens to operations addressing a field the user does not have.
	UnknownPath string   `env:"PATCH_UNKNOWN_PATH, default=reject"`
	Operations  []string `env:"PATCH_OPERATIONS, default=replace,add,remove,test,copy,move"`
}

// Config groups every configuration section of the service.
type Config struct {
	Logger   Logger
	DataBase DataBase
	Keycloak Keycloak
	Server   Server
	Store    Store
	Patch    Patch
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	config := &Config{}
	if err := envconfig.Process(ctx, config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFrom reads the configuration from the given lookuper, used by tests.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	config := &Config{}
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   config,
		Lookuper: lookuper,
	})
	if err != nil {
		return nil, err
	}
	return config, nil
}
