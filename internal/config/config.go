package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vadimbarashkov/lru-shortener/pkg/base62"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

var (
	ErrInvalidCacheCapacity = errors.New("cache capacity must be positive")
	ErrInvalidAlphabet      = errors.New("alphabet must contain 62 symbols")
	ErrUnknownStorage       = errors.New("unknown storage driver")
	ErrUnknownEnv           = errors.New("unknown env")
)

type Config struct {
	Env        string `yaml:"env"`
	Shortener  `yaml:"shortener"`
	Storage    `yaml:"storage"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
}

type Shortener struct {
	BaseURL       string `yaml:"base_url"`
	CacheCapacity int    `yaml:"cache_capacity"`
	Alphabet      string `yaml:"alphabet"`
}

var defaultShortener = Shortener{
	BaseURL:       "https://short.ly/",
	CacheCapacity: 5,
	Alphabet:      base62.DefaultAlphabet,
}

type Storage struct {
	Driver string `yaml:"driver"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
	MigrationsPath:  "file://migrations",
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.Shortener = defaultShortener
	cfg.Storage = Storage{Driver: StorageMemory}
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
}

func (cfg *Config) validate() error {
	switch cfg.Env {
	case EnvDev, EnvStage, EnvProd:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEnv, cfg.Env)
	}

	if cfg.Shortener.CacheCapacity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCacheCapacity, cfg.Shortener.CacheCapacity)
	}

	if len(cfg.Shortener.Alphabet) != 62 {
		return fmt.Errorf("%w: got %d", ErrInvalidAlphabet, len(cfg.Shortener.Alphabet))
	}

	switch cfg.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, cfg.Storage.Driver)
	}

	return nil
}
