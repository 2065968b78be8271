package metadata

import (
	"context"
	"fmt"
)

// Backend names a Store implementation.
type Backend string

const (
	BackendNone   Backend = "none"
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendRedis  Backend = "redis"
	BackendMongo  Backend = "mongo"
	BackendKuzu   Backend = "kuzu"
)

// Backends lists the accepted backend names.
var Backends = []Backend{BackendNone, BackendMemory, BackendFile, BackendRedis, BackendMongo, BackendKuzu}

// Config selects and configures a backend. Only the fields of the chosen
// backend are read.
type Config struct {
	Backend  Backend `toml:"backend"`
	Path     string  `toml:"path"` // file document or Kuzu database directory
	Addr     string  `toml:"addr"`
	Password string  `toml:"password"`
	DB       int     `toml:"db"`
	Prefix   string  `toml:"prefix"`
	URI      string  `toml:"uri"`
	Database string  `toml:"database"`
}

// Open constructs the configured Store. An empty backend is BackendNone.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return Null{}, nil
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		return NewFile(cfg.Path)
	case BackendRedis:
		return NewRedis(ctx, RedisOptions{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB, Prefix: cfg.Prefix})
	case BackendMongo:
		return NewMongo(ctx, MongoOptions{URI: cfg.URI, Database: cfg.Database})
	case BackendKuzu:
		return openKuzu(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown metadata backend %q", cfg.Backend)
	}
}
