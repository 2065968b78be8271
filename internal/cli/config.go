package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/matzehuels/pangenomerge/pkg/cache"
	"github.com/matzehuels/pangenomerge/pkg/errors"
	"github.com/matzehuels/pangenomerge/pkg/merge"
	"github.com/matzehuels/pangenomerge/pkg/metadata"
	"github.com/matzehuels/pangenomerge/pkg/oracle"
)

// =============================================================================
// Run Configuration
// =============================================================================

// Oracle names accepted by --oracle.
const (
	oracleMMseqs = "mmseqs"
	oracleNative = "native"
)

// Cache backends accepted in the [cache] section.
const (
	cacheFile  = "file"
	cacheRedis = "redis"
	cacheNone  = "none"
)

// Config is the merge run configuration. It is read from an optional TOML
// file; flags given on the command line override file values.
//
//	workers = 8
//
//	[thresholds]
//	family = 0.7
//	context = 0.9
//
//	[oracle]
//	name = "mmseqs"
//	threads = 16
//
//	[metadata]
//	backend = "redis"
//	addr = "localhost:6379"
//
//	[cache]
//	backend = "file"
type Config struct {
	Workers   int             `toml:"workers"`
	OffsetIDs bool            `toml:"offset_ids"`
	Thresh    ThresholdConfig `toml:"thresholds"`
	Oracle    OracleConfig    `toml:"oracle"`
	Metadata  metadata.Config `toml:"metadata"`
	Cache     CacheConfig     `toml:"cache"`
}

// ThresholdConfig holds the similarity thresholds.
type ThresholdConfig struct {
	Identity float64 `toml:"identity"`
	Length   float64 `toml:"length"`
	Family   float64 `toml:"family"`
	Context  float64 `toml:"context"`
}

// OracleConfig selects the similarity search.
type OracleConfig struct {
	Name        string  `toml:"name"`
	Binary      string  `toml:"binary"`
	TmpDir      string  `toml:"tmpdir"`
	Threads     int     `toml:"threads"`
	Sensitivity float64 `toml:"sensitivity"`
	Coverage    float64 `toml:"coverage"`
}

// CacheConfig selects where search results are cached.
type CacheConfig struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
	TTL      string `toml:"ttl"` // Go duration, e.g. "72h"
}

// defaultConfig returns the configuration used when no file is given.
func defaultConfig() Config {
	return Config{
		Thresh: ThresholdConfig{
			Identity: merge.DefaultIdentityThreshold,
			Length:   merge.DefaultLengthThreshold,
			Family:   merge.DefaultFamilyThreshold,
			Context:  merge.DefaultContextThreshold,
		},
		Oracle:   OracleConfig{Name: oracleMMseqs, Binary: oracle.DefaultMMseqsBinary},
		Metadata: metadata.Config{Backend: metadata.BackendNone},
		Cache:    CacheConfig{Backend: cacheFile},
	}
}

// loadConfig reads path over the defaults. Keys absent from the file keep
// their default; unknown keys are rejected.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if err := errors.ValidateGraphPath(path); err != nil {
		return cfg, err
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q in %s", undecoded[0].String(), path)
	}
	return cfg, nil
}

// options converts the configuration into validated merge options.
func (cfg Config) options(mode merge.Mode) (merge.Options, error) {
	opts := merge.Options{
		IdentityThreshold: cfg.Thresh.Identity,
		LengthThreshold:   cfg.Thresh.Length,
		FamilyThreshold:   cfg.Thresh.Family,
		ContextThreshold:  cfg.Thresh.Context,
		Workers:           cfg.Workers,
		Coverage:          cfg.Oracle.Coverage,
		Sensitivity:       cfg.Oracle.Sensitivity,
		Threads:           cfg.Oracle.Threads,
		OffsetIDs:         cfg.OffsetIDs,
		Mode:              mode,
	}
	err := opts.ValidateAndSetDefaults()
	return opts, err
}

// =============================================================================
// Flag Overrides
// =============================================================================

// runFlags are the merge flags that can also be set from the config file.
type runFlags struct {
	identity, length, family, context float64
	workers                           int
	offset                            bool
	oracle, binary                    string
	threads                           int
	metadata, metadataPath            string
	cacheBackend                      string
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&f.identity, "identity-threshold", merge.DefaultIdentityThreshold, "minimum identity for an ortholog match")
	fs.Float64Var(&f.length, "length-threshold", merge.DefaultLengthThreshold, "minimum length ratio for an ortholog match")
	fs.Float64Var(&f.family, "family-threshold", merge.DefaultFamilyThreshold, "minimum identity for a collapse candidate")
	fs.Float64Var(&f.context, "context-threshold", merge.DefaultContextThreshold, "minimum neighborhood similarity for a collapse")
	fs.IntVar(&f.workers, "workers", 0, "collapse scoring workers (0 = all CPUs)")
	fs.BoolVar(&f.offset, "offset-ids", false, "shift genome ids of each input past earlier inputs")
	fs.StringVar(&f.oracle, "oracle", oracleMMseqs, "similarity search: mmseqs or native")
	fs.StringVar(&f.binary, "mmseqs", oracle.DefaultMMseqsBinary, "mmseqs binary")
	fs.IntVar(&f.threads, "threads", 0, "search threads (0 = all CPUs)")
	fs.StringVar(&f.metadata, "metadata", string(metadata.BackendNone), "metadata store: none, memory, file, redis, mongo or kuzu")
	fs.StringVar(&f.metadataPath, "metadata-path", "", "file or kuzu metadata location (default: inside --outdir)")
	fs.StringVar(&f.cacheBackend, "cache", cacheFile, "search cache: file, redis or none")
}

// apply copies every flag set on the command line into cfg.
func (f *runFlags) apply(fs *pflag.FlagSet, cfg *Config) {
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}
	set("identity-threshold", func() { cfg.Thresh.Identity = f.identity })
	set("length-threshold", func() { cfg.Thresh.Length = f.length })
	set("family-threshold", func() { cfg.Thresh.Family = f.family })
	set("context-threshold", func() { cfg.Thresh.Context = f.context })
	set("workers", func() { cfg.Workers = f.workers })
	set("offset-ids", func() { cfg.OffsetIDs = f.offset })
	set("oracle", func() { cfg.Oracle.Name = f.oracle })
	set("mmseqs", func() { cfg.Oracle.Binary = f.binary })
	set("threads", func() { cfg.Oracle.Threads = f.threads })
	set("metadata", func() { cfg.Metadata.Backend = metadata.Backend(f.metadata) })
	set("metadata-path", func() { cfg.Metadata.Path = f.metadataPath })
	set("cache", func() { cfg.Cache.Backend = f.cacheBackend })
}

// =============================================================================
// Collaborators
// =============================================================================

// newOracle builds the configured oracle, wrapped in a cache unless the
// cache backend is "none".
func newOracle(ctx context.Context, cfg Config, logger *log.Logger) (oracle.Oracle, cache.Cache, error) {
	var o oracle.Oracle
	switch cfg.Oracle.Name {
	case oracleMMseqs, "":
		m := oracle.NewMMseqs(cfg.Oracle.Binary, logger)
		m.TmpDir = cfg.Oracle.TmpDir
		o = m
	case oracleNative:
		o = oracle.NewNative()
	default:
		return nil, nil, errors.New(errors.ErrCodeInvalidConfig, "unknown oracle %q (want mmseqs or native)", cfg.Oracle.Name)
	}

	c, keyer, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	if _, null := c.(*cache.NullCache); null {
		return o, c, nil
	}
	cached := oracle.NewCached(o, c, keyer, logger)
	if cfg.Cache.TTL != "" {
		ttl, err := time.ParseDuration(cfg.Cache.TTL)
		if err != nil {
			_ = c.Close()
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache ttl")
		}
		cached.TTL = ttl
	}
	return cached, c, nil
}

// newCache opens the configured cache backend. A file cache that cannot be
// located falls back to no caching.
func newCache(ctx context.Context, cfg CacheConfig) (cache.Cache, cache.Keyer, error) {
	switch cfg.Backend {
	case cacheNone:
		return cache.NewNullCache(), nil, nil
	case cacheRedis:
		c, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect redis cache %s", cfg.Addr)
		}
		prefix := cfg.Prefix
		if prefix == "" {
			prefix = appName + ":"
		}
		return c, cache.NewScopedKeyer(nil, prefix), nil
	case cacheFile, "":
		dir := cfg.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil, nil
			}
			dir = d
		}
		c, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	default:
		return nil, nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (want file, redis or none)", cfg.Backend)
	}
}

// openMetadata opens the metadata store, placing file and Kuzu stores inside
// outdir unless a path is configured.
func openMetadata(ctx context.Context, cfg metadata.Config, outdir string) (metadata.Store, error) {
	if cfg.Path == "" {
		switch cfg.Backend {
		case metadata.BackendFile:
			cfg.Path = filepath.Join(outdir, "metadata.json")
		case metadata.BackendKuzu:
			cfg.Path = filepath.Join(outdir, "metadata.kuzu")
		}
	}
	store, err := metadata.Open(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open %s metadata store", cfg.Backend)
	}
	return store, nil
}
