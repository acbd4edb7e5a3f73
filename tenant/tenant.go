// Package tenant loads and serves per-tenant object-storage credentials from
// a declarative config file. The registry is read-mostly: it is populated at
// most once per process and entries are never mutated afterwards.
package tenant

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/textlift/textlift/observability"
)

// Config holds one tenant's bucket credentials. Immutable once loaded.
type Config struct {
	Bucket    string `yaml:"bucket_name"`
	Endpoint  string `yaml:"endpoint_url"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
}

func (c Config) valid() error {
	switch {
	case c.Bucket == "":
		return fmt.Errorf("missing bucket_name")
	case c.AccessKey == "":
		return fmt.Errorf("missing access_key")
	case c.SecretKey == "":
		return fmt.Errorf("missing secret_key")
	}
	return nil
}

// ConfigError reports a lookup for a tenant the registry does not know.
type ConfigError struct {
	Tenant string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("no configuration for tenant %q", e.Tenant)
}

// Registry maps tenant identifiers to credentials, loaded lazily from a YAML
// file on first lookup. Loads are idempotent, so the once-guard exists only
// to avoid redundant file reads under concurrent first access.
type Registry struct {
	path   string
	logger observability.Logger

	once    sync.Once
	tenants map[string]Config
}

// NewRegistry creates a registry backed by the YAML file at path. The file is
// not read until the first Get. A nil logger disables logging.
func NewRegistry(path string, logger observability.Logger) *Registry {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Registry{path: path, logger: logger}
}

// Get returns the configuration for a tenant, loading the config file on
// first use. Unknown tenants yield *ConfigError, never a default.
func (r *Registry) Get(id string) (Config, error) {
	r.once.Do(r.load)
	cfg, ok := r.tenants[id]
	if !ok {
		return Config{}, &ConfigError{Tenant: id}
	}
	return cfg, nil
}

func (r *Registry) load() {
	r.tenants = make(map[string]Config)

	data, err := os.ReadFile(r.path)
	if err != nil {
		r.logger.Warn("tenant config unavailable",
			observability.String("path", r.path),
			observability.Error("err", err))
		return
	}

	// Decode entries individually so one malformed record does not sink the
	// whole load.
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		r.logger.Warn("tenant config unparsable",
			observability.String("path", r.path),
			observability.Error("err", err))
		return
	}

	for id, node := range raw {
		var cfg Config
		if err := node.Decode(&cfg); err != nil {
			r.logger.Warn("skipping malformed tenant record",
				observability.String("tenant", id),
				observability.Error("err", err))
			continue
		}
		if err := cfg.valid(); err != nil {
			r.logger.Warn("skipping incomplete tenant record",
				observability.String("tenant", id),
				observability.Error("err", err))
			continue
		}
		r.tenants[id] = cfg
	}

	r.logger.Info("tenant registry loaded",
		observability.String("path", r.path),
		observability.Int("tenants", len(r.tenants)))
}
