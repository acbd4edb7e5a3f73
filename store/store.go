// Package store fetches named objects from a tenant's bucket into local
// scratch files. Credentials come from the tenant registry; the scratch file
// is owned by the caller, who must remove it when done.
package store

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/textlift/textlift/observability"
	"github.com/textlift/textlift/tenant"
)

const defaultEndpoint = "s3.amazonaws.com"

// RetrievalError wraps any transport failure while fetching an object.
type RetrievalError struct {
	Tenant string
	Key    string
	Err    error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("fetch %q for tenant %q: %v", e.Key, e.Tenant, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Store downloads objects using per-tenant credentials.
type Store struct {
	registry *tenant.Registry
	logger   observability.Logger
}

// New creates a Store resolving credentials through the registry. A nil
// logger disables logging.
func New(registry *tenant.Registry, logger observability.Logger) *Store {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Store{registry: registry, logger: logger}
}

// Fetch streams the object into a scratch file and returns its path. The
// scratch file keeps the object key's extension so downstream content
// sniffing still sees a plausible name. Unknown tenants propagate the
// registry's *tenant.ConfigError unchanged; every transport failure is
// wrapped in *RetrievalError. The caller owns deleting the returned file.
func (s *Store) Fetch(ctx context.Context, tenantID, objectKey string) (string, error) {
	cfg, err := s.registry.Get(tenantID)
	if err != nil {
		return "", err
	}

	client, err := s.newClient(cfg)
	if err != nil {
		return "", &RetrievalError{Tenant: tenantID, Key: objectKey, Err: err}
	}

	start := time.Now()
	obj, err := client.GetObject(ctx, cfg.Bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return "", &RetrievalError{Tenant: tenantID, Key: objectKey, Err: err}
	}
	defer obj.Close()

	tmp, err := os.CreateTemp("", "textlift-*"+filepath.Ext(objectKey))
	if err != nil {
		return "", &RetrievalError{Tenant: tenantID, Key: objectKey, Err: err}
	}

	n, err := io.Copy(tmp, obj)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", &RetrievalError{Tenant: tenantID, Key: objectKey, Err: err}
	}

	s.logger.Info("object downloaded",
		observability.String("tenant", tenantID),
		observability.String("key", objectKey),
		observability.Int64("bytes", n),
		observability.Duration(observability.MetricDownloadTime, time.Since(start)))
	return tmp.Name(), nil
}

func (s *Store) newClient(cfg tenant.Config) (*minio.Client, error) {
	endpoint := defaultEndpoint
	secure := true
	if cfg.Endpoint != "" {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		if u.Host != "" {
			endpoint = u.Host
			secure = u.Scheme != "http"
		} else {
			endpoint = cfg.Endpoint
		}
	}
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
}
