package filestore

import "github.com/koustreak/knexgen/internal/errs"

// Provider identifies the object storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// Config is the `store` section of the knexgen config file. Credentials
// usually come from MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY.
type Config struct {
	Provider  Provider `yaml:"provider"`
	Endpoint  string   `yaml:"endpoint"` // host:port, e.g. localhost:9000
	AccessKey string   `yaml:"access_key"`
	SecretKey string   `yaml:"secret_key"`
	UseSSL    bool     `yaml:"use_ssl"`
	Region    string   `yaml:"region"` // empty for MinIO
}

// Validate reports a missing endpoint or an unsupported provider.
func (c *Config) Validate() error {
	switch c.Provider {
	case "", ProviderMinIO:
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unsupported object store provider %q", c.Provider)
	}
	if c.Endpoint == "" {
		return errs.New(errs.ErrKindInvalidInput, "object store endpoint is required")
	}
	return nil
}
