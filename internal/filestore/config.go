package filestore

// Provider identifies the object storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// Config holds the settings needed to connect to an object store.
type Config struct {
	// Provider is the storage backend (e.g. ProviderMinIO).
	Provider Provider `mapstructure:"provider" yaml:"provider"`

	// Endpoint is the host:port of the storage server, e.g. "localhost:9000".
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool `mapstructure:"use_ssl" yaml:"use_ssl"`

	// Region is used by region-aware backends. Leave empty for MinIO.
	Region string `mapstructure:"region" yaml:"region"`

	// Bucket is the bucket corpus documents are read from and schemas are
	// published to.
	Bucket string `mapstructure:"bucket" yaml:"bucket"`
}

// DefaultConfig returns a local-dev config for MinIO.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Provider:  ProviderMinIO,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Bucket:    "metaschema",
	}
}
