package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string `mapstructure:"http_addr"`

	DBDriver string `mapstructure:"db_driver"` // sqlite|postgres
	DBDSN    string `mapstructure:"db_dsn"`

	BlobDriver   string `mapstructure:"blob_driver"` // fs|minio
	BlobBasePath string `mapstructure:"blob_base_path"`

	MinioEndpoint  string `mapstructure:"minio_endpoint"`
	MinioAccessKey string `mapstructure:"minio_access_key"`
	MinioSecretKey string `mapstructure:"minio_secret_key"`
	MinioBucket    string `mapstructure:"minio_bucket"`
	MinioUseSSL    bool   `mapstructure:"minio_use_ssl"`

	AuthSecret    string `mapstructure:"auth_secret"` // HMAC for local JWTs
	AdminUser     string `mapstructure:"admin_user"`
	AdminPassHash string `mapstructure:"admin_pass_hash"` // bcrypt

	CORSOrigins []string `mapstructure:"cors_origins"`

	LogLevel string `mapstructure:"log_level"` // debug|info|warn|error
	LogPath  string `mapstructure:"log_path"`  // empty = stdout only
}

// Load reads config.yaml from path (optional) with ASSESSD_* env overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("ASSESSD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "")
	v.SetDefault("blob_driver", "fs")
	v.SetDefault("blob_base_path", "./data")
	v.SetDefault("minio_bucket", "assessd-artifacts")
	v.SetDefault("auth_secret", "supersecret-dev-key")
	v.SetDefault("admin_user", "admin")
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_path", "")

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; env + defaults are enough for dev.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
