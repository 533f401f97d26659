package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	ID       string `mapstructure:"id" validate:"required"`
	LogLevel string `mapstructure:"log_level"`

	ControlPlane ControlPlane `mapstructure:"control_plane"`
	Provisioning Provisioning `mapstructure:"provisioning"`
	Vault        Vault        `mapstructure:"vault" validate:"required"`
	Postgres     Postgres     `mapstructure:"postgres" validate:"required"`
}

// ControlPlane holds the credentials and scoping identifiers for the remote
// infrastructure control plane. OrganizationID is the parent resource every
// tenant project is created under.
type ControlPlane struct {
	BaseURL        string        `mapstructure:"base_url" validate:"omitempty,url"`
	PublicKey      string        `mapstructure:"public_key"`
	PrivateKey     string        `mapstructure:"private_key"`
	OrganizationID string        `mapstructure:"organization_id"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type Provisioning struct {
	DefaultProvider     string `mapstructure:"default_provider"`
	DefaultRegion       string `mapstructure:"default_region"`
	DefaultInstanceSize string `mapstructure:"default_instance_size"`
	DefaultDatabaseName string `mapstructure:"default_database_name"`
	ProjectPrefix       string `mapstructure:"project_prefix"`

	ClusterReadyTimeout      time.Duration `mapstructure:"cluster_ready_timeout"`
	ClusterPollInterval      time.Duration `mapstructure:"cluster_poll_interval"`
	ProjectDeleteSettleDelay time.Duration `mapstructure:"project_delete_settle_delay"`

	// IPAccessList is the explicit caller allow-list added to every project.
	// When empty the provisioner falls back to an open 0.0.0.0/0 rule, which
	// is a development convenience and unsafe for production. See README.
	IPAccessList []string `mapstructure:"ip_access_list"`
}

type Vault struct {
	Address       string `mapstructure:"address" validate:"required"`
	Token         string `mapstructure:"token"`
	AppRole       string `mapstructure:"app_role"`
	AppSecret     string `mapstructure:"app_secret"`
	AppRoleMount  string `mapstructure:"app_role_mount"`
	Mount         string `mapstructure:"mount"`
	PathPrefix    string `mapstructure:"path_prefix"`
	TLSSkipVerify bool   `mapstructure:"tls_skip_verify"`
	TLSCertFile   string `mapstructure:"tls_cert_file"`
}

type Postgres struct {
	Address        string `mapstructure:"address" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required"`
	Username       string `mapstructure:"username" validate:"required"`
	Password       string `mapstructure:"password" validate:"required"`
	DBName         string `mapstructure:"db_name" validate:"required"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connection"`
}

func NewConfig() (*Config, error) {
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Config may come entirely from the environment.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Vault.validateAuth(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsAutoProvisioningAvailable reports whether the control plane is configured
// well enough to provision clusters: an API key pair and the parent
// organization id must all be present.
func (c *Config) IsAutoProvisioningAvailable() bool {
	return c.ControlPlane.PublicKey != "" &&
		c.ControlPlane.PrivateKey != "" &&
		c.ControlPlane.OrganizationID != ""
}

func (v *Vault) validateAuth() error {
	if v.Token != "" {
		return nil
	}
	if v.AppRole != "" && v.AppSecret != "" {
		return nil
	}
	return fmt.Errorf("vault auth requires either a token or an app_role/app_secret pair")
}

//nolint:mnd
func setDefaults() {
	viper.SetDefault("log_level", "info")

	viper.SetDefault("control_plane.base_url", "https://cloud.mongodb.com/api/atlas/v1.0")
	viper.SetDefault("control_plane.request_timeout", 30*time.Second)

	viper.SetDefault("provisioning.default_provider", "AWS")
	viper.SetDefault("provisioning.default_region", "US_EAST_1")
	viper.SetDefault("provisioning.default_instance_size", "M0")
	viper.SetDefault("provisioning.default_database_name", "app")
	viper.SetDefault("provisioning.project_prefix", "tenant")
	viper.SetDefault("provisioning.cluster_ready_timeout", 10*time.Minute)
	viper.SetDefault("provisioning.cluster_poll_interval", 5*time.Second)
	viper.SetDefault("provisioning.project_delete_settle_delay", 20*time.Second)

	viper.SetDefault("vault.mount", "secret")
	viper.SetDefault("vault.path_prefix", "clusters")
	viper.SetDefault("vault.app_role_mount", "approle")

	viper.SetDefault("postgres.ssl_mode", "disable")
	viper.SetDefault("postgres.max_connection", 10)
}
