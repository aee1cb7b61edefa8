package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingRequired 缺少必填配置
var ErrMissingRequired = errors.New("missing required configuration")

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxLifetime  int    `mapstructure:"max_lifetime"`
}

// AuthConfig 身份认证配置（Microsoft Entra ID 单租户）
type AuthConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	TenantID        string `mapstructure:"tenant_id"`
	ClientID        string `mapstructure:"client_id"`
	Scope           string `mapstructure:"scope"`
	OpenAPIClientID string `mapstructure:"openapi_client_id"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Origin string `mapstructure:"origin"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// bindings 配置键与环境变量的对应关系，未列出的环境变量一律忽略
var bindings = []struct {
	key string
	env string
}{
	{"server.host", "SERVER_HOST"},
	{"server.port", "SERVER_PORT"},
	{"server.mode", "SERVER_MODE"},
	{"server.read_timeout", "SERVER_READ_TIMEOUT"},
	{"server.write_timeout", "SERVER_WRITE_TIMEOUT"},
	{"database.url", "DATABASE_URL"},
	{"database.max_open_conns", "DB_MAX_OPEN_CONNS"},
	{"database.max_idle_conns", "DB_MAX_IDLE_CONNS"},
	{"database.max_lifetime", "DB_MAX_LIFETIME"},
	{"auth.enabled", "AUTH_ENABLED"},
	{"auth.tenant_id", "AZURE_TENANT_ID"},
	{"auth.client_id", "AZURE_CLIENT_ID"},
	{"auth.scope", "AZURE_API_SCOPE"},
	{"auth.openapi_client_id", "OPENAPI_CLIENT_ID"},
	{"cors.origin", "CORS_ORIGIN"},
	{"log.level", "LOG_LEVEL"},
	{"log.format", "LOG_FORMAT"},
}

// Load 加载配置
// 优先级：环境变量 > .env 文件 > 默认值。envFile 为空或文件不存在时只读环境变量。
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	fileValues, err := readEnvFile(envFile)
	if err != nil {
		return nil, err
	}

	for _, b := range bindings {
		if val, ok := fileValues[b.env]; ok && val != "" {
			v.SetDefault(b.key, val)
		}
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", b.env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验必填项
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Database.URL) == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.Enabled {
		if strings.TrimSpace(c.Auth.TenantID) == "" {
			missing = append(missing, "AZURE_TENANT_ID")
		}
		if strings.TrimSpace(c.Auth.ClientID) == "" {
			missing = append(missing, "AZURE_CLIENT_ID")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.CORS.Origin, "http://") && !strings.HasPrefix(c.CORS.Origin, "https://") {
		return fmt.Errorf("invalid CORS_ORIGIN: %q", c.CORS.Origin)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid SERVER_MODE: %q", c.Server.Mode)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %q", c.Log.Format)
	}
	return nil
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// readEnvFile 读取 .env 文件，文件不存在时返回空结果
func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return values, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	// Database
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", 300)

	// Auth
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.scope", "access_as_user")

	// CORS
	v.SetDefault("cors.origin", "http://localhost:3000")

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
