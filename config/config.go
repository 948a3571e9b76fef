// config.go

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 服务器配置结构
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

// ServerConfig 服务器基本配置
type ServerConfig struct {
	GamePort        int    `mapstructure:"game_port"`
	Debug           bool   `mapstructure:"debug"`
	LogLevel        string `mapstructure:"log_level"`
	MaxRoomCount    int    `mapstructure:"max_room_count"`
	RateLimitPerMin int    `mapstructure:"rate_limit_per_min"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 渲染端会话令牌配置
type AuthConfig struct {
	JWTSecret    string `mapstructure:"jwt_secret"`
	Issuer       string `mapstructure:"issuer"`
	TokenTTLSecs int    `mapstructure:"token_ttl_secs"`
}

// SimulationConfig 模拟核心参数
type SimulationConfig struct {
	ArenaWidth        float64 `mapstructure:"arena_width"`
	ArenaHeight       float64 `mapstructure:"arena_height"`
	TickRate          int     `mapstructure:"tick_rate"`
	SpawnIntervalMs   int     `mapstructure:"spawn_interval_ms"`
	SpawnMargin       float64 `mapstructure:"spawn_margin"`
	ExpPerLevel       int     `mapstructure:"exp_per_level"`
	ContactCooldownMs int     `mapstructure:"contact_cooldown_ms"`
	BulletLifetimeMs  int     `mapstructure:"bullet_lifetime_ms"`
	Seed              int64   `mapstructure:"seed"`
	DefaultCharacter  string  `mapstructure:"default_character"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig Config
)

// 环境变量前缀，例如 PIXELSTORM_SERVER_GAME_PORT
const envPrefix = "PIXELSTORM"

// setDefaults 注册默认值，配置文件缺省的字段使用这些值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.game_port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.max_room_count", 64)
	v.SetDefault("server.rate_limit_per_min", 120)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("auth.issuer", "pixelstorm-survivor")
	v.SetDefault("auth.token_ttl_secs", 3600)

	v.SetDefault("simulation.arena_width", 1280.0)
	v.SetDefault("simulation.arena_height", 720.0)
	v.SetDefault("simulation.tick_rate", 60)
	v.SetDefault("simulation.spawn_interval_ms", 1500)
	v.SetDefault("simulation.spawn_margin", 40.0)
	v.SetDefault("simulation.exp_per_level", 50)
	v.SetDefault("simulation.contact_cooldown_ms", 500)
	v.SetDefault("simulation.bullet_lifetime_ms", 2000)
	v.SetDefault("simulation.default_character", "survivor")
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) error {
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}
	GlobalConfig = *cfg
	return nil
}

// Load 读取配置文件并返回新的配置实例，不修改全局配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("无法读取配置文件: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	if err := cfg.Simulation.Validate(); err != nil {
		return nil, fmt.Errorf("模拟配置无效: %w", err)
	}

	return &cfg, nil
}

// LoadEnvFile 加载 .env 文件，文件不存在时忽略
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("加载环境变量文件失败: %w", err)
	}
	return nil
}

// Validate 检查模拟参数
func (c *SimulationConfig) Validate() error {
	if c.ArenaWidth <= 0 || c.ArenaHeight <= 0 {
		return fmt.Errorf("场地尺寸必须为正数: %vx%v", c.ArenaWidth, c.ArenaHeight)
	}
	if c.SpawnMargin < 0 || c.SpawnMargin*2 > c.ArenaWidth || c.SpawnMargin*2 > c.ArenaHeight {
		return fmt.Errorf("刷怪边距超出场地: %v", c.SpawnMargin)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("tick_rate 必须为正数: %d", c.TickRate)
	}
	if c.SpawnIntervalMs <= 0 {
		return fmt.Errorf("spawn_interval_ms 必须为正数: %d", c.SpawnIntervalMs)
	}
	if c.ExpPerLevel <= 0 {
		return fmt.Errorf("exp_per_level 必须为正数: %d", c.ExpPerLevel)
	}
	if c.ContactCooldownMs < 0 || c.BulletLifetimeMs <= 0 {
		return fmt.Errorf("冷却或子弹寿命无效")
	}
	return nil
}

// GetDSN 获取PostgreSQL连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetRedisAddr 获取Redis连接地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DefaultSimulation 返回默认模拟参数，与 setDefaults 保持一致
func DefaultSimulation() SimulationConfig {
	return SimulationConfig{
		ArenaWidth:        1280,
		ArenaHeight:       720,
		TickRate:          60,
		SpawnIntervalMs:   1500,
		SpawnMargin:       40,
		ExpPerLevel:       50,
		ContactCooldownMs: 500,
		BulletLifetimeMs:  2000,
		DefaultCharacter:  "survivor",
	}
}
