package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pixil98/go-errors"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "BANALL"

type AppConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	LogLevel    string `mapstructure:"log_level"`
	LogEncoding string `mapstructure:"log_encoding"`

	DefaultRoom      string `mapstructure:"default_room"`
	ChatHistoryLimit int    `mapstructure:"chat_history_limit"`
	// 为 0 时使用全局随机源
	RandomSeed uint64 `mapstructure:"random_seed"`
	// 换目标后仍把未指明目标的抓捕视为针对旧目标的时长，为 0 时关闭
	RetargetGrace time.Duration `mapstructure:"retarget_grace"`

	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	HeartbeatTimeout  time.Duration `mapstructure:"heartbeat_timeout"`
	// 为 0 时不清理空闲玩家
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	// 每个连接的下行缓冲消息数，写满后丢弃新消息
	SendBuffer int `mapstructure:"send_buffer"`

	Nats NatsConfig `mapstructure:"nats"`
}

type NatsConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	StartTimeout  time.Duration `mapstructure:"start_timeout"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
}

func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *AppConfig) Validate() error {
	el := errors.NewErrorList()

	if c.Port <= 0 || c.Port > 65535 {
		el.Add(fmt.Errorf("port 必须在 1 到 65535 之间，当前为 %d", c.Port))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		el.Add(fmt.Errorf("log_level 不支持 %q", c.LogLevel))
	}

	switch c.LogEncoding {
	case "console", "json":
	default:
		el.Add(fmt.Errorf("log_encoding 不支持 %q", c.LogEncoding))
	}

	if c.DefaultRoom == "" {
		el.Add(fmt.Errorf("default_room 不能为空"))
	}
	if c.ChatHistoryLimit < 0 {
		el.Add(fmt.Errorf("chat_history_limit 不能为负数"))
	}
	if c.RetargetGrace < 0 {
		el.Add(fmt.Errorf("retarget_grace 不能为负数"))
	}

	if c.HeartbeatInterval <= 0 {
		el.Add(fmt.Errorf("heartbeat_interval 必须大于 0"))
	}
	if c.HeartbeatTimeout <= c.HeartbeatInterval {
		el.Add(fmt.Errorf("heartbeat_timeout 必须大于 heartbeat_interval"))
	}
	if c.IdleTimeout < 0 {
		el.Add(fmt.Errorf("idle_timeout 不能为负数"))
	}
	if c.IdleTimeout > 0 && c.CleanupInterval <= 0 {
		el.Add(fmt.Errorf("开启 idle_timeout 时 cleanup_interval 必须大于 0"))
	}
	if c.RequestTimeout <= 0 {
		el.Add(fmt.Errorf("request_timeout 必须大于 0"))
	}
	if c.SendBuffer <= 0 {
		el.Add(fmt.Errorf("send_buffer 必须大于 0"))
	}

	el.Add(c.Nats.Validate())

	return el.Err()
}

func (n *NatsConfig) Validate() error {
	if !n.Enabled {
		return nil
	}

	el := errors.NewErrorList()

	if n.Port == 0 || n.Port < -1 || n.Port > 65535 {
		el.Add(fmt.Errorf("nats.port 无效：%d", n.Port))
	}
	if n.StartTimeout <= 0 {
		el.Add(fmt.Errorf("nats.start_timeout 必须大于 0"))
	}
	if n.SubjectPrefix == "" {
		el.Add(fmt.Errorf("nats.subject_prefix 不能为空"))
	}

	return el.Err()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_encoding", "console")

	v.SetDefault("default_room", "main")
	v.SetDefault("chat_history_limit", 100)
	v.SetDefault("random_seed", 0)
	v.SetDefault("retarget_grace", 500*time.Millisecond)

	v.SetDefault("heartbeat_interval", 30*time.Second)
	v.SetDefault("heartbeat_timeout", 45*time.Second)
	v.SetDefault("idle_timeout", 0)
	v.SetDefault("cleanup_interval", time.Minute)
	v.SetDefault("request_timeout", 5*time.Second)
	v.SetDefault("send_buffer", 64)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.host", "127.0.0.1")
	v.SetDefault("nats.port", 4222)
	v.SetDefault("nats.start_timeout", 10*time.Second)
	v.SetDefault("nats.subject_prefix", "banall.rooms")
}

// InitConfig 依次加载 .env、app_config.json 和 BANALL_ 前缀的环境变量，失败时 panic
func InitConfig() *AppConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(fmt.Errorf("加载 .env 失败: %w", err))
	}

	config, err := LoadConfig("")
	if err != nil {
		panic(err)
	}

	return config
}

// LoadConfig 读取指定的配置文件；configFile 为空时在当前目录查找 app_config.json，找不到则只使用默认值和环境变量
func LoadConfig(configFile string) (*AppConfig, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("app_config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("加载配置失败: %w", err)
		}
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}

	return &config, nil
}
