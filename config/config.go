package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Addr         string
	WebDir       string
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	ReadLimit    int64
}

// LogConfig 日志输出与滚动策略
type LogConfig struct {
	File       string
	Level      string
	Console    bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// RoomConfig 全局唯一房间的参数
type RoomConfig struct {
	SpawnX        float64
	SpawnY        float64
	ChatMaxLength int
	SendQueue     int // 每个连接的发送队列长度，满则丢弃
	InboxSize     int
	StatsInterval time.Duration
}

// NetSimConfig 出站链路模拟（延迟与丢包），用于在本机复现抖动
type NetSimConfig struct {
	DelayMinMs int
	DelayMaxMs int
	DropProb   float64
}

type ClientConfig struct {
	URL               string
	Codec             string
	Smoothing         float64
	EmitInterval      time.Duration
	PositionThreshold float64
	AnimationLock     time.Duration
	AttackDuration    time.Duration
	JumpPopDuration   time.Duration
	JumpPopHeight     float64
	ChatBubbleTTL     time.Duration
	ReconnectAttempts int
	ReconnectBackoff  time.Duration
	InboxSize         int
	FrameRate         int
}

type Config struct {
	Server ServerConfig
	Log    LogConfig
	Room   RoomConfig
	NetSim NetSimConfig
	Client ClientConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.webDir", "web")
	v.SetDefault("server.pingInterval", "25s")
	v.SetDefault("server.pongWait", "60s")
	v.SetDefault("server.writeWait", "5s")
	v.SetDefault("server.readLimit", 1<<20)

	v.SetDefault("log.file", "app.log")
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.console", false)
	v.SetDefault("log.maxSizeMB", 10)
	v.SetDefault("log.maxBackups", 3)
	v.SetDefault("log.maxAgeDays", 7)

	v.SetDefault("room.spawnX", 100.0)
	v.SetDefault("room.spawnY", 100.0)
	v.SetDefault("room.chatMaxLength", 200)
	v.SetDefault("room.sendQueue", 64)
	v.SetDefault("room.inboxSize", 256)
	v.SetDefault("room.statsInterval", "30s")

	v.SetDefault("netsim.delayMinMs", 0)
	v.SetDefault("netsim.delayMaxMs", 0)
	v.SetDefault("netsim.dropProb", 0.0)

	v.SetDefault("client.url", "ws://localhost:8080/ws")
	v.SetDefault("client.codec", "json")
	v.SetDefault("client.smoothing", 0.2)
	v.SetDefault("client.emitInterval", "50ms")
	v.SetDefault("client.positionThreshold", 1.0)
	v.SetDefault("client.animationLock", "100ms")
	v.SetDefault("client.attackDuration", "400ms")
	v.SetDefault("client.jumpPopDuration", "250ms")
	v.SetDefault("client.jumpPopHeight", 12.0)
	v.SetDefault("client.chatBubbleTTL", "4s")
	v.SetDefault("client.reconnectAttempts", 5)
	v.SetDefault("client.reconnectBackoff", "1s")
	v.SetDefault("client.inboxSize", 256)
	v.SetDefault("client.frameRate", 60)
}

// Default 返回仅包含默认值的配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

// Load 读取配置：path 为空时在 config/ 下查找 arena.yaml，文件不存在则使用默认值。
// 环境变量 ARENA_ROOM_CHATMAXLENGTH 之类可覆盖任意键。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config/")
		v.SetConfigName("arena")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "arenasync: read config")
		}
	}
	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         v.GetString("server.addr"),
			WebDir:       v.GetString("server.webDir"),
			PingInterval: v.GetDuration("server.pingInterval"),
			PongWait:     v.GetDuration("server.pongWait"),
			WriteWait:    v.GetDuration("server.writeWait"),
			ReadLimit:    v.GetInt64("server.readLimit"),
		},
		Log: LogConfig{
			File:       v.GetString("log.file"),
			Level:      v.GetString("log.level"),
			Console:    v.GetBool("log.console"),
			MaxSizeMB:  v.GetInt("log.maxSizeMB"),
			MaxBackups: v.GetInt("log.maxBackups"),
			MaxAgeDays: v.GetInt("log.maxAgeDays"),
		},
		Room: RoomConfig{
			SpawnX:        v.GetFloat64("room.spawnX"),
			SpawnY:        v.GetFloat64("room.spawnY"),
			ChatMaxLength: v.GetInt("room.chatMaxLength"),
			SendQueue:     v.GetInt("room.sendQueue"),
			InboxSize:     v.GetInt("room.inboxSize"),
			StatsInterval: v.GetDuration("room.statsInterval"),
		},
		NetSim: NetSimConfig{
			DelayMinMs: v.GetInt("netsim.delayMinMs"),
			DelayMaxMs: v.GetInt("netsim.delayMaxMs"),
			DropProb:   v.GetFloat64("netsim.dropProb"),
		},
		Client: ClientConfig{
			URL:               v.GetString("client.url"),
			Codec:             v.GetString("client.codec"),
			Smoothing:         v.GetFloat64("client.smoothing"),
			EmitInterval:      v.GetDuration("client.emitInterval"),
			PositionThreshold: v.GetFloat64("client.positionThreshold"),
			AnimationLock:     v.GetDuration("client.animationLock"),
			AttackDuration:    v.GetDuration("client.attackDuration"),
			JumpPopDuration:   v.GetDuration("client.jumpPopDuration"),
			JumpPopHeight:     v.GetFloat64("client.jumpPopHeight"),
			ChatBubbleTTL:     v.GetDuration("client.chatBubbleTTL"),
			ReconnectAttempts: v.GetInt("client.reconnectAttempts"),
			ReconnectBackoff:  v.GetDuration("client.reconnectBackoff"),
			InboxSize:         v.GetInt("client.inboxSize"),
			FrameRate:         v.GetInt("client.frameRate"),
		},
	}
}

// Validate 拒绝会导致运行期异常的取值
func (c *Config) Validate() error {
	if c.Client.Smoothing <= 0 || c.Client.Smoothing > 1 {
		return errors.Errorf("client.smoothing must be in (0,1], got %v", c.Client.Smoothing)
	}
	if c.NetSim.DropProb < 0 || c.NetSim.DropProb > 1 {
		return errors.Errorf("netsim.dropProb must be in [0,1], got %v", c.NetSim.DropProb)
	}
	if c.NetSim.DelayMaxMs < c.NetSim.DelayMinMs {
		return errors.Errorf("netsim.delayMaxMs (%d) < netsim.delayMinMs (%d)", c.NetSim.DelayMaxMs, c.NetSim.DelayMinMs)
	}
	if c.Room.SendQueue <= 0 || c.Room.InboxSize <= 0 || c.Client.InboxSize <= 0 {
		return errors.New("queue sizes must be positive")
	}
	if c.Client.FrameRate <= 0 {
		return errors.Errorf("client.frameRate must be positive, got %d", c.Client.FrameRate)
	}
	if c.Client.ReconnectAttempts < 0 {
		return errors.Errorf("client.reconnectAttempts must be >= 0, got %d", c.Client.ReconnectAttempts)
	}
	if c.Client.ReconnectBackoff <= 0 {
		return errors.Errorf("client.reconnectBackoff must be positive, got %v", c.Client.ReconnectBackoff)
	}
	return nil
}
