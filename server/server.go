package server

import (
	"context"
	"net/http"
	"time"

	"arenasync/config"
	"arenasync/protocol"

	"go.uber.org/zap"
)

// Server 组装注册表、广播器、房间与 HTTP 入口。进程启动时构造一次。
type Server struct {
	cfg     config.Config
	room    *Room
	metrics *Metrics
	netsim  *LinkConditioner
	log     *zap.SugaredLogger
}

// New 按配置构造服务。registry 为 nil 时使用内存实现。
func New(cfg config.Config, registry Registry, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if registry == nil {
		registry = NewMemoryRegistry()
	}
	if cfg.Server.PingInterval <= 0 {
		cfg.Server.PingInterval = 25 * time.Second
	}
	if cfg.Server.PongWait <= cfg.Server.PingInterval {
		cfg.Server.PongWait = cfg.Server.PingInterval * 2
	}
	if cfg.Server.WriteWait <= 0 {
		cfg.Server.WriteWait = 5 * time.Second
	}
	metrics := &Metrics{}
	b := NewBroadcaster(registry, BroadcasterOptions{
		Spawn:         protocol.Vec2{X: cfg.Room.SpawnX, Y: cfg.Room.SpawnY},
		ChatMaxLength: cfg.Room.ChatMaxLength,
	}, metrics, log.Named("broadcast"))

	return &Server{
		cfg:     cfg,
		room:    NewRoom(b, cfg.Room.InboxSize, cfg.Room.StatsInterval, metrics, log.Named("room")),
		metrics: metrics,
		netsim:  NewLinkConditioner(cfg.NetSim, metrics),
		log:     log,
	}
}

// Run 运行房间循环直到 ctx 取消
func (s *Server) Run(ctx context.Context) {
	s.room.Run(ctx)
}

// Handler 返回完整的 HTTP 路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	// 管理与监控接口
	mux.HandleFunc("/admin/netsim", s.HandleAdminNetSim)
	mux.HandleFunc("/metrics", s.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if s.cfg.Server.WebDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.Server.WebDir)))
	}
	return mux
}

func (s *Server) Metrics() *Metrics { return s.metrics }
