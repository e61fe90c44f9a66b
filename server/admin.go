package server

import (
	"encoding/json"
	"net/http"

	"arenasync/config"
)

// HandleAdminNetSim 读取与热更新出站链路模拟参数
// GET  /admin/netsim  返回当前配置
// POST /admin/netsim  以 JSON 载荷更新部分字段
func (s *Server) HandleAdminNetSim(w http.ResponseWriter, r *http.Request) {
	type cfg struct {
		DelayMinMs *int     `json:"delayMinMs,omitempty"`
		DelayMaxMs *int     `json:"delayMaxMs,omitempty"`
		DropProb   *float64 `json:"dropProb,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		cur := s.netsim.Get()
		writeJSON(w, http.StatusOK, cfg{
			DelayMinMs: &cur.DelayMinMs,
			DelayMaxMs: &cur.DelayMaxMs,
			DropProb:   &cur.DropProb,
		})
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		next := s.netsim.Get()
		if body.DelayMinMs != nil {
			next.DelayMinMs = *body.DelayMinMs
		}
		if body.DelayMaxMs != nil {
			next.DelayMaxMs = *body.DelayMaxMs
		}
		if body.DropProb != nil {
			next.DropProb = *body.DropProb
		}
		if err := validNetSim(next); err != "" {
			http.Error(w, err, http.StatusBadRequest)
			return
		}
		s.netsim.Set(next)
		s.log.Infow("netsim updated", "delayMinMs", next.DelayMinMs, "delayMaxMs", next.DelayMaxMs, "dropProb", next.DropProb)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func validNetSim(c config.NetSimConfig) string {
	switch {
	case c.DelayMinMs < 0 || c.DelayMaxMs < 0:
		return "delays must be >= 0"
	case c.DelayMaxMs < c.DelayMinMs:
		return "delayMaxMs < delayMinMs"
	case c.DropProb < 0 || c.DropProb > 1:
		return "dropProb must be in [0,1]"
	}
	return ""
}

// HandleMetrics 输出房间运行指标
// GET /metrics
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"metrics": s.metrics.Snapshot(),
		"netsim":  s.netsim.Get(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
