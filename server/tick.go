package server

import (
	"context"
	"time"
)

// Run 房间主循环（单线程推进）：逐条处理命令，定期输出统计。ctx 取消后关闭所有连接并返回。
func (r *Room) Run(ctx context.Context) {
	defer close(r.done)

	var statsC <-chan time.Time
	if r.statsInterval > 0 {
		ticker := time.NewTicker(r.statsInterval)
		defer ticker.Stop()
		statsC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			r.broadcaster.CloseAll()
			r.log.Info("room stopped")
			return
		case cmd := <-r.inbox:
			start := time.Now()
			r.handle(cmd)
			r.metrics.AddDispatch(time.Since(start).Nanoseconds())
		case <-statsC:
			r.log.Infow("room stats", "online", r.broadcaster.Online(), "metrics", r.metrics.Snapshot())
		}
	}
}
