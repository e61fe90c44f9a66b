package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"arenasync/client"
	"arenasync/config"
	"arenasync/logging"
	"arenasync/protocol"
)

var phrases = []string{"hi", "gg", "brb", "nice jump", "over here"}

// 压测/演示用的无界面客户端：n 个机器人随机走动、跳跃、攻击和聊天
func main() {
	var cfgPath, url, codec, logFile string
	var n int
	var chatEvery time.Duration
	flag.StringVar(&cfgPath, "config", "", "path to config yaml (default: config/arena.yaml if present)")
	flag.StringVar(&url, "url", "", "server ws url, overrides client.url")
	flag.StringVar(&codec, "codec", "", "json or msgpack, overrides client.codec")
	flag.StringVar(&logFile, "log", "bot.log", "log file")
	flag.IntVar(&n, "n", 1, "number of bots")
	flag.DurationVar(&chatEvery, "chat", 5*time.Second, "average chat interval per bot, 0 to disable")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if url != "" {
		cfg.Client.URL = url
	}
	if codec != "" {
		cfg.Client.Codec = codec
	}
	cfg.Log.File = logFile
	if err := logging.InitLogger(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.SyncLogger()

	opts, err := client.TransportOptionsFromConfig(cfg.Client)
	if err != nil {
		logging.Log.Fatalf("transport options: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			runBot(ctx, i, cfg, opts, chatEvery)
		}(i)
	}
	wg.Wait()
	logging.Log.Info("all bots stopped")
}

func runBot(ctx context.Context, i int, cfg *config.Config, opts client.TransportOptions, chatEvery time.Duration) {
	log := logging.Log.With("bot", i)
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(i)))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tr := client.NewTransport(opts, log.Named("transport"))
	go func() {
		if err := tr.Run(ctx); err != nil {
			log.Errorw("transport stopped", "err", err)
		}
		cancel()
	}()

	body := newWalker(protocol.Vec2{X: cfg.Room.SpawnX + float64(rng.Intn(400)), Y: cfg.Room.SpawnY}, rng)
	sink := logSink{log: log}
	game := client.NewGame(tr, logRenderer{log: log}, body, client.GameOptions{
		Tuning:            client.TuningFromConfig(cfg.Client),
		EmitInterval:      cfg.Client.EmitInterval,
		PositionThreshold: cfg.Client.PositionThreshold,
		Status:            sink,
		Chat:              sink,
	}, log)

	last := time.Now()
	game.Run(ctx, cfg.Client.FrameRate, func() client.Input {
		now := time.Now()
		dt := now.Sub(last)
		last = now
		in := body.step(dt)
		if chatEvery > 0 && rng.Float64() < dt.Seconds()/chatEvery.Seconds() {
			if err := game.Say(phrases[rng.Intn(len(phrases))], now); err != nil {
				log.Debugw("chat not sent", "err", err)
			}
		}
		return in
	})
}
