package main

import (
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Laisky/zap"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kelpbot/engine/cache"
	"github.com/kelpbot/engine/common"
	"github.com/kelpbot/engine/common/config"
	"github.com/kelpbot/engine/common/graceful"
	"github.com/kelpbot/engine/common/logger"
	"github.com/kelpbot/engine/engine"
	"github.com/kelpbot/engine/gateway"
	"github.com/kelpbot/engine/lock"
	"github.com/kelpbot/engine/model"
	"github.com/kelpbot/engine/msg"
	"github.com/kelpbot/engine/pubsub"
	"github.com/kelpbot/engine/rules"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	common.Init()
	logger.SetupLogger()
	logger.SetupEnhancedLogger(ctx)

	if config.ChannelToken == "" {
		logger.Logger.Fatal("CHANNEL_TOKEN must be set")
	}
	channel := config.ChannelToken
	logger.Logger.Info("engine starting", zap.String("channel", channel))

	db, err := model.OpenDB(config.DatabaseDSN)
	if err != nil {
		logger.Logger.Fatal("failed to open database", zap.Error(err))
	}
	defer func() {
		if err := model.CloseDB(db); err != nil {
			logger.Logger.Error("failed to close database", zap.Error(err))
		}
	}()
	dbActor := model.NewActor(db)
	go dbActor.Run(ctx)

	store, err := openCache(ctx)
	if err != nil {
		logger.Logger.Fatal("failed to open cache", zap.Error(err))
	}
	locks := lock.New(store)

	configStore := newFileConfigStore(config.ConfigDir)
	seq, err := configStore.Load(channel)
	if err != nil {
		logger.Logger.Fatal("failed to load persisted configuration", zap.Error(err))
	}
	registry := rules.NewRegistryWithBuiltins()
	installSequence(registry, seq)

	egress := make(chan msg.Response, 32)
	eng := engine.New(channel, registry, dbActor, store, locks, egress)
	defer eng.Stop()

	pubInbound := make(chan string, 32)
	pubOutbound := make(chan string, 32)
	psServer, err := pubsub.New(ctx, config.CacheURL, config.DownstreamChannel, config.UpstreamChannel, pubInbound, pubOutbound)
	if err != nil {
		logger.Logger.Fatal("failed to start pub/sub bridge", zap.Error(err))
	}
	psServer.Start(ctx)

	hub := gateway.NewHub()
	users := loadUserDirectory(config.ConfigDir, channel)
	auth := gateway.NewAuthenticator(store, users, notifyLoginCode(pubOutbound, channel))
	gatewayInbound := make(chan gateway.Inbound, 32)
	gwServer := gateway.NewServer(hub, auth, splitOrigins(config.SessionOriginAllowlist), gatewayInbound)

	rt := newRouter(eng, hub, pubOutbound, channel)
	go rt.drainEgress(ctx, egress)
	go rt.drainPubsub(ctx, pubInbound)
	go rt.drainGateway(ctx, gatewayInbound, configStore)

	sessionServer := &http.Server{Addr: config.SessionBindAddr, Handler: gwServer}
	go func() {
		logger.Logger.Info("operator gateway listening", zap.String("addr", config.SessionBindAddr))
		if err := sessionServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("operator gateway failed", zap.Error(err))
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: config.MetricsBindAddr, Handler: metricsMux}
	go func() {
		logger.Logger.Info("metrics listening", zap.String("addr", config.MetricsBindAddr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Logger.Info("shutdown signal received")
	graceful.SetDraining()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(config.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	_ = sessionServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
	if err := graceful.Drain(shutdownCtx); err != nil {
		logger.Logger.Warn("graceful drain did not complete", zap.Error(err))
	}
}

// openCache opens the Redis-backed cache actor when CACHE_URL is set, or
// falls back to the in-memory store, which is only suitable for a
// single-instance, restart-loses-state deployment.
func openCache(ctx context.Context) (cache.Store, error) {
	if config.CacheURL == "" {
		logger.Logger.Warn("CACHE_URL not set, using in-memory cache")
		return cache.NewInMemory(), nil
	}
	actor, err := cache.New(ctx, config.CacheURL)
	if err != nil {
		return nil, err
	}
	go actor.Run(ctx)
	return actor, nil
}

func installSequence(registry *rules.Registry, seq engine.ConfigSequences) {
	all := append(append(append([]engine.RuleConfig{}, seq.Filters...), seq.Background...), seq.Commands...)
	for _, rc := range all {
		if err := registry.Install(rc.Name, rc.Kind, rc.Platform, rc.MinPerm, rc.Values); err != nil {
			logger.Logger.Warn("skipping invalid rule instance on load", zap.String("name", rc.Name), zap.Error(err))
		}
	}
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// notifyLoginCode publishes a login code as an out-of-band Ping payload on
// the downstream channel, trusting a platform adapter subscribed there to
// deliver it to the operator (normally as a Discord direct message).
func notifyLoginCode(pubOut chan<- string, channel string) func(ctx context.Context, discordID, code string) {
	return func(ctx context.Context, discordID, code string) {
		resp := msg.Response{
			Platform: msg.Discord,
			Channel:  channel,
			Payload: msg.Payload{
				Kind: msg.PayloadPing,
				Data: msg.PingPayload{Pingee: &msg.User{ID: discordID}, Text: code},
			},
			At: time.Now(),
		}
		data, err := msg.EncodeResponse(resp)
		if err != nil {
			logger.Logger.Error("failed to encode login code notification", zap.Error(err))
			return
		}
		select {
		case pubOut <- string(data):
		case <-ctx.Done():
		}
	}
}
