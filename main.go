package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"mentor/pkg/api"
	"mentor/pkg/channels"
	_ "mentor/pkg/channels/autoload" // register channel factories
	"mentor/pkg/config"
	"mentor/pkg/gateway"
	"mentor/pkg/llm"
	_ "mentor/pkg/llm/autoload" // register LLM providers
	"mentor/pkg/monitor"
	"mentor/pkg/router"
	"mentor/pkg/store"
	"mentor/pkg/tools"

	jsoniter "github.com/json-iterator/go"
)

func main() {
	cfg, sysCfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	monitor.SetupSlog(sysCfg.LogLevel)
	slog.Info("==========================================")
	slog.Info("🎓 Tutoring engine starting")

	// live engine knobs; reloads swap the snapshot instead of mutating it
	settings := config.NewSystemSettings(sysCfg)

	// --- storage ---
	st, err := store.NewSQLite(cfg.DatabasePath)
	if err != nil {
		slog.Error("Failed to open store", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// --- LLM providers ---
	client, err := llm.NewFromConfig(cfg.LLM, sysCfg)
	if err != nil {
		slog.Error("Failed to init LLM client", "error", err)
		os.Exit(1)
	}

	// --- deterministic tools ---
	registry := tools.NewRegistry()
	registry.Register(tools.NewCalcTool())
	registry.Register(tools.NewUnitTool())
	registry.Register(tools.NewStatsTool())
	registry.Register(tools.NewPlotTool(sysCfg.PlotDir))
	registry.Register(tools.NewMolarTool())
	registry.Register(tools.NewSuvatTool())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- gateway + channels + router ---
	gw, err := gateway.NewGatewayBuilder().
		WithMonitor(monitor.NewCLIMonitor()).
		WithChannelConfigs(cfg.Channels).
		WithChannelLoader(func(g *gateway.GatewayManager, configs map[string]jsoniter.RawMessage) {
			channels.LoadFromConfig(g, configs, sysCfg)
		}).
		WithHandlerFactory(func(responder gateway.MessageResponder) gateway.MessageHandler {
			r := router.New(st, client, registry, settings, cfg.SystemPrompt)
			return func(msg *api.UnifiedMessage) {
				go func() {
					resp := r.Handle(ctx, msg)
					if err := responder.SendReply(msg.Session, resp); err != nil {
						slog.Warn("Failed to deliver reply",
							"channel", msg.Session.ChannelID, "error", err)
					}
				}()
			}
		}).
		Build()
	if err != nil {
		slog.Error("Failed to build gateway", "error", err)
		os.Exit(1)
	}

	// --- live tuning reload ---
	reloadCh := config.Watch(ctx, "system.json")
	go func() {
		for range reloadCh {
			fresh := config.LoadSystemConfig("system.json")
			settings.Replace(fresh)
			monitor.SetupSlog(fresh.LogLevel)
			slog.Info("System settings reloaded",
				"memory_window", fresh.MemoryWindow,
				"quiz_question_limit", fresh.QuizQuestionLimit)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("Received shutdown signal, stopping services")
	cancel()
	gw.StopAll()
	slog.Info("Bye!")
}
