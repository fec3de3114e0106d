package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/silverland/nova/internal/agent"
	"github.com/silverland/nova/internal/config"
	"github.com/silverland/nova/internal/db"
	"github.com/silverland/nova/internal/notify"
	"github.com/silverland/nova/internal/notify/discord"
	"github.com/silverland/nova/internal/notify/slack"
	"github.com/silverland/nova/internal/search"
	"github.com/silverland/nova/internal/secure"
	"github.com/silverland/nova/internal/server"
	"github.com/silverland/nova/internal/tools"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Nova API server",
		Long:  "Starts the chat API, the agent loop behind it, and the optional sales-notification adapters. Blocks until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nova.yaml", "path to Nova config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.RequireServeSecrets(); err != nil {
		return err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	// Optional sales-notification adapters.
	var adapters []notify.Adapter
	if cfg.Notify.Slack.BotToken != "" {
		a, err := slack.New(slack.AdapterOpts{
			BotToken:  cfg.Notify.Slack.BotToken,
			ChannelID: cfg.Notify.Slack.ChannelID,
		})
		if err != nil {
			return err
		}
		adapters = append(adapters, a)
	}
	if cfg.Notify.Discord.BotToken != "" {
		a, err := discord.New(discord.AdapterOpts{
			BotToken:  cfg.Notify.Discord.BotToken,
			ChannelID: cfg.Notify.Discord.ChannelID,
		})
		if err != nil {
			return err
		}
		adapters = append(adapters, a)
	}
	events := notify.NewService(gormDB, adapters...)
	if len(adapters) > 0 {
		fmt.Fprintf(out, "Notifications enabled (%d adapter(s))\n", len(adapters))
	}

	gateway := secure.NewGateway(gormDB, time.Duration(cfg.Agent.QueryTimeoutS)*time.Second)
	searcher := search.NewClient(time.Duration(cfg.Agent.SearchTimeoutS) * time.Second)
	registry, err := tools.NewRegistry(tools.RegistryOpts{
		Gateway:  gateway,
		Searcher: searcher,
		Events:   events,
	})
	if err != nil {
		return err
	}

	model, err := agent.NewOpenAIClient(agent.OpenAIOpts{
		APIKey:      cfg.Agent.APIKey,
		Model:       cfg.Agent.Model,
		Temperature: cfg.Agent.Temperature,
		Timeout:     time.Duration(cfg.Agent.ModelTimeoutS) * time.Second,
	})
	if err != nil {
		return err
	}

	nova, err := agent.New(agent.Opts{
		Model:         model,
		Registry:      registry,
		Checkpoints:   agent.NewCheckpointStore(gormDB),
		MaxIterations: cfg.Agent.MaxIterations,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Notify.DigestCron != "" && len(adapters) > 0 {
		events.StartDigestLoop(ctx, cfg.Notify.DigestCron)
		fmt.Fprintf(out, "Daily digest scheduled (%s)\n", cfg.Notify.DigestCron)
	}

	return server.Start(ctx, server.StartOpts{
		DB:    gormDB,
		Agent: nova,
		Cfg:   cfg,
		Out:   out,
	})
}
