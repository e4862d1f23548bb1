package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/quorum/internal/bot"
	discordadapter "github.com/zulandar/quorum/internal/bot/discord"
	slackadapter "github.com/zulandar/quorum/internal/bot/slack"
	"github.com/zulandar/quorum/internal/calendar"
	"github.com/zulandar/quorum/internal/config"
	"github.com/zulandar/quorum/internal/dashboard"
	"github.com/zulandar/quorum/internal/db"
	"github.com/zulandar/quorum/internal/meeting"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Quorum bot",
		Long:  "Connects to the configured chat platform and serves meeting commands until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quorum.yaml", "path to Quorum config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Fprintf(out, "Loaded config from %s (platform: %s)\n", configPath, cfg.Platform)

	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gateway := buildGateway(ctx, cfg, out)

	manager, err := meeting.NewManager(meeting.ManagerOpts{
		DB:      gormDB,
		Gateway: gateway,
	})
	if err != nil {
		return err
	}

	adapter, err := buildAdapter(cfg)
	if err != nil {
		return err
	}
	defer adapter.Close()

	tracker := bot.NewTracker(bot.TrackerOpts{})
	router, err := bot.NewRouter(bot.RouterOpts{
		Manager: manager,
		Tracker: tracker,
		Adapter: adapter,
		Out:     out,
	})
	if err != nil {
		return err
	}

	if err := adapter.Connect(ctx); err != nil {
		return err
	}
	if ider, ok := adapter.(bot.BotUserIDer); ok {
		router.SetBotUserID(ider.BotUserID())
	}

	inbound, err := adapter.Listen(ctx)
	if err != nil {
		return err
	}

	if cfg.Dashboard.Enabled {
		go func() {
			err := dashboard.Start(ctx, dashboard.StartOpts{
				DB:   gormDB,
				Port: cfg.Dashboard.Port,
				Out:  out,
			})
			if err != nil {
				log.Printf("qm: dashboard: %v", err)
			}
		}()
	}

	fmt.Fprintln(out, "Quorum is running. Press Ctrl+C to stop.")

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nShutting down...")
			return nil
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			router.Handle(ctx, msg)
		}
	}
}

// buildGateway creates the Google Calendar gateway when mirroring is enabled.
// A credential failure disables mirroring rather than blocking startup;
// meetings then carry local-only event ids.
func buildGateway(ctx context.Context, cfg *config.Config, out io.Writer) calendar.Gateway {
	if !cfg.Calendar.Enabled {
		return nil
	}
	gw, err := calendar.NewGoogle(ctx, calendar.GoogleOpts{
		CredentialsFile: cfg.Calendar.CredentialsFile,
		CalendarID:      cfg.Calendar.CalendarID,
	})
	if err != nil {
		log.Printf("qm: calendar mirroring disabled: %v", err)
		fmt.Fprintln(out, "Calendar mirroring disabled (credential error); meetings will be local-only.")
		return nil
	}
	fmt.Fprintf(out, "Calendar mirroring enabled (calendar: %s)\n", cfg.Calendar.CalendarID)
	return gw
}

// buildAdapter creates a platform adapter from the config.
func buildAdapter(cfg *config.Config) (bot.Adapter, error) {
	switch cfg.Platform {
	case "discord":
		return discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  cfg.Discord.Token,
			ChannelID: cfg.Discord.ChannelID,
		})
	case "slack":
		return slackadapter.New(slackadapter.AdapterOpts{
			AppToken:  cfg.Slack.AppToken,
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.Slack.ChannelID,
		})
	default:
		return nil, fmt.Errorf("qm: unsupported platform %q", cfg.Platform)
	}
}
