package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/susu3304/smashmate/internal/api"
	"github.com/susu3304/smashmate/internal/bot"
	"github.com/susu3304/smashmate/internal/config"
	"github.com/susu3304/smashmate/internal/db"
	"github.com/susu3304/smashmate/internal/geo"
	"github.com/susu3304/smashmate/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Reminders go to Discord when a bot token is configured, otherwise to the log
	var notifier session.Notifier = bot.LogNotifier{}
	var discordBot *bot.Bot
	if cfg.DiscordToken != "" {
		discordBot, err = bot.New(cfg.DiscordToken, cfg.ReminderChannelID)
		if err != nil {
			log.Fatalf("Failed to create discord bot: %v", err)
		}
		notifier = discordBot
	} else {
		log.Println("DISCORD_TOKEN not set; reminders will only be logged")
	}

	sessions := session.NewService(database, notifier)

	if discordBot != nil {
		if err := discordBot.Start(sessions); err != nil {
			log.Fatalf("Failed to start discord bot: %v", err)
		}
		defer discordBot.Stop()
	}

	worker := bot.NewReminderWorker(database, sessions, notifier)
	worker.Start()
	defer worker.Stop()

	// Start API server; returns once ctx is cancelled and requests drain
	apiServer := api.New(cfg, database, sessions, geo.NewResolver())
	if err := apiServer.Start(ctx); err != nil {
		log.Printf("API server error: %v", err)
	}

	log.Println("Shutting down...")
}
