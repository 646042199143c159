package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"netbot/internal/bloxlink"
	"netbot/internal/bot"
	"netbot/internal/common"
	"netbot/internal/moderation"
	"netbot/internal/presence"
	"netbot/internal/roblox"
	"netbot/internal/shift"
	"netbot/internal/webhook"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

// How often stale bloxlink links are dropped
const BLOXLINK_HOUSEKEEPING = time.Hour

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("Bot stopped")
		os.Exit(1)
	}
}

func run() error {

	var envFile, logLevel string
	var logJson bool
	flagSet := pflag.NewFlagSet("netbot", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "env file to load before reading the environment")
	flagSet.StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")
	flagSet.BoolVar(&logJson, "log-json", false, "write logs as JSON instead of console text")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("could not parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)
	if !logJson {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})
	}
	log.Info().Msg("Hello from inside netbot")

	config, err := common.LoadConfig(envFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := common.OpenDatabase(config.DatabasePath)
	if err != nil {
		return err
	}
	defer database.Close()

	clock := common.SystemClock{}
	scheduler := common.NewScheduler(clock)
	registry := presence.NewRegistry()

	// Bloxlink
	databaseBloxlink, err := bloxlink.NewDatabaseBloxlink(ctx, database)
	if err != nil {
		return err
	}
	bloxlinkLimiter := common.NewRateLimiter(clock, []common.Restriction{{Requests: config.BloxlinkRequestsPerMinute, Duration: time.Minute}}, time.Minute)
	bloxlinkClient, err := bloxlink.NewClient(ctx, databaseBloxlink, config.BloxlinkBaseUrl, config.BloxlinkApiKey, config.GuildId, clock, bloxlinkLimiter)
	if err != nil {
		return err
	}
	if config.BloxlinkApiKey == "" {
		log.Warn().Msg("BLOXLINK_API_KEY is not set, roblox ids can not be resolved")
	}

	// Roblox inventory
	inventoryLimiter := common.NewRateLimiter(clock, []common.Restriction{{Requests: 60, Duration: time.Minute}}, time.Minute)
	inventory := roblox.NewInventory(config.RobloxInventoryUrl, inventoryLimiter)
	usersLimiter := common.NewRateLimiter(clock, []common.Restriction{{Requests: 60, Duration: time.Minute}}, time.Minute)
	users := roblox.NewUsers(config.RobloxUsersUrl, config.RobloxThumbnailsUrl, usersLimiter)

	// Discord and the shift machinery
	session, err := discordgo.New("Bot " + config.DiscordToken)
	if err != nil {
		return fmt.Errorf("could not create discord session: %w", err)
	}
	databaseBot, err := bot.NewDatabaseBot(ctx, database, config.GuildId)
	if err != nil {
		return err
	}
	notifier := bot.NewNotifier(session, databaseBot, config.GuildId)
	shifts := shift.NewManager(registry, scheduler, notifier, databaseBot)
	board := shift.NewBoard(scheduler)

	if config.GameSecret == "" {
		log.Warn().Msg("ROBLOX_GAME_SECRET is not set, the presence endpoint accepts every request")
	}
	server := webhook.NewServer(config.WebPort, config.GameSecret, webhook.LinkResolver{Bloxlink: bloxlinkClient}, registry, shifts)

	discordBot := bot.CreateBot(config, session, bot.Services{
		Database:  databaseBot,
		Notifier:  notifier,
		Presence:  registry,
		Shifts:    shifts,
		Board:     board,
		Bloxlink:  bloxlinkClient,
		Inventory: inventory,
		Roblox:    users,
		Desk:      moderation.NewDesk(scheduler),
		Clock:     clock,
	})

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		ticker := time.NewTicker(BLOXLINK_HOUSEKEEPING)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				bloxlinkClient.Housekeeping(ctx)
			}
		}
	})
	group.Go(func() error {
		return server.Run(ctx)
	})
	group.Go(func() error {
		return discordBot.Run(ctx, session)
	})
	err = group.Wait()
	log.Info().Msg("Goodbye from netbot")
	return err
}
