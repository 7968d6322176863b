package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	pkg "github.com/fairwaylink/messaging/pkg/internal"
	"github.com/fairwaylink/messaging/pkg/internal/cache"
	"github.com/fairwaylink/messaging/pkg/internal/database"
	"github.com/fairwaylink/messaging/pkg/internal/directory"
	"github.com/fairwaylink/messaging/pkg/internal/gateway"
	"github.com/fairwaylink/messaging/pkg/internal/http"
	"github.com/fairwaylink/messaging/pkg/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {
	// Configure settings
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")

	// Load settings
	if err := viper.ReadInConfig(); err != nil {
		log.Panic().Err(err).Msg("An error occurred when loading settings.")
	}

	// Connect to database
	if err := database.NewSource(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connect to database.")
	} else if err := database.RunMigration(database.C); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when running database auto migration.")
	}

	// Initialize cache
	if err := cache.NewStore(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when initializing cache.")
	}

	// Chat service
	chat := &services.Chat{
		Threads:  services.GormThreadStore{DB: database.C},
		Messages: services.GormMessageStore{DB: database.C},
		Profiles: directory.GormProfileProvider{DB: database.C},
		Follows:  directory.GormFollowGraph{DB: database.C},
		Clubs:    directory.GormClubDirectory{DB: database.C},
	}
	if brokers := viper.GetStringSlice("notifier.brokers"); len(brokers) > 0 {
		notifier := services.NewKafkaNotifier(brokers, viper.GetString("notifier.topic"))
		defer notifier.Close()
		chat.Notifier = notifier
	}

	// Realtime gateway
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rooms := gateway.NewRoomRegistry()
	var broker gateway.Broker = gateway.LocalBroker{Rooms: rooms}
	if addr := viper.GetString("cache.addr"); len(addr) > 0 {
		redisBroker := &gateway.RedisBroker{
			Client: redis.NewClient(&redis.Options{
				Addr:     addr,
				Password: viper.GetString("cache.password"),
				DB:       viper.GetInt("cache.db"),
			}),
			Rooms:   rooms,
			Channel: "messaging.rooms",
		}
		go redisBroker.Run(ctx)
		broker = redisBroker
	}
	gw := gateway.New(rooms, broker, chat)

	// Server
	http.NewServer(chat, gw)
	go http.Listen()

	// Configure timed tasks
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	quartz.AddFunc("@every 60m", services.DoAutoDatabaseCleanup)
	quartz.Start()

	// Messages
	log.Info().Msgf("Messaging v%s is started...", pkg.AppVersion)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msgf("Messaging v%s is quitting...", pkg.AppVersion)

	quartz.Stop()
}
