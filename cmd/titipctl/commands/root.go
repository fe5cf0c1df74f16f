// Package commands административные команды titipctl.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/titipin/titip-backend/internal/app"
	"github.com/titipin/titip-backend/internal/config"
	"github.com/titipin/titip-backend/internal/db"
	"github.com/titipin/titip-backend/internal/events"
	"github.com/titipin/titip-backend/internal/logger"
)

var (
	jsonOutput bool
	verbose    bool
	timeout    time.Duration
)

// cliPool соединений CLI хватает на одну операцию за раз.
var cliPool = db.PoolOptions{MaxOpenConns: 4, MaxIdleConns: 1, ConnMaxLifetime: time.Minute}

var rootCmd = &cobra.Command{
	Use:   "titipctl",
	Short: "Администрирование titip: миграции, выводы, пользователи, сверка кошельков",
	Long: `titipctl работает с той же базой и теми же сценариями, что и API.

Конфигурация берётся из окружения и .env, как у сервера.`,
	SilenceUsage: true,
}

// Execute запускает корневую команду.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "вывод в JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "подробные логи")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "таймаут команды")
}

type runtime struct {
	cfg      *config.Config
	services *app.Services
}

// withDB загружает конфигурацию и открывает небольшой пул соединений.
func withDB(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, conn *sqlx.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("конфигурация: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger.Init(level)
	logger.SetTextFormatter()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	conn, err := db.NewPostgres(ctx, cfg.DatabaseURL, cliPool)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(ctx, cfg, conn)
}

// withRuntime дополнительно собирает сервисы. События доставляются
// синхронно, чтобы успеть уйти в шину до выхода процесса.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
	return withDB(cmd, func(ctx context.Context, cfg *config.Config, conn *sqlx.DB) error {
		var bus events.BusPublisher = events.NoopBus{}
		if cfg.RabbitMQURL != "" {
			if rabbit, err := events.NewRabbitBus(cfg.RabbitMQURL, cfg.EventsExchange); err == nil {
				defer rabbit.Close()
				bus = rabbit
			} else {
				logger.WithComponent("titipctl").WithError(err).Warn("RabbitMQ недоступен")
			}
		}

		services, err := app.NewServices(ctx, cfg, conn, events.NewEmitter(nil, bus).Synchronous())
		if err != nil {
			return err
		}

		return fn(ctx, &runtime{cfg: cfg, services: services})
	})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
