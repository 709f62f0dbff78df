package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"B3Sentinel/internal/cache"
	"B3Sentinel/internal/notifier"
	"B3Sentinel/internal/pipeline"
	"B3Sentinel/internal/portfolio"
	"B3Sentinel/internal/report"
	"B3Sentinel/internal/scheduler"
	"B3Sentinel/internal/server"
)

func newScreenCmd(a *app) *cobra.Command {
	var (
		cash   string
		basket bool
	)
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Rank the market and size a purchase for the given cash",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := resolveCash(cash, "Quanto você quer investir hoje (R$)?", false)
			if err != nil {
				return err
			}
			p, store := a.pipeline()
			defer store.Close()

			ctx, stop := signalContext()
			defer stop()
			screen := p.Screen
			if basket {
				screen = p.ScreenBasket
			}
			res, err := screen(ctx, amount)
			fmt.Fprint(cmd.OutOrStdout(), report.New().Screen(res, err))
			return terminal(err)
		},
	}
	cmd.Flags().StringVar(&cash, "cash", "", "cash available in BRL (prompted when omitted)")
	cmd.Flags().BoolVar(&basket, "basket", false, "spread cash over several ranked candidates instead of one")
	return cmd
}

func newRebalanceCmd(a *app) *cobra.Command {
	var (
		cash     string
		path     string
		discover bool
	)
	cmd := &cobra.Command{
		Use:   "rebalance",
		Short: "Measure a portfolio against its targets and plan new purchases",
		RunE: func(cmd *cobra.Command, args []string) error {
			holdings, err := portfolio.Load(path)
			if err != nil {
				return err
			}
			amount, err := resolveCash(cash, "Quanto dinheiro novo você tem para aportar (R$)?", true)
			if err != nil {
				return err
			}
			p, store := a.pipeline()
			defer store.Close()

			ctx, stop := signalContext()
			defer stop()
			res, err := p.Rebalance(ctx, holdings, amount, discover)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.New().Rebalance(res))
			return nil
		},
	}
	cmd.Flags().StringVar(&cash, "cash", "", "new cash in BRL (prompted when omitted)")
	cmd.Flags().StringVar(&path, "portfolio", "carteira.json", "portfolio file: JSON object of ticker to quantity")
	cmd.Flags().BoolVar(&discover, "discover", false, "also consider screened market candidates")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		cash   string
		runNow bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-screen on a cron schedule and push reports to Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := ParseCash(cash, false)
			if err != nil {
				return err
			}
			p, store := a.pipeline()
			defer store.Close()

			ctx, stop := signalContext()
			defer stop()

			var (
				n  notifier.Notifier
				tn *notifier.TelegramNotifier
			)
			if a.cfg.Telegram.BotToken != "" && a.cfg.Telegram.ChatID != "" {
				tn = notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Providers.Proxy, a.log)
				n = tn
			} else {
				a.log.Warn().Msg("telegram not configured, reports are only logged")
			}

			sched := scheduler.NewScheduler(ctx, p, n, amount, a.log)
			if pr, ok := store.(*cache.SQLiteStore); ok {
				sched.WithPruner(pr, 4*a.cfg.Cache.TTL)
			}
			if err := sched.RegisterAll(a.cfg.Schedule.ScreenCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil {
				go tn.StartPolling(ctx, sched.HandleCommand)
			}
			if runNow {
				go sched.RunNow()
			}

			a.log.Info().Str("cron", a.cfg.Schedule.ScreenCron).Msg("watching, press Ctrl+C to stop")
			<-ctx.Done()
			a.log.Info().Msg("shutdown signal received, stopping")
			return nil
		},
	}
	cmd.Flags().StringVar(&cash, "cash", "", "cash in BRL used for every screen")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "screen once immediately on start")
	_ = cmd.MarkFlagRequired("cash")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			p, store := a.pipeline()
			defer store.Close()

			srv := server.New(server.Config{Addr: addr, Log: a.log, Runner: p, Version: a.version})
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			ctx, stop := signalContext()
			defer stop()
			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (a *app) pipeline() (*pipeline.Pipeline, cache.Store) {
	providers, store := buildProviders(a.cfg, a.log)
	return pipeline.New(a.cfg, providers, a.log), store
}

// terminal maps degenerate pipeline outcomes to success; they are already reported.
func terminal(err error) error {
	if errors.Is(err, pipeline.ErrNoCandidates) || errors.Is(err, pipeline.ErrNoneQualified) {
		return nil
	}
	return err
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
