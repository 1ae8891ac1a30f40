package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Danyalalam/X-automation/internal/config"
	"github.com/Danyalalam/X-automation/internal/domain"
	"github.com/Danyalalam/X-automation/internal/keepalive"
	logpkg "github.com/Danyalalam/X-automation/internal/logger"
	"github.com/Danyalalam/X-automation/internal/metrics"
	"github.com/Danyalalam/X-automation/internal/persona"
	cursorrepo "github.com/Danyalalam/X-automation/internal/repository/cursor"
	leaserepo "github.com/Danyalalam/X-automation/internal/repository/lease"
	usagerepo "github.com/Danyalalam/X-automation/internal/repository/usage"
	"github.com/Danyalalam/X-automation/internal/retry"
	"github.com/Danyalalam/X-automation/internal/schedule"
	"github.com/Danyalalam/X-automation/internal/store"
	storefile "github.com/Danyalalam/X-automation/internal/store/file"
	storeredis "github.com/Danyalalam/X-automation/internal/store/redis"
	"github.com/Danyalalam/X-automation/internal/transport/gemini"
	xclient "github.com/Danyalalam/X-automation/internal/transport/x"
	healthuc "github.com/Danyalalam/X-automation/internal/usecase/health"
	"github.com/Danyalalam/X-automation/internal/usecase/orchestrator"
	"github.com/Danyalalam/X-automation/internal/usecase/quota"
	"github.com/Danyalalam/X-automation/internal/version"
)

func main() {
	// Local development convenience. Missing .env is not an error.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "koiyu",
		Short:        "KOIYU, the toad oracle: scheduled wisdom and replies on X",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newConsoleCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the assembled dependency graph.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    store.Store
	lease    *leaserepo.Repo
	guard    *quota.Guard
	orch     *orchestrator.Service
	gen      domain.Generator
	health   *healthuc.Service
	identity domain.Identity
}

func (a *app) close() {
	a.store.Close()
	_ = a.logger.Sync()
}

// buildApp assembles the dependency graph from configuration. It fails fast
// on unreachable state store or bad platform credentials.
func buildApp(ctx context.Context) (*app, error) {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("Starting "+version.Name,
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
	)

	var st store.Store
	switch cfg.Store.Driver {
	case "file":
		st, err = storefile.NewStore(storefile.Config{Dir: cfg.Store.Dir})
	case "redis":
		st, err = storeredis.NewStore(storeredis.Config{
			Addrs:    cfg.Store.Addrs,
			Password: cfg.Store.Password,
			DB:       cfg.Store.DB,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create state store: %w", err)
	}

	if err := st.WaitForReady(ctx, time.Duration(cfg.Store.ReadinessTimeout)*time.Second); err != nil {
		st.Close()
		return nil, fmt.Errorf("state store not ready: %w", err)
	}

	metrics.RegisterAgentMetrics()

	generator := gemini.NewGenerator(&gemini.Config{
		APIKey:  cfg.Generation.APIKey,
		BaseURL: cfg.Generation.BaseURL,
		Model:   cfg.Generation.Model,
		Timeout: time.Duration(cfg.Generation.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	platform := xclient.NewClient(&xclient.Config{
		BearerToken: cfg.Platform.BearerToken,
		BaseURL:     cfg.Platform.BaseURL,
		Timeout:     time.Duration(cfg.Platform.TimeoutSec) * time.Second,
		Logger:      logger,
	})

	// Credential probe. A misconfigured token should kill the process at
	// startup, not at the first scheduled post.
	identity, err := platform.GetSelf(ctx)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("platform credential check: %w", err)
	}
	logger.Info("Authenticated with platform",
		zap.String("user_id", identity.ID),
		zap.String("username", identity.Username),
	)

	guard := quota.New(
		usagerepo.New(st, cfg.Store.KeyPrefix, cfg.Quota.PlanLimit, logger),
		logger,
	)

	orch := orchestrator.New(
		generator,
		platform,
		guard,
		cursorrepo.New(st, cfg.Store.KeyPrefix),
		retry.New(logger),
		logger,
	).
		WithIdentity(identity).
		WithBatch(
			time.Duration(cfg.Quota.ReplyDelaySec)*time.Second,
			cfg.Quota.MentionReplyCap,
		)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		lease:    leaserepo.New(st, cfg.Store.KeyPrefix, time.Duration(cfg.Lease.StalenessSec)*time.Second, logger),
		guard:    guard,
		orch:     orch,
		gen:      generator,
		health:   healthuc.New(st),
		identity: identity,
	}, nil
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent daemon: scheduler, liveness server and heartbeat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.lease.Acquire(ctx); err != nil {
				if errors.Is(err, domain.ErrInstanceRunning) {
					a.logger.Error("Another instance holds the lease, refusing to start")
				}
				return err
			}
			defer a.lease.Release(context.Background())

			sched, err := buildSchedule(a)
			if err != nil {
				return err
			}
			a.logger.Info("Schedule registered", zap.Strings("jobs", sched.Jobs()))

			server := keepalive.NewServer(a.health, a.identity, a.logger)
			go func() {
				addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
				err := server.ListenAndServe(ctx, addr, keepalive.Timeouts{
					Read:     time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
					Write:    time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
					Shutdown: time.Duration(a.cfg.HTTP.ShutdownSec) * time.Second,
				})
				if err != nil {
					a.logger.Error("Liveness server failed", zap.Error(err))
					cancel()
				}
			}()

			selfURL := ""
			if a.cfg.Heartbeat.SelfPing {
				selfURL = fmt.Sprintf("http://localhost:%d/health", a.cfg.HTTP.Port)
			}
			hb := keepalive.NewHeartbeat(a.guard, a.lease,
				time.Duration(a.cfg.Heartbeat.IntervalSec)*time.Second, selfURL, a.logger)
			go hb.Run(ctx)

			rec := a.guard.Snapshot(ctx)
			a.logger.Info("The toad settles on the lily pad",
				zap.String("period", rec.PeriodKey),
				zap.Int("posts_used", rec.PostsCount),
				zap.Int("posts_remaining", rec.Remaining()),
			)

			sched.RunLoop(ctx)

			a.logger.Info("Shutting down gracefully")
			return nil
		},
	}
}

// buildSchedule registers every recurring job from configuration.
func buildSchedule(a *app) (*schedule.Scheduler, error) {
	sched := schedule.New(time.Duration(a.cfg.Schedule.TickSec)*time.Second, a.logger)

	wisdomAt, err := schedule.ParseTimeOfDay(a.cfg.Schedule.WisdomAt)
	if err != nil {
		return nil, fmt.Errorf("schedule.wisdom_at: %w", err)
	}
	sched.Add("daily_wisdom", schedule.Daily(wisdomAt), a.orch.PostWisdom)

	for i, window := range a.cfg.Schedule.ReplyWindows {
		at, err := schedule.ParseTimeOfDay(window)
		if err != nil {
			return nil, fmt.Errorf("schedule.reply_windows[%d]: %w", i, err)
		}
		sched.Add(fmt.Sprintf("reply_window_%s", at), schedule.Daily(at), func(ctx context.Context) error {
			a.orch.BatchReplies(ctx, a.cfg.Quota.RepliesPerBatch)
			return nil
		})
	}

	for i, sweep := range a.cfg.Schedule.MentionSweeps {
		at, err := schedule.ParseTimeOfDay(sweep)
		if err != nil {
			return nil, fmt.Errorf("schedule.mention_sweeps[%d]: %w", i, err)
		}
		sched.Add(fmt.Sprintf("mention_sweep_%s", at), schedule.Daily(at), func(ctx context.Context) error {
			_, err := a.orch.SweepMentions(ctx)
			return err
		})
	}

	parableAt, err := schedule.ParseTimeOfDay(a.cfg.Schedule.Parable.At)
	if err != nil {
		return nil, fmt.Errorf("schedule.parable.at: %w", err)
	}
	parableDay := config.Weekdays[strings.ToLower(a.cfg.Schedule.Parable.Weekday)]
	sched.Add("weekly_parable", schedule.Weekly(parableDay, parableAt), a.orch.PostParable)

	reportAt, err := schedule.ParseTimeOfDay(a.cfg.Schedule.Report.At)
	if err != nil {
		return nil, fmt.Errorf("schedule.report.at: %w", err)
	}
	reportDay := config.Weekdays[strings.ToLower(a.cfg.Schedule.Report.Weekday)]
	sched.Add("weekly_report", schedule.Weekly(reportDay, reportAt), func(ctx context.Context) error {
		a.logger.Info("Weekly usage report", zap.String("report", a.orch.Report(ctx)))
		return nil
	})

	return sched, nil
}

func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive console: trigger actions manually",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			runConsole(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout())
			return nil
		},
	}
}

const consoleMenu = `
KOIYU console. The toad awaits your command.
  1) share wisdom now
  2) share a parable now
  3) reply to a discovered post
  4) sweep mentions
  5) generate wisdom without posting
  6) usage report
  7) reset monthly counters
  q) quit
> `

func runConsole(ctx context.Context, a *app, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	print := func(format string, args ...any) {
		fmt.Fprintf(out, format, args...)
	}

	for {
		print(consoleMenu)
		if !scanner.Scan() {
			break
		}
		choice := strings.TrimSpace(scanner.Text())

		var err error
		switch choice {
		case "1":
			err = a.orch.PostWisdom(ctx)
		case "2":
			err = a.orch.PostParable(ctx)
		case "3":
			err = a.orch.ReplyToDiscovered(ctx)
		case "4":
			var n int
			n, err = a.orch.SweepMentions(ctx)
			if err == nil {
				print("answered %d mention(s)\n", n)
			}
		case "5":
			var text string
			text, err = a.gen.Generate(ctx, persona.SystemPrompt,
				persona.WisdomPrompt(persona.Themes[time.Now().Unix()%int64(len(persona.Themes))]))
			if err == nil {
				print("%s\n", text)
			}
		case "6":
			print("%s", a.orch.Report(ctx))
		case "7":
			_, err = a.guard.Reset(ctx)
			if err == nil {
				print("counters reset\n")
			}
		case "q", "quit", "exit":
			print("%s", a.orch.Report(ctx))
			return
		default:
			print("unknown choice %q\n", choice)
			continue
		}
		if err != nil {
			print("error: %v\n", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
