package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/foomo/auditwalker"
	"github.com/foomo/auditwalker/browser"
	"github.com/foomo/auditwalker/config"
	"github.com/foomo/auditwalker/driver"
	"github.com/foomo/auditwalker/reports"
	"github.com/foomo/auditwalker/vo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type runFlags struct {
	mode         string
	baseURL      string
	addr         string
	concurrency  int
	ignoreRobots bool
}

func newRunCmd() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Audit all routes of the selected mode",
		Long: `run validates the fixtures, then visits every route of the mode on every configured
viewport. Exit code 0 means all routes passed, 1 that at least one failed and 2
that the audit could not start.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.mode, "mode", "", "smoke or full, overrides "+config.EnvMode)
	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "app under test, overrides "+config.EnvBaseURL)
	cmd.Flags().StringVar(&flags.addr, "addr", "", "serve /metrics and /reports while running, e.g. :9100")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "parallel pages")
	cmd.Flags().BoolVar(&flags.ignoreRobots, "ignore-robots", false, "do not read robots.txt")
	return cmd
}

func (f *runFlags) apply(conf *config.Config) {
	if f.mode != "" {
		conf.Mode = f.mode
	}
	if f.baseURL != "" {
		conf.BaseURL = f.baseURL
	}
	if f.addr != "" {
		conf.Addr = f.addr
	}
	if f.concurrency > 0 {
		conf.Concurrency = f.concurrency
	}
	if f.ignoreRobots {
		conf.IgnoreRobots = true
	}
}

func runAudit(parent context.Context, flags *runFlags) error {
	conf, errConf := loadConfig()
	if errConf != nil {
		return errConf
	}
	flags.apply(conf)
	logger := newLogger()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := browser.NewManager(browser.ConfigFrom(conf.Browser, logger))
	newPage := func(ctx context.Context, viewport vo.Viewport) (driver.Page, error) {
		return manager.NewPage(ctx, browser.PageOptions{
			Viewport:  viewport,
			BaseURL:   conf.BaseURL,
			Session:   conf.Session,
			UserAgent: conf.Agent,
		})
	}
	reg := prometheus.NewRegistry()
	svc, errService := auditwalker.NewService(conf, newPage, reg, logger)
	if errService != nil {
		return errService
	}
	if errStart := manager.Start(ctx); errStart != nil {
		return &exitError{code: exitPrecondition, err: errStart}
	}
	defer manager.Close()

	completeStatus := &atomic.Pointer[vo.Status]{}
	if conf.Addr != "" {
		go serve(conf.Addr, svc, reg, completeStatus, logger)
	}

	result, errRun := svc.Run(ctx)
	if errRun != nil {
		return errRun
	}
	status := result.Status()
	completeStatus.Store(&status)
	auditwalker.PrintRunResult(os.Stdout, result)
	if errFailed := result.Err(); errFailed != nil {
		return &exitError{code: exitFailed, err: errFailed}
	}
	fmt.Println("all", len(result.Results), "visits passed")
	return nil
}

func serve(addr string, svc *auditwalker.Service, reg *prometheus.Registry, completeStatus *atomic.Pointer[vo.Status], logger *slog.Logger) {
	const reportsPath = "/reports"
	reportHandler := reports.GetReportHandler(reportsPath, logger)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc(reportsPath+"/", func(w http.ResponseWriter, r *http.Request) {
		running := svc.GetStatus()
		reportHandler(w, r, completeStatus.Load(), &running)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, reports.GetReportHandlerMenuHTML(reportsPath))
	})
	logger.Info("serving metrics and reports", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("report server stopped", "error", err)
	}
}
