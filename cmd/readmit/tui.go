package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/vanderheijden86/readmit/pkg/config"
	"github.com/vanderheijden86/readmit/pkg/dashboard"
	"github.com/vanderheijden86/readmit/pkg/debug"
	"github.com/vanderheijden86/readmit/pkg/gateway"
	"github.com/vanderheijden86/readmit/pkg/metrics"
	"github.com/vanderheijden86/readmit/pkg/theme"
	"github.com/vanderheijden86/readmit/pkg/watcher"
)

// EnvDebugLog names the file debug output goes to while the TUI owns the
// terminal.
const EnvDebugLog = "READMIT_DEBUG_LOG"

func runDashboard(cmd *cobra.Command, flags *globalFlags, metricsAddr string) error {
	cfg, cfgPath, err := flags.load()
	if err != nil {
		return err
	}
	region, err := flags.parseRegion()
	if err != nil {
		return err
	}

	if debug.Enabled() {
		path := os.Getenv(EnvDebugLog)
		if path == "" {
			path = "readmit-debug.log"
		}
		f, err := tea.LogToFile(path, "readmit")
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		defer f.Close()
		debug.SetOutput(f)
	}

	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr)
		defer srv.Close()
	}

	gw, err := gateway.New(cfg.API)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	themes := theme.NewController(theme.DefaultStore(), lipgloss.HasDarkBackground)
	ctrl := dashboard.New(ctx, gw, themes,
		dashboard.WithExportConfig(cfg.Export),
		dashboard.WithRegion(region),
	)

	opts := []dashboard.ModelOption{dashboard.WithCancel(cancel)}
	if cfg.WatchEnabled() && cfgPath != "" {
		w, err := watcher.NewWatcher(cfgPath,
			watcher.WithOnError(func(err error) { debug.Log("config watch: %v", err) }),
		)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			debug.Log("config watch disabled: %v", err)
		} else {
			defer w.Stop()
			opts = append(opts, dashboard.WithConfigWatch(w, reloader(flags)))
		}
	}

	var progOpts []tea.ProgramOption
	if cfg.UI.Mouse {
		progOpts = append(progOpts, tea.WithMouseCellMotion())
	}
	err = runTUIProgram(dashboard.NewModel(ctrl, opts...), progOpts...)
	for _, s := range metrics.AllTimingStats() {
		debug.Log("timing %s", s)
	}
	return err
}

// reloader re-reads the config file and builds a fresh gateway from it.
func reloader(flags *globalFlags) dashboard.Reloader {
	return func() (dashboard.Fetcher, config.ExportConfig, error) {
		cfg, _, err := flags.load()
		if err != nil {
			return nil, config.ExportConfig{}, err
		}
		gw, err := gateway.New(cfg.API)
		if err != nil {
			return nil, config.ExportConfig{}, err
		}
		return gw, cfg.Export, nil
	}
}

func serveMetrics(addr string) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			debug.Log("metrics server: %v", err)
		}
	}()
	return srv
}

func runTUIProgram(m dashboard.Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithoutSignalHandler()}, opts...)
	p := tea.NewProgram(m, opts...)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM; a second signal or a stuck
	// shutdown kills the program.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated runs: set READMIT_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("READMIT_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}
				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
