// FILE: lixenwraith/logsetup/cmd/logsetup-demo/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lixenwraith/logsetup"
	"github.com/lixenwraith/logsetup/receiver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func main() {
	defer logsetup.RecoverMain()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var overrides []string

	root := &cobra.Command{
		Use:           "logsetup-demo",
		Short:         "Demonstrates logsetup sinks and panic capture",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogging(configPath, overrides)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logsetup.Shutdown()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "TOML file with a [logsetup] table")
	root.PersistentFlags().StringArrayVar(&overrides, "set", nil, "configuration override key=value, repeatable")

	root.AddCommand(newEmitCommand())
	root.AddCommand(newCrashCommand())
	root.AddCommand(newStressCommand())
	root.AddCommand(newSendCommand())
	root.AddCommand(newReceiveCommand())
	return root
}

func initLogging(configPath string, overrides []string) error {
	cfg := logsetup.DefaultConfig()
	if configPath != "" {
		loaded, err := logsetup.NewConfigFromFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.ApplyOverride(overrides...); err != nil {
		return err
	}
	return logsetup.InitWithConfig(cfg)
}

func newEmitCommand() *cobra.Command {
	var rotatePath, timedPath string
	var maxBytes int64
	var backups int
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Log one record per level, optionally into rotating files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rotatePath != "" {
				if _, err := logsetup.RegisterRotatingFile(logsetup.LevelDebug, rotatePath, maxBytes, backups, logsetup.FormatOptions{}); err != nil {
					return err
				}
			}
			if timedPath != "" {
				if _, err := logsetup.RegisterTimedRotatingFile(logsetup.LevelDebug, timedPath, interval, backups, logsetup.FormatOptions{}); err != nil {
					return err
				}
			}

			l := logsetup.GetLogger("demo.emit")
			l.Debug("debug record")
			l.Info("info record")
			l.Warn("warning record")
			l.Error("error record")
			l.Critical("critical record")
			l.Exception(errors.New("sample failure"), "exception record")
			return nil
		},
	}
	cmd.Flags().StringVar(&rotatePath, "rotate", "", "size-rotating log file")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", 1<<20, "rotation size for --rotate")
	cmd.Flags().StringVar(&timedPath, "timed", "", "time-rotating log file")
	cmd.Flags().DurationVar(&interval, "interval", time.Hour, "rotation interval for --timed")
	cmd.Flags().IntVar(&backups, "backups", 3, "rotated files to keep")
	return cmd
}

func newCrashCommand() *cobra.Command {
	var where string

	cmd := &cobra.Command{
		Use:   "crash",
		Short: "Raise a panic in main or in a worker to show capture",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch where {
			case "main":
				logsetup.EnableMainThreadCapture(func(kind string, value any, stack string) {
					fmt.Fprintf(os.Stderr, "callback: %s: %v\n", kind, value)
				})
				panic("demo fault in main")
			case "worker":
				done := make(chan struct{})
				logsetup.Go("demo-worker", func() {
					defer close(done)
					var m map[string]int
					m["boom"]++
				})
				<-done
				return nil
			case "exit":
				logsetup.Exit(3)
			case "interrupt":
				panic(logsetup.ErrInterrupt)
			}
			return fmt.Errorf("unknown location %q, want main, worker, exit or interrupt", where)
		},
	}
	cmd.Flags().StringVar(&where, "in", "main", "main, worker, exit or interrupt")
	return cmd
}

func newSendCommand() *cobra.Command {
	var host string
	var port, count int

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send records to a receiver through the socket sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := logsetup.RegisterSocket(logsetup.LevelDebug, host, port); err != nil {
				return err
			}
			l := logsetup.GetLogger("demo.send")
			for i := 0; i < count; i++ {
				l.Infof("remote record %d", i)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "receiver host")
	cmd.Flags().IntVar(&port, "port", 9020, "receiver port")
	cmd.Flags().IntVar(&count, "count", 10, "records to send")
	return cmd
}

func newReceiveCommand() *cobra.Command {
	var addr, metricsAddr string

	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Collect records from socket sinks and log them locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := receiver.New(addr, logsetup.Default(), receiver.WithMulticore(true))

			if metricsAddr != "" {
				reg := prometheus.NewRegistry()
				reg.MustRegister(logsetup.NewCollector(nil, logsetup.DefaultBridge()))
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
				logsetup.Go("metrics-http", func() {
					if err := http.ListenAndServe(metricsAddr, mux); err != nil {
						logsetup.Errorf("Metrics endpoint stopped: %v", err)
					}
				})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := logsetup.NewGroup(ctx, "receiver")
			g.Go(srv.Run)
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Stop(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "tcp://0.0.0.0:9020", "listen address")
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "serve Prometheus metrics on this address, e.g. :9100")
	return cmd
}
