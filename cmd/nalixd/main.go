/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Command nalixd wires the listener, connection limiter, dispatch pipeline
// and task manager into a single runnable socket server, the example binary
// spec.md §6 describes: a spf13/cobra CLI with "serve" and "version"
// subcommands, configuration loaded through the config.Manager's viper
// instance.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	spfcbr "github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	nlxcipher "github/nabbar/nalix/cipher"
	nlxconfig "github/nabbar/nalix/config"
	nlxlog "github/nabbar/nalix/logger"
	loglvl "github/nabbar/nalix/logger/level"
	nlxmetrics "github/nabbar/nalix/metrics"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *spfcbr.Command {
	var configFile string

	root := &spfcbr.Command{
		Use:   "nalixd",
		Short: "nalixd runs the packet socket server",
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (yaml/toml/json)")

	root.AddCommand(newVersionCommand())
	root.AddCommand(newServeCommand(&configFile))
	return root
}

func newVersionCommand() *spfcbr.Command {
	return &spfcbr.Command{
		Use:   "version",
		Short: "print the server version",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}

func newServeCommand(configFile *string) *spfcbr.Command {
	var metricsAddr string

	cmd := &spfcbr.Command{
		Use:   "serve",
		Short: "start the socket server and block until it is told to stop",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			return runServe(cmd.Context(), *configFile, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-address", ":9100", "address the prometheus /metrics endpoint listens on, empty disables it")
	return cmd
}

func runServe(ctx context.Context, configFile, metricsAddr string) error {
	logger := nlxlog.New(ctx)
	logFn := nlxlog.FuncLog(func() nlxlog.Logger { return logger })

	nlxcipher.RegisterDefaults()

	bars := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
	startup := bars.AddBar(4,
		mpb.PrependDecorators(decor.Name("startup")),
		mpb.AppendDecorators(decor.Percentage()),
	)

	mgr := nlxconfig.NewManager(nil, logFn)
	if configFile != "" {
		mgr.Viper().SetConfigFile(configFile)
	}
	startup.Increment()

	collectors := nlxmetrics.New()
	reg := prometheus.NewRegistry()
	collectors.MustRegisterAll(reg)
	startup.Increment()

	comp, err := newServerComponent(logFn, collectors)
	if err != nil {
		return err
	}
	if err := mgr.RegisterComponent(comp); err != nil {
		return err
	}
	startup.Increment()

	var metricsSrv *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Entry(loglvl.ErrorLevel, "metrics server failed").ErrorAdd(true, err).Log()
			}
		}()
	}

	if err := mgr.Start(ctx); err != nil {
		return err
	}
	startup.Increment()
	bars.Wait()

	logger.Entry(loglvl.InfoLevel, "nalixd started").Log()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Entry(loglvl.InfoLevel, "shutting down").Log()

	drainBars := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
	drain := drainBars.AddBar(2,
		mpb.PrependDecorators(decor.Name("drain")),
		mpb.AppendDecorators(decor.Percentage()),
	)

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopErr := mgr.Stop(stopCtx)
	drain.Increment()

	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(stopCtx)
	}
	drain.Increment()
	drainBars.Wait()

	return stopErr
}
