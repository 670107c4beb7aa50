// Copyright (c) 2025 The VELD developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/veldlabs/veld/admin"
	"github.com/veldlabs/veld/api"
	"github.com/veldlabs/veld/co"
	"github.com/veldlabs/veld/eventdb"
	"github.com/veldlabs/veld/log"
	"github.com/veldlabs/veld/lvldb"
	"github.com/veldlabs/veld/metrics"
	"github.com/veldlabs/veld/node"
	"github.com/veldlabs/veld/veld"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "veld",
		Usage:     "Time-weighted voting escrow node",
		Copyright: "2025 VELD",
		Flags: []cli.Flag{
			dataDirFlag,
			memFlag,
			apiAddrFlag,
			apiCorsFlag,
			verbosityFlag,
			executorFlag,
			checkpointIntervalFlag,
			enableMetricsFlag,
			adminAddrFlag,
			enableAdminFlag,
			pprofFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}
	if ctx.Bool(enableAdminFlag.Name) {
		url, closeFunc, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel)
		if err != nil {
			fatal("failed to start admin server:", err)
		}
		defer closeFunc()
		logger.Info("admin server started", "url", url)
	}

	mainDB, eventDB := openDatabases(ctx)
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	executor, err := parseExecutor(ctx)
	if err != nil {
		fatal("invalid executor address:", err)
	}

	n, err := node.New(mainDB, eventDB, node.Options{Executor: executor})
	if err != nil {
		fatal("failed to open node:", err)
	}

	handler := api.New(n, eventDB, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		MetricsEndpoint: ctx.Bool(enableMetricsFlag.Name),
	})

	listener, err := net.Listen("tcp", ctx.String(apiAddrFlag.Name))
	if err != nil {
		fatal("failed to listen API addr:", err)
	}
	srv := &http.Server{Handler: handler}

	exitCtx := handleExitSignal()
	var goes co.Goes
	goes.Go(func() {
		<-exitCtx.Done()
		srv.Shutdown(context.Background())
	})
	goes.Go(func() {
		logger.Info("API server started", "addr", "http://"+listener.Addr().String())
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			logger.Error("API server stopped", "err", err)
		}
	})
	if interval := ctx.Uint64(checkpointIntervalFlag.Name); interval > 0 {
		goes.Go(func() {
			pumpCheckpoints(exitCtx, n, time.Duration(interval)*time.Second)
		})
	}

	number, ts := n.Head()
	logger.Info("node started",
		"head", number,
		"headTime", ts,
		"dataDir", ctx.String(dataDirFlag.Name))

	goes.Wait()
	return nil
}

func openDatabases(ctx *cli.Context) (*lvldb.LevelDB, *eventdb.EventDB) {
	if ctx.Bool(memFlag.Name) {
		mainDB, err := lvldb.NewMem()
		if err != nil {
			fatal("failed to open memory main database:", err)
		}
		eventDB, err := eventdb.NewMem()
		if err != nil {
			fatal("failed to open memory event database:", err)
		}
		return mainDB, eventDB
	}

	dataDir := ctx.String(dataDirFlag.Name)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		fatal("failed to create data directory:", err)
	}
	mainDB, err := lvldb.New(filepath.Join(dataDir, "main.db"), lvldb.Options{})
	if err != nil {
		fatal("failed to open main database:", err)
	}
	eventDB, err := eventdb.New(filepath.Join(dataDir, "events.db"))
	if err != nil {
		fatal("failed to open event database:", err)
	}
	return mainDB, eventDB
}

// pumpCheckpoints keeps the global decay walk close to the clock so no
// single mutation has to replay many weeks at once.
func pumpCheckpoints(ctx context.Context, n *node.Node, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := n.Checkpoint(veld.Address{}); err != nil {
				logger.Warn("periodic checkpoint failed", "err", err)
			} else {
				logger.Debug("periodic checkpoint applied")
			}
		}
	}
}
