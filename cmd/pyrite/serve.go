/*
 * Copyright 2024 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the http server",
		Long: `Serve loads the config file, registers the configured plugins, mounts
the system routes and the routes file, then serves until SIGINT or SIGTERM.

A routes file binds handlers by "Controller.method" name. Only the built-in
handlers System.health, System.echo and System.stats are available to it;
programs embedding the server add their own to extraHandlers from an init
function, or build routes with the dsl and rest packages directly.

Example:
  pyrite serve -c pyrite.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configFile)
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file")
	return cmd
}

func runServe(configFile string) error {
	c, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	//初始化日志
	logger, closer, err := types.NewFileLogger(c.LogFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer closer.Close()
	logger.Printf("use config file=%s", configFile)

	a, err := newApp(c, logger, prometheus.NewRegistry(), extraHandlers)
	if err != nil {
		return err
	}
	if err := a.server.Start(); err != nil {
		a.Close()
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Printf("Received shutdown signal, shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = a.server.Stop(ctx)
	a.Close()
	return err
}
