// Copyright 2026 The mripipes Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package run implements `mripipes run`.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jwelling/mripipes/internal/batch"
	"github.com/jwelling/mripipes/internal/config"
	"github.com/jwelling/mripipes/internal/graph"
	mripipeslog "github.com/jwelling/mripipes/internal/log"
	"github.com/jwelling/mripipes/internal/metrics"
	"github.com/jwelling/mripipes/internal/pipeline"
	"github.com/jwelling/mripipes/internal/watch"
)

// NewCommand builds the run subcommand. configPath and verbose are read
// at RunE time, after cobra has parsed the root command's persistent
// flags, so they're passed as pointers into the not-yet-populated
// Globals struct.
func NewCommand(configPath *string, verbose *bool) *cobra.Command {
	var (
		watchFlag   bool
		globPattern string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run <graph.yaml>",
		Short: "Build a pipeline graph and run it to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if *verbose {
				cfg.Log.Level = "debug"
			}
			logger := mripipeslog.New(&mripipeslog.Config{
				Level:     cfg.Log.Level,
				Format:    mripipeslog.Format(cfg.Log.Format),
				Output:    os.Stderr,
				AddSource: cfg.Log.AddSource,
			})

			if metricsAddr != "" {
				cfg.Metrics.Enabled = true
				cfg.Metrics.ListenAddr = metricsAddr
			}
			if cfg.Metrics.Enabled {
				go func() {
					if err := metrics.Serve(cfg.Metrics.ListenAddr); err != nil {
						logger.Error("metrics server stopped", "error", err)
					}
				}()
			}

			graphPath := args[0]

			if globPattern != "" {
				return runGlob(cmd.Context(), graphPath, globPattern, logger)
			}
			if watchFlag {
				return runWatch(cmd.Context(), graphPath, logger)
			}
			return runOnce(graphPath, logger)
		},
	}

	cmd.Flags().BoolVar(&watchFlag, "watch", false, "re-run whenever the graph's primary input file changes")
	cmd.Flags().StringVar(&globPattern, "glob", "", "expand a glob into a batch of per-file runs sharing this graph template")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

func loadGraph(path string) (*graph.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("run: read %s: %w", path, err)
	}
	return graph.Parse(data)
}

func runOnce(graphPath string, logger *slog.Logger) error {
	def, err := loadGraph(graphPath)
	if err != nil {
		return err
	}
	logger = mripipeslog.WithRun(logger, uuid.NewString())

	start := time.Now()
	arena, sources, err := graph.Build(def, graph.OpenStore)
	if err != nil {
		return err
	}
	defer arena.Destroy()

	if err := arena.InitAll(); err != nil {
		return err
	}

	terminal, err := terminalTools(arena)
	if err != nil {
		return err
	}
	for _, t := range terminal {
		if err := t.Execute(); err != nil {
			return err
		}
	}

	elapsed := time.Since(start)
	metrics.ObserveRunDuration(def.Name, elapsed.Seconds())
	logger.Info("run complete",
		slog.String("graph", def.Name),
		slog.Int("nodes", len(def.Tools)),
		slog.Int("sources", len(sources)),
		slog.Duration("elapsed", elapsed),
	)
	return nil
}

// terminalTools returns every tool the arena owns that has no downstream
// consumer within the arena: the graph's sinks for the pull.
func terminalTools(arena *pipeline.Arena) ([]pipeline.Tool, error) {
	consumed := map[pipeline.Tool]bool{}
	for _, t := range arena.Tools() {
		for _, s := range t.Base().Sinks {
			if s.Source != nil {
				consumed[s.Source.Owner] = true
			}
		}
	}
	var terminal []pipeline.Tool
	for _, t := range arena.Tools() {
		if !consumed[t] {
			terminal = append(terminal, t)
		}
	}
	if len(terminal) == 0 {
		return nil, fmt.Errorf("run: graph has no terminal tool to execute")
	}
	return terminal, nil
}

func runWatch(ctx context.Context, graphPath string, logger *slog.Logger) error {
	def, err := loadGraph(graphPath)
	if err != nil {
		return err
	}
	inputPath, ok := primaryInputPath(def)
	if !ok {
		return fmt.Errorf("run --watch: graph %q has no file_input node to watch", graphPath)
	}

	w, err := watch.New(inputPath, logger)
	if err != nil {
		return err
	}

	if err := runOnce(graphPath, logger); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go w.Run(runCtx)

	for range w.Events() {
		logger.Info("input changed, re-running", slog.String("path", inputPath))
		if err := runOnce(graphPath, logger); err != nil {
			logger.Error("re-run failed", "error", err)
		}
	}
	return nil
}

func runGlob(ctx context.Context, graphPath, pattern string, logger *slog.Logger) error {
	items, err := batch.ExpandIndexed(pattern)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		logger.Warn("glob matched no files", slog.String("pattern", pattern))
		return nil
	}

	for _, item := range items {
		logger.Info("batch run", slog.Int("index", item.Index), slog.String("input", item.Path))
		if err := runOnceWithInput(graphPath, item.Path, logger); err != nil {
			return fmt.Errorf("run --glob: item %d (%s): %w", item.Index, item.Path, err)
		}
	}
	return nil
}

// runOnceWithInput runs graphPath's template with every occurrence of the
// literal placeholder "@input" in the file's text replaced by inputPath
// (typically a file_input/file_output node's "store" param), so a single
// graph template can be replayed across a glob-expanded batch.
func runOnceWithInput(graphPath, inputPath string, logger *slog.Logger) error {
	data, err := os.ReadFile(graphPath)
	if err != nil {
		return err
	}
	substituted := strings.ReplaceAll(string(data), "@input", inputPath)
	def, err := graph.Parse([]byte(substituted))
	if err != nil {
		return err
	}
	logger = mripipeslog.WithRun(logger, uuid.NewString())

	start := time.Now()
	arena, _, err := graph.Build(def, graph.OpenStore)
	if err != nil {
		return err
	}
	defer arena.Destroy()
	if err := arena.InitAll(); err != nil {
		return err
	}
	terminal, err := terminalTools(arena)
	if err != nil {
		return err
	}
	for _, t := range terminal {
		if err := t.Execute(); err != nil {
			return err
		}
	}
	metrics.ObserveRunDuration(def.Name, time.Since(start).Seconds())
	return nil
}

func primaryInputPath(def *graph.Definition) (string, bool) {
	for _, n := range def.Tools {
		if n.Type != "file_input" {
			continue
		}
		var p struct {
			Store string `yaml:"store"`
		}
		if n.Params.Kind != 0 {
			if err := n.Params.Decode(&p); err == nil && p.Store != "" {
				return p.Store, true
			}
		}
	}
	return "", false
}
