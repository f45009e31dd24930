package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lex00/openai-stack-go/internal/config"
	"github.com/lex00/openai-stack-go/internal/logging"
)

// newWatchCmd creates the "watch" subcommand for rebuilding on config changes.
func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch [stacks...]",
		Short: "Rebuild templates when the config file changes",
		Long: `Watch monitors the config file and rebuilds the templates whenever it changes.

Rapid successive writes (editors often write a file more than once) are
debounced into a single rebuild.

Examples:
    openai-stack watch -o dist
    openai-stack watch ai-app --config envs/prod.yaml -o dist
    openai-stack watch --debounce 1s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = config.DefaultFile
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd.OutOrStdout(), path, args, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "dist", "Output directory")

	return cmd
}

type watchOptions struct {
	debounce     time.Duration
	outputFormat string
	outputDir    string
}

// runWatch rebuilds on every change to path until ctx is cancelled.
func runWatch(ctx context.Context, w io.Writer, path string, stacks []string, opts watchOptions) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Editors replace files by rename, which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	fmt.Fprintf(w, "Watching: %s\n", abs)

	fmt.Fprintln(w, "Running initial build...")
	rebuild(w, abs, stacks, opts)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	fmt.Fprintln(w, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isConfigEvent(event, abs) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			fmt.Fprintf(w, "\n[%s] Change detected, rebuilding...\n", time.Now().Format("15:04:05"))
			rebuild(w, abs, stacks, opts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)

		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			fmt.Fprintln(w, "\nStopping watch...")
			return nil
		}
	}
}

// isConfigEvent reports whether event writes or replaces the config file.
func isConfigEvent(event fsnotify.Event, configFile string) bool {
	if filepath.Clean(event.Name) != configFile {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// rebuild reloads the config (defaults while the file is missing) and writes
// the templates. Failures are reported and the watch continues.
func rebuild(w io.Writer, path string, stacks []string, opts watchOptions) {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			return
		}
		cfg = loaded
	}
	logging.InitWith(logOptions(logLevel, cfg.Log))

	if err := runBuild(w, cfg, stacks, opts.outputFormat, opts.outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "Build error: %v\n", err)
		return
	}
	fmt.Fprintln(w, "Build successful")
}
