package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/bianoble/skillsync/internal/logger"
	"github.com/bianoble/skillsync/pkg/skillsync"
)

const watchDebounce = 200 * time.Millisecond

var (
	watchGlobal bool
	watchAgents []string
	watchJSON   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run verification whenever installed skills change",
	Long: `Runs verify, then watches the lock file, the canonical store, each skill folder
and every checked agent's skills directory, re-running verification after
changes settle. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()

		s := selectedScope(watchGlobal)
		out := cmd.OutOrStdout()
		run := func() {
			if err := addWatches(watcher, client, s); err != nil {
				errorf("%v", err)
			}
			runOnce(ctx, out, client, s)
		}

		run()
		watchLoop(ctx, watcher.Events, watcher.Errors, watchDebounce, run)
		return nil
	},
}

func runOnce(ctx context.Context, out io.Writer, client *skillsync.Client, s skillsync.Scope) {
	sum, err := client.Verify(ctx, skillsync.VerifyOptions{Scope: s, Agents: watchAgents})
	if err != nil {
		errorf("%v", err)
		return
	}
	if watchJSON {
		if err := renderJSON(out, sum); err != nil {
			errorf("%v", err)
		}
		return
	}
	info(out, "%s", time.Now().Format(time.TimeOnly))
	renderTable(out, sum)
	if sum.Failed() {
		errorf("%v", failureError(sum))
	}
}

// addWatches registers every directory a verification depends on. Paths that
// do not exist yet are covered by watching their nearest existing parent.
func addWatches(w *fsnotify.Watcher, client *skillsync.Client, s skillsync.Scope) error {
	targets, err := client.WatchPaths(s, watchAgents)
	if err != nil {
		return err
	}

	canonical := client.Paths().CanonicalDir(s)
	if entries, err := os.ReadDir(canonical); err == nil {
		for _, e := range entries {
			targets = append(targets, filepath.Join(canonical, e.Name()))
		}
	}

	watched := make(map[string]bool)
	for _, p := range w.WatchList() {
		watched[p] = true
	}
	for _, p := range targets {
		dir := nearestDir(p)
		if dir == "" || watched[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			logger.L.WithError(err).WithField("path", dir).Debug("cannot watch")
			continue
		}
		watched[dir] = true
	}
	return nil
}

// nearestDir returns path if it is a directory, otherwise its closest
// existing ancestor directory.
func nearestDir(path string) string {
	for {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			return path
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return ""
		}
		parent := filepath.Dir(path)
		if parent == path {
			return ""
		}
		path = parent
	}
}

// watchLoop calls run once events stop arriving for the debounce interval.
// It returns when ctx is done or the event channel closes.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, debounce time.Duration, run func()) {
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			logger.G(ctx).WithField("path", event.Name).WithField("op", event.Op.String()).Debug("change detected")
			timer.Reset(debounce)

		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.G(ctx).WithError(err).Warn("file watcher error")

		case <-timer.C:
			run()
		}
	}
}

func init() {
	watchCmd.Flags().BoolVarP(&watchGlobal, "global", "g", false, "watch the global (~/.agents) installation")
	watchCmd.Flags().StringSliceVarP(&watchAgents, "agent", "a", nil, "agent to check links for (repeatable; default: detected agents)")
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "print each report as JSON")
	rootCmd.AddCommand(watchCmd)
}
