package commands

import (
	"fmt"
	"sync/atomic"

	"github.com/Amund211/conduction/observable"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	observeUpdates int
	observeWorkers int
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Fan out updates from an observable value",
	Long: `Observe subscribes a pair of watchers to an observable counter, applies
updates from concurrent workers and reports what the watchers saw.`,
	RunE: runObserve,
}

func init() {
	observeCmd.Flags().IntVar(&observeUpdates, "updates", 20, "Total updates to apply")
	observeCmd.Flags().IntVar(&observeWorkers, "workers", 4, "Concurrent updaters")
	rootCmd.AddCommand(observeCmd)
}

func runObserve(cmd *cobra.Command, args []string) error {
	if observeUpdates < 1 || observeWorkers < 1 {
		return fmt.Errorf("updates and workers must be positive")
	}

	_, logger, cleanup, err := setupRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	counter := observable.NewValue(0)

	var transitions atomic.Int64
	watcherID := counter.Subscribe(func(old, new int) {
		transitions.Add(1)
		logger.Debug("Watcher saw transition", "old", old, "new", new)
	})

	var lastSeen atomic.Int64
	peakID := counter.Subscribe(func(old, new int) {
		lastSeen.Store(int64(new))
	})

	printStep("Applying %d update(s) from %d worker(s)", observeUpdates, observeWorkers)

	g := new(errgroup.Group)
	g.SetLimit(observeWorkers)
	for range observeUpdates {
		g.Go(func() error {
			counter.Update(func(v int) int { return v + 1 })
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("observe demo failed: %w", err)
	}

	if !counter.Unsubscribe(watcherID) {
		printWarning("Watcher was already unsubscribed")
	}

	printSuccess("Counter reached %d after %d notified transition(s), last fan-out saw %d",
		counter.Get(), transitions.Load(), lastSeen.Load())

	if remaining := counter.SubscriberCount(); remaining != 1 {
		printWarning("Expected one remaining subscriber, found %d", remaining)
	}
	if !counter.Unsubscribe(peakID) {
		printWarning("Peak watcher was already unsubscribed")
	}
	return nil
}
