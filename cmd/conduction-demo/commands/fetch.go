package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Amund211/conduction/internal/reporting"
	"github.com/Amund211/conduction/resource"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	fetchObservers  int
	fetchTimeout    time.Duration
	fetchExpire     bool
	fetchInvalidate bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch KEY [KEY...]",
	Short: "Fetch resources through a coordinator registry",
	Long: `Fetch registers several observers per key against a shared coordinator
registry. Concurrent interest in the same key is coalesced into a single
rate limited upstream fetch, and every observer receives the result once,
highest priority first.

Keys prefixed "missing-" simulate an upstream miss: observers receive no
value for them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().IntVar(&fetchObservers, "observers", 3, "Observers registered per key")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 10*time.Second, "Overall demo timeout")
	fetchCmd.Flags().BoolVar(&fetchExpire, "expire", false, "Expire each key and fetch again")
	fetchCmd.Flags().BoolVar(&fetchInvalidate, "invalidate", false, "Invalidate an in-flight fetch per key")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if fetchObservers < 1 {
		return fmt.Errorf("observers must be positive")
	}

	ctx, logger, cleanup, err := setupRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	provider, stopProvider := newFakeProvider(ctx, logger)
	defer stopProvider()

	queue := resource.NewQueue()
	defer queue.Close()

	registry := resource.NewRegistry(5*time.Minute, func(key string) *resource.Coordinator[string] {
		fallback := "fallback: " + key
		return resource.NewCoordinator(
			resource.WithQueue[string](queue),
			resource.WithFetchFunc(provider.fetchFuncFor(key)),
			resource.WithInvalidateFunc(func() *string { return &fallback }),
			resource.WithLogger[string](logger.With(slog.String("resource", key))),
		)
	})
	defer registry.Close()

	printStep("Registering %d observer(s) for %d key(s)", fetchObservers, len(args))

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range args {
		coordinator := registry.Get(key)
		for i := range fetchObservers {
			priority := i + 1
			g.Go(func() error {
				done := make(chan struct{})
				coordinator.Get(func(value *string) {
					if value == nil {
						printFailure("%s (priority %d): no value", key, priority)
					} else {
						printSuccess("%s (priority %d): %s", key, priority, *value)
					}
					close(done)
				}, resource.WithPriority(priority))

				select {
				case <-done:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
	}

	if err := g.Wait(); err != nil {
		reporting.Report(ctx, err, map[string]string{"keys": strings.Join(args, ",")})
		return fmt.Errorf("fetch demo failed: %w", err)
	}

	if fetchExpire {
		printStep("Expiring cached values and fetching again")
		for _, key := range args {
			coordinator := registry.Get(key)
			coordinator.Expire()

			done := make(chan struct{})
			coordinator.Get(func(value *string) {
				if value == nil {
					printFailure("%s (refetch): no value", key)
				} else {
					printSuccess("%s (refetch): %s", key, *value)
				}
				close(done)
			})

			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if fetchInvalidate {
		printStep("Invalidating in-flight fetches")
		for _, key := range args {
			coordinator := registry.Get(key)
			coordinator.Expire()

			done := make(chan struct{})
			coordinator.Get(func(value *string) {
				if value == nil {
					printFailure("%s (invalidate): no value", key)
				} else {
					printSuccess("%s (invalidate): %s", key, *value)
				}
				close(done)
			})
			coordinator.Invalidate()

			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	for _, key := range args {
		kind := make(chan string, 1)
		registry.Get(key).Check(func(state resource.State[string]) {
			kind <- state.Kind().String()
		})

		select {
		case k := <-kind:
			printStep("%s state: %s", key, k)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	printSuccess("Fetched %d key(s) with %d observer(s) each", len(args), fetchObservers)
	return nil
}
