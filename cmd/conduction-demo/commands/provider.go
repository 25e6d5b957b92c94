package commands

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/Amund211/conduction/internal/ratelimiting"
	"github.com/Amund211/conduction/internal/reporting"
	"github.com/Amund211/conduction/resource"
)

// fakeProvider stands in for a remote resource service. Responses are rate
// limited per key and served after a short random delay. Keys prefixed
// "missing-" simulate an upstream miss.
type fakeProvider struct {
	// reportCtx carries the demo's logger and Sentry hub; the per-fetch
	// ctx only carries cancellation.
	reportCtx context.Context
	logger    *slog.Logger
	limiter   ratelimiting.TokenBucketRateLimiter
}

func newFakeProvider(reportCtx context.Context, logger *slog.Logger) (*fakeProvider, func()) {
	limiter, stopLimiter := ratelimiting.NewTokenBucketRateLimiter(5, 2)
	return &fakeProvider{
		reportCtx: reportCtx,
		logger:    logger,
		limiter:   limiter,
	}, stopLimiter
}

func (p *fakeProvider) fetchFuncFor(key string) resource.FetchFunc[string] {
	return func(ctx context.Context, priority *int) (*string, error) {
		if err := p.limiter.Wait(ctx, key); err != nil {
			return nil, fmt.Errorf("upstream rate limit for %q: %w", key, err)
		}

		delay := 30*time.Millisecond + rand.N(90*time.Millisecond)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		if strings.HasPrefix(key, "missing-") {
			err := fmt.Errorf("upstream has no resource %q", key)
			reporting.Report(p.reportCtx, err, map[string]string{"key": key})
			return nil, err
		}

		p.logger.Debug("Serving fetch", "key", key, "priority", formatPriority(priority))

		value := fmt.Sprintf("payload-%s-%04x", key, rand.N(0x10000))
		return &value, nil
	}
}

func formatPriority(priority *int) string {
	if priority == nil {
		return "none"
	}
	return strconv.Itoa(*priority)
}
