package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanOut(t *testing.T) {
	t.Run("should return results in input order", func(t *testing.T) {
		ids := []string{"a1", "a2", "a3", "a4"}
		// Later inputs finish first so ordering cannot come from timing.
		delays := map[string]time.Duration{
			"a1": 20 * time.Millisecond,
			"a2": 15 * time.Millisecond,
			"a3": 10 * time.Millisecond,
			"a4": 0,
		}

		results := FanOut(context.Background(), len(ids), ids, func(ctx context.Context, id string) (string, error) {
			time.Sleep(delays[id])
			return "enriched:" + id, nil
		})

		require.Len(t, results, len(ids))
		for i, id := range ids {
			require.NoError(t, results[i].Err)
			assert.Equal(t, "enriched:"+id, results[i].Value)
		}
	})

	t.Run("should bound in-flight calls by the limit", func(t *testing.T) {
		var inflight, peak atomic.Int32

		ids := []string{"a1", "a2", "a3", "a4", "a5", "a6"}
		results := FanOut(context.Background(), 2, ids, func(ctx context.Context, id string) (string, error) {
			n := inflight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			inflight.Add(-1)
			return id, nil
		})

		require.Len(t, results, len(ids))
		assert.LessOrEqual(t, peak.Load(), int32(2))
	})

	t.Run("should keep per-input errors isolated", func(t *testing.T) {
		boom := errors.New("provider down")

		results := FanOut(context.Background(), 3, []string{"a1", "a2", "a3"}, func(ctx context.Context, id string) (string, error) {
			if id == "a2" {
				return "", boom
			}
			return id, nil
		})

		require.Len(t, results, 3)
		assert.NoError(t, results[0].Err)
		assert.ErrorIs(t, results[1].Err, boom)
		assert.NoError(t, results[2].Err)
	})

	t.Run("should fail unstarted inputs when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var calls atomic.Int32
		results := FanOut(ctx, 2, []string{"a1", "a2", "a3"}, func(ctx context.Context, id string) (string, error) {
			calls.Add(1)
			return id, nil
		})

		require.Len(t, results, 3)
		for _, r := range results {
			assert.ErrorIs(t, r.Err, context.Canceled)
		}
		assert.Zero(t, calls.Load())
	})

	t.Run("should return nil for empty input", func(t *testing.T) {
		results := FanOut(context.Background(), 4, nil, func(ctx context.Context, id string) (string, error) {
			return id, nil
		})

		assert.Nil(t, results)
	})

	t.Run("should treat a non-positive limit as unbounded", func(t *testing.T) {
		results := FanOut(context.Background(), 0, []string{"a1", "a2"}, func(ctx context.Context, id string) (string, error) {
			return id, nil
		})

		require.Len(t, results, 2)
		assert.Equal(t, "a1", results[0].Value)
		assert.Equal(t, "a2", results[1].Value)
	})
}
