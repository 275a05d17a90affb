package region

import (
	"context"
	"errors"
	"testing"
	"time"

	"streamcart/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCachesWithinTTL(t *testing.T) {
	calls := 0
	lookup := func(ctx context.Context) ([]models.Region, error) {
		calls++
		return []models.Region{
			{ID: "reg_us", CurrencyCode: "usd", Countries: []string{"us"}},
			{ID: "reg_eu", CurrencyCode: "eur", Countries: []string{"de", "fr"}},
		}, nil
	}

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(lookup, time.Hour, func() time.Time { return now })

	region, err := cache.Resolve(context.Background(), "US")
	require.NoError(t, err)
	assert.Equal(t, "reg_us", region.ID)

	// Second lookup inside the TTL must not refetch
	region, err = cache.Resolve(context.Background(), "de")
	require.NoError(t, err)
	assert.Equal(t, "reg_eu", region.ID)
	assert.Equal(t, 1, calls)
}

func TestResolveRefreshesAfterTTL(t *testing.T) {
	calls := 0
	lookup := func(ctx context.Context) ([]models.Region, error) {
		calls++
		return []models.Region{{ID: "reg_us", Countries: []string{"us"}}}, nil
	}

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(lookup, time.Hour, func() time.Time { return now })

	_, err := cache.Resolve(context.Background(), "us")
	require.NoError(t, err)

	now = now.Add(time.Hour + time.Minute)
	_, err = cache.Resolve(context.Background(), "us")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestResolveServesStaleOnRefreshError(t *testing.T) {
	calls := 0
	lookup := func(ctx context.Context) ([]models.Region, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("backend down")
		}
		return []models.Region{{ID: "reg_us", Countries: []string{"us"}}}, nil
	}

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(lookup, time.Hour, func() time.Time { return now })

	_, err := cache.Resolve(context.Background(), "us")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	region, err := cache.Resolve(context.Background(), "us")
	require.NoError(t, err)
	assert.Equal(t, "reg_us", region.ID)
}

func TestResolveUnknownCountry(t *testing.T) {
	lookup := func(ctx context.Context) ([]models.Region, error) {
		return []models.Region{{ID: "reg_us", Countries: []string{"us"}}}, nil
	}

	cache := NewCache(lookup, time.Hour, nil)

	_, err := cache.Resolve(context.Background(), "zz")
	assert.Error(t, err)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	calls := 0
	lookup := func(ctx context.Context) ([]models.Region, error) {
		calls++
		return []models.Region{{ID: "reg_us", Countries: []string{"us"}}}, nil
	}

	cache := NewCache(lookup, time.Hour, nil)

	_, err := cache.Resolve(context.Background(), "us")
	require.NoError(t, err)

	cache.Invalidate()

	_, err = cache.Resolve(context.Background(), "us")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
