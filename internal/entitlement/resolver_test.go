package entitlement

import (
	"context"
	"errors"
	"testing"

	"streamcart/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductAPI struct {
	products []models.DigitalProduct
	err      error
}

func (f *fakeProductAPI) CustomerDigitalProducts(ctx context.Context, customerID, productID, parentID string) ([]models.DigitalProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func TestResolveFailsClosedOnUpstreamError(t *testing.T) {
	r := NewResolver(&fakeProductAPI{err: errors.New("backend unreachable")})

	ent, err := r.Resolve(context.Background(), "cus_1", "ep_1", "season_1", "en")
	require.NoError(t, err)
	assert.False(t, ent.Purchased)
}

func TestResolveNotPurchased(t *testing.T) {
	r := NewResolver(&fakeProductAPI{products: []models.DigitalProduct{
		{ID: "ep_1", Type: models.DigitalProductTypeEpisode, Purchased: false},
	}})

	ent, err := r.Resolve(context.Background(), "cus_1", "ep_1", "season_1", "en")
	require.NoError(t, err)
	assert.False(t, ent.Purchased)
}

func TestResolveProductMissingFromResponse(t *testing.T) {
	r := NewResolver(&fakeProductAPI{products: []models.DigitalProduct{
		{ID: "ep_other", Purchased: true, ContentURL: "raw"},
	}})

	ent, err := r.Resolve(context.Background(), "cus_1", "ep_1", "", "en")
	require.NoError(t, err)
	assert.False(t, ent.Purchased)
}

func TestResolvePurchasedSelectsLocale(t *testing.T) {
	r := NewResolver(&fakeProductAPI{products: []models.DigitalProduct{
		{
			ID:             "ep_1",
			Type:           models.DigitalProductTypeEpisode,
			Purchased:      true,
			TranslatedURLs: map[string]string{"en": "A", "es": "B"},
		},
	}})

	ent, err := r.Resolve(context.Background(), "cus_1", "ep_1", "season_1", "es")
	require.NoError(t, err)
	assert.True(t, ent.Purchased)
	assert.Equal(t, "B", ent.PlaybackID)
}

func TestSelectPlaybackID(t *testing.T) {
	product := &models.DigitalProduct{
		TranslatedURLs: map[string]string{"en": "A", "es": "B"},
		ContentURL:     "raw",
	}

	id, err := SelectPlaybackID(product, "es")
	require.NoError(t, err)
	assert.Equal(t, "B", id)

	// Missing locale falls back to English
	id, err = SelectPlaybackID(product, "fr")
	require.NoError(t, err)
	assert.Equal(t, "A", id)

	// No translations falls back to the content URL
	id, err = SelectPlaybackID(&models.DigitalProduct{ContentURL: "raw"}, "fr")
	require.NoError(t, err)
	assert.Equal(t, "raw", id)

	// Nothing at all is an error, not a placeholder id
	_, err = SelectPlaybackID(&models.DigitalProduct{}, "fr")
	assert.ErrorIs(t, err, ErrNoPlayback)
}
