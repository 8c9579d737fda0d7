package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisoko/marketplace/pkg/model"
)

func newTestStore(t *testing.T) (*HybridStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &HybridStore{redis: rdb}, mr
}

func TestCatalog_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestStore(t)
	defer mr.Close()

	products := []model.Product{
		{
			ID:    "prod-1",
			Name:  "Maize",
			Price: 980,
			Seller: model.SellerInfo{
				ID:       "S1",
				Name:     "Acme Farm",
				Location: "Nakuru",
				Verified: true,
			},
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		},
	}

	require.NoError(t, st.SaveCatalog(ctx, products))

	got, err := st.LoadCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Maize", got[0].Name)
	assert.Equal(t, int64(980), got[0].Price)
	assert.Equal(t, "S1", got[0].Seller.ID)
}

func TestLoadCatalog_EmptyKey(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestStore(t)
	defer mr.Close()

	got, err := st.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCart_RoundTrip_ScopedPerUser(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestStore(t)
	defer mr.Close()

	lines := []model.CartLine{
		{ProductID: "prod-1", Name: "Maize", Price: 980, Seller: model.SellerRef{ID: "S1", Name: "Acme Farm"}},
	}
	require.NoError(t, st.SaveCart(ctx, "buyer-1", lines))

	got, err := st.LoadCart(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(980), got[0].Price)

	// Another user's cart is untouched
	other, err := st.LoadCart(ctx, "buyer-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestOrders_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestStore(t)
	defer mr.Close()

	orders := []model.Order{
		{
			ID:          "ORD-1001",
			Buyer:       "Wanjiku",
			Seller:      "Acme Farm",
			Items:       "Maize",
			Fulfillment: model.FulfillmentPending,
			Payment:     model.PaymentInEscrow,
			Price:       980,
		},
	}
	require.NoError(t, st.SaveOrders(ctx, orders))

	got, err := st.LoadOrders(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.PaymentInEscrow, got[0].Payment)
	assert.Equal(t, model.FulfillmentPending, got[0].Fulfillment)
}

func TestProfile_MissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestStore(t)
	defer mr.Close()

	profile, err := st.LoadProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestProfile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestStore(t)
	defer mr.Close()

	in := model.UserProfile{ID: "U1", Name: "Wanjiku", Role: model.RoleBuyer, Location: "Nairobi"}
	require.NoError(t, st.SaveProfile(ctx, in))

	profile, err := st.LoadProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, in, *profile)
}

func TestPersistedFormat_IsPlainJSONArray(t *testing.T) {
	// The stored value must stay a JSON array of entities so the
	// original dashboard's persisted payloads interoperate.
	ctx := context.Background()
	st, mr := newTestStore(t)
	defer mr.Close()

	require.NoError(t, st.SaveOrders(ctx, []model.Order{{ID: "ORD-1", Payment: model.PaymentInEscrow}}))

	raw, err := mr.Get(KeyOrders)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "in_escrow", decoded[0]["paymentStatus"])
}

func TestArchiveOrderBatch_NilPG(t *testing.T) {
	st, mr := newTestStore(t)
	defer mr.Close()

	// Should return nil (no-op) when PG is nil
	err := st.ArchiveOrderBatch(context.Background(), []model.Order{{ID: "ORD-1"}})
	require.NoError(t, err)
}

func TestHealthCheck_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	st := &HybridStore{redis: rdb}

	// Close miniredis to simulate failure
	mr.Close()

	err = st.HealthCheck(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestSetJSON_Expiration(t *testing.T) {
	ctx := context.Background()
	st, mr := newTestStore(t)
	defer mr.Close()

	require.NoError(t, st.SetJSON(ctx, "tmp:key", map[string]string{"k": "v"}, 200*time.Millisecond))

	mr.FastForward(300 * time.Millisecond)

	var got map[string]string
	err := st.GetJSON(ctx, "tmp:key", &got)
	assert.Error(t, err)
}
