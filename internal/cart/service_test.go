package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agrisoko/marketplace/internal/store"
	"github.com/agrisoko/marketplace/pkg/model"
)

func newTestCart(t *testing.T, userID string) (*Service, store.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	st, err := store.NewHybrid(mr.Addr(), 0, "", "", store.PGPoolConfig{}, zap.NewNop())
	require.NoError(t, err)

	svc, err := New(context.Background(), st, userID, zap.NewNop())
	require.NoError(t, err)
	return svc, st, mr
}

func buyer() model.UserProfile {
	return model.UserProfile{ID: "B1", Name: "Wanjiku", Role: model.RoleBuyer, Location: "Nairobi"}
}

func listing(id, sellerID string, price int64) model.Product {
	return model.Product{
		ID:    id,
		Name:  "Maize",
		Price: price,
		Seller: model.SellerInfo{
			ID:   sellerID,
			Name: "Acme Farm",
		},
	}
}

func TestAdd_FreezesPriceAndSeller(t *testing.T) {
	svc, _, mr := newTestCart(t, "B1")
	defer mr.Close()
	ctx := context.Background()

	p := listing("prod-1", "S1", 980)
	require.NoError(t, svc.Add(ctx, p, buyer()))

	// Mutating the product afterwards must not affect the line
	p.Price = 5000
	p.Seller.Name = "Changed"

	lines := svc.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(980), lines[0].Price)
	assert.Equal(t, "Acme Farm", lines[0].Seller.Name)
}

func TestAdd_LoginRequired(t *testing.T) {
	svc, _, mr := newTestCart(t, "B1")
	defer mr.Close()

	err := svc.Add(context.Background(), listing("prod-1", "S1", 980), model.UserProfile{})
	assert.ErrorIs(t, err, model.ErrLoginRequired)
	assert.Zero(t, svc.Len())
}

func TestAdd_SelfPurchaseRejected(t *testing.T) {
	svc, _, mr := newTestCart(t, "B1")
	defer mr.Close()

	own := listing("prod-1", "B1", 980)
	err := svc.Add(context.Background(), own, buyer())
	assert.ErrorIs(t, err, model.ErrSelfPurchase)
	assert.Zero(t, svc.Len())
}

func TestRemove_OutOfRangeIsSilentNoop(t *testing.T) {
	svc, _, mr := newTestCart(t, "B1")
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, listing("prod-1", "S1", 980), buyer()))

	require.NoError(t, svc.Remove(ctx, -1))
	require.NoError(t, svc.Remove(ctx, 5))
	assert.Equal(t, 1, svc.Len())

	require.NoError(t, svc.Remove(ctx, 0))
	assert.Zero(t, svc.Len())
}

func TestAdd_PersistFailureLeavesCartUnchanged(t *testing.T) {
	svc, st, mr := newTestCart(t, "B1")
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, listing("prod-1", "S1", 980), buyer()))

	mr.SetError("redis is down")
	err := svc.Add(ctx, listing("prod-2", "S2", 1500), buyer())
	require.Error(t, err)

	// The failed add is visible nowhere: memory and storage agree
	assert.Equal(t, 1, svc.Len())
	assert.Equal(t, int64(980), svc.Total())

	mr.SetError("")
	persisted, err := st.LoadCart(ctx, "B1")
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, "prod-1", persisted[0].ProductID)
}

func TestRemove_PersistFailureLeavesCartUnchanged(t *testing.T) {
	svc, st, mr := newTestCart(t, "B1")
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, listing("prod-1", "S1", 980), buyer()))
	require.NoError(t, svc.Add(ctx, listing("prod-2", "S2", 1500), buyer()))

	mr.SetError("redis is down")
	err := svc.Remove(ctx, 0)
	require.Error(t, err)

	assert.Equal(t, 2, svc.Len())
	assert.Equal(t, int64(2480), svc.Total())

	mr.SetError("")
	persisted, err := st.LoadCart(ctx, "B1")
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
}

func TestTotal_TracksAddAndRemove(t *testing.T) {
	svc, _, mr := newTestCart(t, "B1")
	defer mr.Close()
	ctx := context.Background()

	assert.Equal(t, int64(0), svc.Total())

	require.NoError(t, svc.Add(ctx, listing("prod-1", "S1", 980), buyer()))
	require.NoError(t, svc.Add(ctx, listing("prod-2", "S2", 1500), buyer()))
	assert.Equal(t, int64(2480), svc.Total())

	require.NoError(t, svc.Remove(ctx, 0))
	assert.Equal(t, int64(1500), svc.Total())
}

func TestCart_SurvivesRestart(t *testing.T) {
	svc, st, mr := newTestCart(t, "B1")
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, listing("prod-1", "S1", 980), buyer()))

	reloaded, err := New(ctx, st, "B1", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Len())
	assert.Equal(t, int64(980), reloaded.Total())
}

func TestCommit_EmptyCart(t *testing.T) {
	svc, _, mr := newTestCart(t, "B1")
	defer mr.Close()

	err := svc.Commit(context.Background(), func(lines []model.CartLine) error {
		t.Fatal("commit fn must not run on an empty cart")
		return nil
	})
	assert.ErrorIs(t, err, model.ErrCartEmpty)
}

func TestCommit_SuccessClearsCart(t *testing.T) {
	svc, st, mr := newTestCart(t, "B1")
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, listing("prod-1", "S1", 980), buyer()))

	var seen []model.CartLine
	require.NoError(t, svc.Commit(ctx, func(lines []model.CartLine) error {
		seen = lines
		return nil
	}))

	require.Len(t, seen, 1)
	assert.Zero(t, svc.Len())

	// Persisted cart is empty too
	persisted, err := st.LoadCart(ctx, "B1")
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestCommit_FailureLeavesCartUntouched(t *testing.T) {
	svc, _, mr := newTestCart(t, "B1")
	defer mr.Close()
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, listing("prod-1", "S1", 980), buyer()))
	require.NoError(t, svc.Add(ctx, listing("prod-2", "S2", 1500), buyer()))

	boom := errors.New("ledger write failed")
	err := svc.Commit(ctx, func(lines []model.CartLine) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Retry is possible without re-adding lines
	assert.Equal(t, 2, svc.Len())
	assert.Equal(t, int64(2480), svc.Total())
}
