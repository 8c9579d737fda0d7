package catalog

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agrisoko/marketplace/internal/store"
	"github.com/agrisoko/marketplace/pkg/eventbus"
	"github.com/agrisoko/marketplace/pkg/model"
)

func newTestService(t *testing.T) (*Service, store.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	st, err := store.NewHybrid(mr.Addr(), 0, "", "", store.PGPoolConfig{}, zap.NewNop())
	require.NoError(t, err)

	svc, err := New(context.Background(), st, eventbus.New(), zap.NewNop())
	require.NoError(t, err)
	return svc, st, mr
}

func producerProfile(id string) model.UserProfile {
	return model.UserProfile{
		ID:         id,
		Name:       "Acme Farm",
		Role:       model.RoleProducer,
		Location:   "Nakuru",
		IsVerified: true,
	}
}

func TestAddListing_AssignsSellerSnapshot(t *testing.T) {
	svc, _, mr := newTestService(t)
	defer mr.Close()
	ctx := context.Background()

	p, err := svc.AddListing(ctx, NewListing{Name: "Maize", Price: 980, Category: "cereals"}, producerProfile("S1"))
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "S1", p.Seller.ID)
	assert.Equal(t, "Acme Farm", p.Seller.Name)
	assert.True(t, p.Seller.Verified)
}

func TestAddListing_PrependsMostRecentFirst(t *testing.T) {
	svc, _, mr := newTestService(t)
	defer mr.Close()
	ctx := context.Background()

	_, err := svc.AddListing(ctx, NewListing{Name: "Maize", Price: 980}, producerProfile("S1"))
	require.NoError(t, err)
	_, err = svc.AddListing(ctx, NewListing{Name: "Beans", Price: 1200}, producerProfile("S1"))
	require.NoError(t, err)

	listed := svc.List(ctx)
	require.Len(t, listed, 2)
	assert.Equal(t, "Beans", listed[0].Name)
	assert.Equal(t, "Maize", listed[1].Name)
}

func TestAddListing_RejectsInvalidForm(t *testing.T) {
	svc, _, mr := newTestService(t)
	defer mr.Close()
	ctx := context.Background()

	_, err := svc.AddListing(ctx, NewListing{Name: "", Price: 980}, producerProfile("S1"))
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.AddListing(ctx, NewListing{Name: "Maize", Price: 0}, producerProfile("S1"))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestAddListing_PersistFailureLeavesCatalogUnchanged(t *testing.T) {
	svc, st, mr := newTestService(t)
	defer mr.Close()
	ctx := context.Background()

	p, err := svc.AddListing(ctx, NewListing{Name: "Maize", Price: 980}, producerProfile("S1"))
	require.NoError(t, err)

	mr.SetError("redis is down")
	_, err = svc.AddListing(ctx, NewListing{Name: "Beans", Price: 1200}, producerProfile("S1"))
	require.Error(t, err)

	// The failed listing is visible nowhere: memory and storage agree
	listed := svc.List(ctx)
	require.Len(t, listed, 1)
	assert.Equal(t, p.ID, listed[0].ID)

	mr.SetError("")
	persisted, err := st.LoadCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, p.ID, persisted[0].ID)
}

func TestRemoveListing_PersistFailureLeavesCatalogUnchanged(t *testing.T) {
	svc, st, mr := newTestService(t)
	defer mr.Close()
	ctx := context.Background()

	p, err := svc.AddListing(ctx, NewListing{Name: "Maize", Price: 980}, producerProfile("S1"))
	require.NoError(t, err)

	mr.SetError("redis is down")
	err = svc.RemoveListing(ctx, p.ID, "S1")
	require.Error(t, err)

	require.Len(t, svc.List(ctx), 1)

	mr.SetError("")
	persisted, err := st.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
}

func TestRemoveListing_OwnerSucceeds(t *testing.T) {
	svc, _, mr := newTestService(t)
	defer mr.Close()
	ctx := context.Background()

	p, err := svc.AddListing(ctx, NewListing{Name: "Maize", Price: 980}, producerProfile("S1"))
	require.NoError(t, err)

	require.NoError(t, svc.RemoveListing(ctx, p.ID, "S1"))
	assert.Empty(t, svc.List(ctx))
}

func TestRemoveListing_NonOwnerUnauthorized_CatalogUnchanged(t *testing.T) {
	svc, _, mr := newTestService(t)
	defer mr.Close()
	ctx := context.Background()

	p, err := svc.AddListing(ctx, NewListing{Name: "Maize", Price: 980}, producerProfile("U1"))
	require.NoError(t, err)

	err = svc.RemoveListing(ctx, p.ID, "U2")
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	listed := svc.List(ctx)
	require.Len(t, listed, 1)
	assert.Equal(t, p.ID, listed[0].ID)
}

func TestRemoveListing_UnknownProduct(t *testing.T) {
	svc, _, mr := newTestService(t)
	defer mr.Close()

	err := svc.RemoveListing(context.Background(), "missing", "S1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMarkSold_DelistsProduct(t *testing.T) {
	svc, _, mr := newTestService(t)
	defer mr.Close()
	ctx := context.Background()

	p, err := svc.AddListing(ctx, NewListing{Name: "Maize", Price: 980}, producerProfile("S1"))
	require.NoError(t, err)

	require.NoError(t, svc.MarkSold(ctx, p.ID, "S1"))

	// Sold means delisted, not a separate catalog state
	assert.Empty(t, svc.List(ctx))
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMarkSold_NonOwnerUnauthorized(t *testing.T) {
	svc, _, mr := newTestService(t)
	defer mr.Close()
	ctx := context.Background()

	p, err := svc.AddListing(ctx, NewListing{Name: "Maize", Price: 980}, producerProfile("S1"))
	require.NoError(t, err)

	err = svc.MarkSold(ctx, p.ID, "intruder")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	assert.Len(t, svc.List(ctx), 1)
}

func TestCatalog_SurvivesRestart(t *testing.T) {
	svc, st, mr := newTestService(t)
	defer mr.Close()
	ctx := context.Background()

	p, err := svc.AddListing(ctx, NewListing{Name: "Maize", Price: 980}, producerProfile("S1"))
	require.NoError(t, err)

	// A new service over the same store sees the listing
	reloaded, err := New(ctx, st, eventbus.New(), zap.NewNop())
	require.NoError(t, err)

	listed := reloaded.List(ctx)
	require.Len(t, listed, 1)
	assert.Equal(t, p.ID, listed[0].ID)
}

func TestList_ReturnsIndependentCopies(t *testing.T) {
	svc, _, mr := newTestService(t)
	defer mr.Close()
	ctx := context.Background()

	_, err := svc.AddListing(ctx, NewListing{Name: "Maize", Price: 980}, producerProfile("S1"))
	require.NoError(t, err)

	listed := svc.List(ctx)
	listed[0].Seller.Name = "Tampered"

	again := svc.List(ctx)
	assert.Equal(t, "Acme Farm", again[0].Seller.Name)
}
