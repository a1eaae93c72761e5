package service_test

import (
	"context"
	"net/http"
	"testing"

	"factorylink/internal/infra"
	"factorylink/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSync_PushAdjustsExternal(t *testing.T) {
	products := newStubProductRepo()
	external := newFakeInventory()
	p := products.add("CHAIR", "10", 0, "item-7")
	external.quantities["item-7"] = 10
	svc := service.NewInventorySyncService(products, external)

	require.NoError(t, svc.Push(context.Background(), p.ID, -4))
	assert.Equal(t, 6, external.quantities["item-7"])
	assert.Equal(t, 1, external.reads)
}

func TestSync_PushZeroDeltaDoesNothing(t *testing.T) {
	products := newStubProductRepo()
	external := newFakeInventory()
	p := products.add("CHAIR", "10", 0, "item-7")
	svc := service.NewInventorySyncService(products, external)

	require.NoError(t, svc.Push(context.Background(), p.ID, 0))
	assert.Zero(t, external.reads)
	assert.Empty(t, external.adjusts)
}

func TestSync_PushUnmapped(t *testing.T) {
	products := newStubProductRepo()
	external := newFakeInventory()
	p := products.add("LOCAL", "10", 0, "")
	svc := service.NewInventorySyncService(products, external)

	err := svc.Push(context.Background(), p.ID, 1)
	assert.ErrorIs(t, err, service.ErrProductNotMapped)
	assert.Zero(t, external.reads)

	err = svc.Push(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestSync_PushUnavailable(t *testing.T) {
	products := newStubProductRepo()
	external := newFakeInventory()
	external.err = errUnavailable
	p := products.add("CHAIR", "10", 0, "item-7")
	svc := service.NewInventorySyncService(products, external)

	err := svc.Push(context.Background(), p.ID, 1)
	assert.ErrorIs(t, err, service.ErrExternalSystemUnavailable)
}

func TestSync_StaleItemIDIsNotMapped(t *testing.T) {
	products := newStubProductRepo()
	external := newFakeInventory()
	external.err = &infra.CommerceStatusError{Op: "get quantity", StatusCode: http.StatusNotFound}
	p := products.add("CHAIR", "10", 3, "item-gone")
	svc := service.NewInventorySyncService(products, external)

	err := svc.Push(context.Background(), p.ID, 1)
	assert.ErrorIs(t, err, service.ErrProductNotMapped)
	assert.NotErrorIs(t, err, service.ErrExternalSystemUnavailable)

	_, err = svc.Reconcile(context.Background(), p.ID)
	assert.ErrorIs(t, err, service.ErrProductNotMapped)
}

func TestSync_ReconcileCorrectsDrift(t *testing.T) {
	products := newStubProductRepo()
	external := newFakeInventory()
	drifted := products.add("A", "10", 3, "item-a")
	inSync := products.add("B", "10", 8, "item-b")
	oversold := products.add("C", "10", 2, "item-c")
	external.quantities["item-a"] = 5
	external.quantities["item-b"] = 8
	external.quantities["item-c"] = -1
	svc := service.NewInventorySyncService(products, external)
	ctx := context.Background()

	r, err := svc.Reconcile(ctx, drifted.ID)
	require.NoError(t, err)
	assert.True(t, r.Corrected)
	assert.Equal(t, 3, r.LocalBefore)
	assert.Equal(t, 5, products.items[drifted.ID].InventoryQuantity)

	r, err = svc.Reconcile(ctx, inSync.ID)
	require.NoError(t, err)
	assert.False(t, r.Corrected)

	r, err = svc.Reconcile(ctx, oversold.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, r.ExternalValue)
	assert.Equal(t, 0, products.items[oversold.ID].InventoryQuantity, "local cache never goes negative")
}

func TestSync_ReconcileAllStopsWhenUnavailable(t *testing.T) {
	products := newStubProductRepo()
	external := newFakeInventory()
	products.add("A", "10", 3, "item-a")
	products.add("B", "10", 3, "item-b")
	products.add("LOCAL", "10", 3, "")
	external.err = errUnavailable
	svc := service.NewInventorySyncService(products, external)

	results, err := svc.ReconcileAll(context.Background())
	assert.ErrorIs(t, err, service.ErrExternalSystemUnavailable)
	assert.Empty(t, results)
	assert.Equal(t, 1, external.reads)
}

func TestSync_ReconcileAllSkipsOnlyMappedProducts(t *testing.T) {
	products := newStubProductRepo()
	external := newFakeInventory()
	products.add("A", "10", 1, "item-a")
	products.add("B", "10", 2, "item-b")
	products.add("LOCAL", "10", 3, "")
	external.quantities["item-a"] = 1
	external.quantities["item-b"] = 9
	svc := service.NewInventorySyncService(products, external)

	results, err := svc.ReconcileAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, results[0].Corrected)
	assert.True(t, results[1].Corrected)
}
