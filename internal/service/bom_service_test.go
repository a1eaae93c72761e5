package service_test

import (
	"context"
	"testing"

	"factorylink/internal/dto"
	"factorylink/internal/model"
	"factorylink/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bomFixture struct {
	svc       service.BOMService
	materials *stubMaterialRepo
	boms      *stubBOMRepo
	products  *stubProductRepo
}

func newBOMFixture() *bomFixture {
	materials := newStubMaterialRepo()
	boms := newStubBOMRepo(materials)
	products := newStubProductRepo()
	return &bomFixture{
		svc:       service.NewBOMService(boms, products, materials),
		materials: materials,
		boms:      boms,
		products:  products,
	}
}

func (f *bomFixture) link(productID, materialID uuid.UUID, qpu string) {
	_ = f.boms.Upsert(context.Background(), &model.BOMEntry{ProductID: productID, MaterialID: materialID, QuantityPerUnit: dec(qpu)})
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func TestBOM_MaxProducibleFloorsPerMaterial(t *testing.T) {
	f := newBOMFixture()
	p := f.products.add("CHAIR", "100", 0, "")
	wood := f.materials.add("Wood", "10", nil)
	screws := f.materials.add("Screws", "100", nil)
	f.link(p.ID, wood.ID, "3")
	f.link(p.ID, screws.ID, "8")

	resp, err := f.svc.MaxProducible(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, resp.Configured)
	require.NotNil(t, resp.Quantity)
	assert.Equal(t, int64(3), *resp.Quantity)
	require.Len(t, resp.Details, 2)
	assert.Equal(t, int64(3), resp.Details[0].Producible)
	assert.Equal(t, int64(12), resp.Details[1].Producible)
}

func TestBOM_MaxProducibleZeroIsNotUnconfigured(t *testing.T) {
	f := newBOMFixture()
	empty := f.products.add("EMPTY", "10", 0, "")
	starved := f.products.add("STARVED", "10", 0, "")
	m := f.materials.add("Wood", "2", nil)
	f.link(starved.ID, m.ID, "3")

	unconfigured, err := f.svc.MaxProducible(context.Background(), empty.ID)
	require.NoError(t, err)
	assert.False(t, unconfigured.Configured)
	assert.Nil(t, unconfigured.Quantity)

	zero, err := f.svc.MaxProducible(context.Background(), starved.ID)
	require.NoError(t, err)
	assert.True(t, zero.Configured)
	require.NotNil(t, zero.Quantity)
	assert.Equal(t, int64(0), *zero.Quantity)
}

func TestBOM_CostAndProfitRate(t *testing.T) {
	f := newBOMFixture()
	p := f.products.add("TABLE", "300", 0, "")
	wood := f.materials.add("Wood", "0", ptr(dec("12.50")))
	paint := f.materials.add("Paint", "0", ptr(dec("7")))
	unpriced := f.materials.add("Scrap", "0", nil)
	f.link(p.ID, wood.ID, "6")
	f.link(p.ID, paint.ID, "1.5")
	f.link(p.ID, unpriced.ID, "4")

	resp, err := f.svc.Cost(context.Background(), p.ID)
	require.NoError(t, err)
	// 6×12.50 + 1.5×7 + 4×0 = 85.5
	assert.True(t, resp.ManufacturingCost.Equal(dec("85.5")), resp.ManufacturingCost.String())
	assert.True(t, resp.GrossProfit.Equal(dec("214.5")))
	// 214.5 / 300 × 100 = 71.5
	assert.True(t, resp.GrossProfitRate.Equal(dec("71.5")), resp.GrossProfitRate.String())
	assert.Len(t, resp.Lines, 3)
}

func TestBOM_CostRateRoundsToOneDecimal(t *testing.T) {
	f := newBOMFixture()
	p := f.products.add("STOOL", "30", 0, "")
	m := f.materials.add("Wood", "0", ptr(dec("10")))
	f.link(p.ID, m.ID, "1")

	resp, err := f.svc.Cost(context.Background(), p.ID)
	require.NoError(t, err)
	// 20 / 30 × 100 = 66.666…
	assert.Equal(t, "66.7", resp.GrossProfitRate.String())
}

func TestBOM_CostZeroPrice(t *testing.T) {
	f := newBOMFixture()
	p := f.products.add("FREEBIE", "0", 0, "")
	m := f.materials.add("Wood", "0", ptr(dec("10")))
	f.link(p.ID, m.ID, "1")

	resp, err := f.svc.Cost(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, resp.GrossProfitRate.IsZero())
	assert.True(t, resp.GrossProfit.Equal(dec("-10")))
}

func TestBOM_SetEntryUpserts(t *testing.T) {
	f := newBOMFixture()
	p := f.products.add("CHAIR", "100", 0, "")
	m := f.materials.add("Wood", "10", nil)
	ctx := context.Background()

	first, err := f.svc.SetEntry(ctx, p.ID, dto.SetBOMEntryRequest{MaterialID: m.ID.String(), QuantityPerUnit: dec("2")})
	require.NoError(t, err)
	second, err := f.svc.SetEntry(ctx, p.ID, dto.SetBOMEntryRequest{MaterialID: m.ID.String(), QuantityPerUnit: dec("5")})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, f.boms.entries, 1)
	assert.True(t, f.boms.entries[0].QuantityPerUnit.Equal(dec("5")))
	assert.Equal(t, "Wood", second.MaterialName)
}

func TestBOM_SetEntryValidation(t *testing.T) {
	f := newBOMFixture()
	p := f.products.add("CHAIR", "100", 0, "")
	m := f.materials.add("Wood", "10", nil)
	ctx := context.Background()

	_, err := f.svc.SetEntry(ctx, p.ID, dto.SetBOMEntryRequest{MaterialID: m.ID.String(), QuantityPerUnit: dec("0")})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.svc.SetEntry(ctx, p.ID, dto.SetBOMEntryRequest{MaterialID: m.ID.String(), QuantityPerUnit: dec("0.00015")})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = f.svc.SetEntry(ctx, p.ID, dto.SetBOMEntryRequest{MaterialID: uuid.NewString(), QuantityPerUnit: dec("1")})
	assert.True(t, service.IsMaterialNotFound(err))

	_, err = f.svc.SetEntry(ctx, uuid.New(), dto.SetBOMEntryRequest{MaterialID: m.ID.String(), QuantityPerUnit: dec("1")})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestBOM_RemoveEntry(t *testing.T) {
	f := newBOMFixture()
	p := f.products.add("CHAIR", "100", 0, "")
	m := f.materials.add("Wood", "10", nil)
	f.link(p.ID, m.ID, "1")

	require.NoError(t, f.svc.RemoveEntry(context.Background(), f.boms.entries[0].ID))
	assert.Empty(t, f.boms.entries)
	assert.ErrorIs(t, f.svc.RemoveEntry(context.Background(), uuid.New()), service.ErrNotFound)
}
