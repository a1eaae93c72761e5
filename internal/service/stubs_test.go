package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"factorylink/internal/dto"
	"factorylink/internal/infra"
	"factorylink/internal/model"
	"factorylink/internal/repository"
	"factorylink/internal/worker"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ── Materials ─────────────────────────────────────────────────────────────────

type stubMaterialRepo struct {
	items     map[uuid.UUID]*model.Material
	bomRefs   map[uuid.UUID]int64
	poRefs    map[uuid.UUID]int64
	conflicts int // FindByIDForUpdateTx fails with a deadlock this many times

	updates      []map[string]interface{}
	beforeUpdate func()
}

func newStubMaterialRepo() *stubMaterialRepo {
	return &stubMaterialRepo{
		items:   make(map[uuid.UUID]*model.Material),
		bomRefs: make(map[uuid.UUID]int64),
		poRefs:  make(map[uuid.UUID]int64),
	}
}

// add seeds a material directly, bypassing the ledger.
func (r *stubMaterialRepo) add(name string, stock string, price *decimal.Decimal) *model.Material {
	m := &model.Material{ID: uuid.New(), Name: name, Unit: "kg", CurrentStock: dec(stock), UnitPrice: price}
	r.items[m.ID] = m
	return m
}

func (r *stubMaterialRepo) Create(_ context.Context, m *model.Material) error { return r.CreateTx(nil, m) }

func (r *stubMaterialRepo) CreateTx(_ *gorm.DB, m *model.Material) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CurrentStock = decimal.Zero
	cp := *m
	r.items[m.ID] = &cp
	return nil
}

func (r *stubMaterialRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Material, error) {
	m, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *stubMaterialRepo) List(_ context.Context, _ dto.MaterialFilter) ([]model.Material, int64, error) {
	var out []model.Material
	for _, m := range r.items {
		out = append(out, *m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMaterialRepo) ListLowStock(_ context.Context, _ *uuid.UUID) ([]model.Material, error) {
	var out []model.Material
	for _, m := range r.items {
		if m.BelowSafetyStock() {
			out = append(out, *m)
		}
	}
	return out, nil
}

// Update applies column writes the way Updates(map) does; beforeUpdate lets a
// test interleave a concurrent writer between the service's read and write.
func (r *stubMaterialRepo) Update(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if r.beforeUpdate != nil {
		r.beforeUpdate()
	}
	m, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.updates = append(r.updates, fields)
	for col, v := range fields {
		switch col {
		case "name":
			m.Name = v.(string)
		case "code":
			code := v.(string)
			m.Code = &code
		case "unit":
			m.Unit = v.(string)
		case "safety_stock":
			m.SafetyStock = v.(decimal.Decimal)
		case "unit_price":
			price := v.(decimal.Decimal)
			m.UnitPrice = &price
		default:
			return fmt.Errorf("stub: unexpected column %q", col)
		}
	}
	return nil
}

func (r *stubMaterialRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

func (r *stubMaterialRepo) CountReferences(_ context.Context, id uuid.UUID) (int64, int64, error) {
	return r.bomRefs[id], r.poRefs[id], nil
}

func (r *stubMaterialRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Material, error) {
	if r.conflicts > 0 {
		r.conflicts--
		return nil, &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
	}
	return r.FindByID(context.Background(), id)
}

func (r *stubMaterialRepo) FindByIDsForUpdateTx(_ *gorm.DB, ids []uuid.UUID) ([]model.Material, error) {
	var out []model.Material
	for _, id := range ids {
		if m, ok := r.items[id]; ok {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0 })
	return out, nil
}

func (r *stubMaterialRepo) UpdateUnitPriceTx(_ *gorm.DB, id uuid.UUID, price decimal.Decimal) error {
	m, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.UnitPrice = &price
	return nil
}

func (r *stubMaterialRepo) DB() *gorm.DB { return nil }

var _ repository.MaterialRepository = (*stubMaterialRepo)(nil)

// ── Ledger ────────────────────────────────────────────────────────────────────

// stubLedgerRepo mirrors the guarded UPDATE of the real repository and, like
// the numeric columns, stores every quantity rounded to model.QuantityScale.
type stubLedgerRepo struct {
	materials *stubMaterialRepo
	entries   []model.MaterialTransaction
}

func newStubLedgerRepo(materials *stubMaterialRepo) *stubLedgerRepo {
	return &stubLedgerRepo{materials: materials}
}

func (r *stubLedgerRepo) AppendTx(_ *gorm.DB, t *model.MaterialTransaction) error {
	m, ok := r.materials.items[t.MaterialID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	next := m.CurrentStock.Add(t.Signed())
	if next.IsNegative() {
		return repository.ErrNegativeStock
	}
	m.CurrentStock = next.Round(model.QuantityScale)
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	stored := *t
	stored.Quantity = t.Quantity.Round(model.QuantityScale)
	stored.StockBefore = t.StockBefore.Round(model.QuantityScale)
	stored.StockAfter = t.StockAfter.Round(model.QuantityScale)
	r.entries = append(r.entries, stored)
	return nil
}

func (r *stubLedgerRepo) List(_ context.Context, materialID uuid.UUID, _ dto.TransactionFilter) ([]model.MaterialTransaction, int64, error) {
	var out []model.MaterialTransaction
	for _, e := range r.entries {
		if e.MaterialID == materialID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubLedgerRepo) Totals(_ context.Context, materialID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	in, out := decimal.Zero, decimal.Zero
	for _, e := range r.entries {
		if e.MaterialID != materialID {
			continue
		}
		if e.Type == model.TransactionIn {
			in = in.Add(e.Quantity)
		} else {
			out = out.Add(e.Quantity)
		}
	}
	return in, out, nil
}

func (r *stubLedgerRepo) forMaterial(id uuid.UUID) []model.MaterialTransaction {
	out, _, _ := r.List(context.Background(), id, dto.TransactionFilter{})
	return out
}

var _ repository.LedgerRepository = (*stubLedgerRepo)(nil)

// ── BOM ───────────────────────────────────────────────────────────────────────

type stubBOMRepo struct {
	materials *stubMaterialRepo
	entries   []model.BOMEntry
}

func newStubBOMRepo(materials *stubMaterialRepo) *stubBOMRepo {
	return &stubBOMRepo{materials: materials}
}

func (r *stubBOMRepo) Upsert(_ context.Context, e *model.BOMEntry) error {
	for i := range r.entries {
		if r.entries[i].ProductID == e.ProductID && r.entries[i].MaterialID == e.MaterialID {
			r.entries[i].QuantityPerUnit = e.QuantityPerUnit
			e.ID = r.entries[i].ID
			return nil
		}
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.entries = append(r.entries, model.BOMEntry{ID: e.ID, ProductID: e.ProductID, MaterialID: e.MaterialID, QuantityPerUnit: e.QuantityPerUnit})
	return nil
}

func (r *stubBOMRepo) FindByID(_ context.Context, id uuid.UUID) (*model.BOMEntry, error) {
	for i := range r.entries {
		if r.entries[i].ID == id {
			e := r.entries[i]
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubBOMRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubBOMRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]model.BOMEntry, error) {
	return r.ListByProductTx(nil, productID)
}

func (r *stubBOMRepo) ListByProductTx(_ *gorm.DB, productID uuid.UUID) ([]model.BOMEntry, error) {
	var out []model.BOMEntry
	for _, e := range r.entries {
		if e.ProductID != productID {
			continue
		}
		if m, ok := r.materials.items[e.MaterialID]; ok {
			cp := *m
			e.Material = &cp
		}
		out = append(out, e)
	}
	return out, nil
}

var _ repository.BOMRepository = (*stubBOMRepo)(nil)

// ── Products ──────────────────────────────────────────────────────────────────

type stubProductRepo struct {
	items    map[uuid.UUID]*model.Product
	failFor  map[uuid.UUID]error // AdjustInventoryTx fails for these ids
	adjusted []uuid.UUID
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{items: make(map[uuid.UUID]*model.Product), failFor: make(map[uuid.UUID]error)}
}

func (r *stubProductRepo) add(sku string, price string, qty int, externalID string) *model.Product {
	p := &model.Product{ID: uuid.New(), Name: "Product " + sku, SKU: sku, Price: dec(price), InventoryQuantity: qty, Active: true}
	if externalID != "" {
		p.ExternalInventoryItemID = &externalID
	}
	r.items[p.ID] = p
	return p
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.items[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.items[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.items {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) ListMapped(_ context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.items {
		if p.ExternalInventoryItemID != nil {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (r *stubProductRepo) SetInventory(_ context.Context, id uuid.UUID, qty int) error {
	p, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.InventoryQuantity = qty
	return nil
}

func (r *stubProductRepo) AdjustInventoryTx(_ *gorm.DB, id uuid.UUID, delta int) (int, int, error) {
	if err := r.failFor[id]; err != nil {
		return 0, 0, err
	}
	p, ok := r.items[id]
	if !ok {
		return 0, 0, gorm.ErrRecordNotFound
	}
	before := p.InventoryQuantity
	after := before + delta
	if after < 0 {
		after = 0
	}
	p.InventoryQuantity = after
	r.adjusted = append(r.adjusted, id)
	return before, after, nil
}

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// ── Orders ────────────────────────────────────────────────────────────────────

type stubOrderRepo struct {
	items       map[uuid.UUID]*model.Order
	customers   *stubCustomerRepo
	seq         int
	statusCalls int
}

func newStubOrderRepo(customers *stubCustomerRepo) *stubOrderRepo {
	return &stubOrderRepo{items: make(map[uuid.UUID]*model.Order), customers: customers}
}

func (r *stubOrderRepo) CreateTx(_ *gorm.DB, o *model.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	r.items[o.ID] = &cp
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) List(_ context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.items {
		if filter.Status == "" || o.Status == filter.Status {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) NextOrderNumberTx(_ *gorm.DB) (string, error) {
	r.seq++
	return fmt.Sprintf("ORD-%08d", r.seq), nil
}

func (r *stubOrderRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Order, error) {
	o, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	if c, ok := r.customers.items[o.CustomerID]; ok {
		cc := *c
		cp.Customer = &cc
	}
	return &cp, nil
}

func (r *stubOrderRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string, shippedAt *time.Time) error {
	o, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.statusCalls++
	o.Status = status
	if shippedAt != nil {
		t := *shippedAt
		o.ShippedAt = &t
	}
	return nil
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

// seed stores an order with one line per (product, qty) pair.
func (r *stubOrderRepo) seed(customerID uuid.UUID, status string, lines ...model.OrderItem) *model.Order {
	r.seq++
	o := &model.Order{
		ID:          uuid.New(),
		CustomerID:  customerID,
		OrderNumber: fmt.Sprintf("ORD-%08d", r.seq),
		Status:      status,
		OrderedAt:   time.Now(),
		Items:       lines,
	}
	r.items[o.ID] = o
	return o
}

var _ repository.OrderRepository = (*stubOrderRepo)(nil)

// ── Customers / suppliers ─────────────────────────────────────────────────────

type stubCustomerRepo struct{ items map[uuid.UUID]*model.Customer }

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{items: make(map[uuid.UUID]*model.Customer)}
}

func (r *stubCustomerRepo) add(name string) *model.Customer {
	email := "buyer@example.com"
	c := &model.Customer{ID: uuid.New(), Name: name, Email: &email}
	r.items[c.ID] = c
	return c
}

func (r *stubCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.items[c.ID] = c
	return nil
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCustomerRepo) List(_ context.Context, _ string) ([]model.Customer, error) {
	var out []model.Customer
	for _, c := range r.items {
		out = append(out, *c)
	}
	return out, nil
}

var _ repository.CustomerRepository = (*stubCustomerRepo)(nil)

type stubSupplierRepo struct{ items map[uuid.UUID]*model.Supplier }

func newStubSupplierRepo() *stubSupplierRepo {
	return &stubSupplierRepo{items: make(map[uuid.UUID]*model.Supplier)}
}

func (r *stubSupplierRepo) Create(_ context.Context, s *model.Supplier) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.items[s.ID] = s
	return nil
}

func (r *stubSupplierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	s, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSupplierRepo) List(_ context.Context, _ string) ([]model.Supplier, error) {
	var out []model.Supplier
	for _, s := range r.items {
		out = append(out, *s)
	}
	return out, nil
}

var _ repository.SupplierRepository = (*stubSupplierRepo)(nil)

// ── Purchase orders / price history ──────────────────────────────────────────

type stubPORepo struct {
	items map[uuid.UUID]*model.PurchaseOrder
	seq   int
}

func newStubPORepo() *stubPORepo { return &stubPORepo{items: make(map[uuid.UUID]*model.PurchaseOrder)} }

func (r *stubPORepo) CreateTx(_ *gorm.DB, po *model.PurchaseOrder) error {
	if po.ID == uuid.Nil {
		po.ID = uuid.New()
	}
	cp := *po
	r.items[po.ID] = &cp
	return nil
}

func (r *stubPORepo) FindByID(_ context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	po, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *po
	return &cp, nil
}

func (r *stubPORepo) NextPONumberTx(_ *gorm.DB) (string, error) {
	r.seq++
	return fmt.Sprintf("PO-%08d", r.seq), nil
}

func (r *stubPORepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubPORepo) UpdateStatusTx(_ *gorm.DB, po *model.PurchaseOrder) error {
	stored, ok := r.items[po.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = po.Status
	stored.OrderedAt = po.OrderedAt
	stored.ReceivedAt = po.ReceivedAt
	return nil
}

func (r *stubPORepo) DB() *gorm.DB { return nil }

var _ repository.PurchaseOrderRepository = (*stubPORepo)(nil)

type stubPriceHistoryRepo struct{ rows []model.MaterialPriceHistory }

func (r *stubPriceHistoryRepo) CreateTx(_ *gorm.DB, h *model.MaterialPriceHistory) error {
	h.ID = uuid.New()
	h.CreatedAt = time.Now()
	r.rows = append(r.rows, *h)
	return nil
}

func (r *stubPriceHistoryRepo) ListByMaterial(_ context.Context, materialID uuid.UUID, _ int) ([]model.MaterialPriceHistory, error) {
	var out []model.MaterialPriceHistory
	for _, h := range r.rows {
		if h.MaterialID == materialID {
			out = append(out, h)
		}
	}
	return out, nil
}

var _ repository.PriceHistoryRepository = (*stubPriceHistoryRepo)(nil)

// ── External collaborators ────────────────────────────────────────────────────

type adjustCall struct {
	itemID string
	delta  int
}

// fakeInventory is an in-memory commerce platform.
type fakeInventory struct {
	quantities map[string]int
	adjusts    []adjustCall
	reads      int
	err        error
}

func newFakeInventory() *fakeInventory { return &fakeInventory{quantities: make(map[string]int)} }

func (f *fakeInventory) GetQuantity(_ context.Context, itemID string) (int, error) {
	f.reads++
	if f.err != nil {
		return 0, f.err
	}
	return f.quantities[itemID], nil
}

func (f *fakeInventory) AdjustQuantity(_ context.Context, itemID string, delta int) error {
	if f.err != nil {
		return f.err
	}
	f.adjusts = append(f.adjusts, adjustCall{itemID, delta})
	f.quantities[itemID] += delta
	return nil
}

type recordingNotifier struct {
	sent []infra.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg infra.Notification) error {
	n.sent = append(n.sent, msg)
	return n.err
}

type recordingFailures struct{ failures []worker.SyncFailure }

func (r *recordingFailures) RecordSyncFailure(_ context.Context, f worker.SyncFailure, _ error) {
	r.failures = append(r.failures, f)
}

var errUnavailable = fmt.Errorf("commerce: adjust returned 503: %w", infra.ErrExternalUnavailable)

var errLineBroken = errors.New("line broken")
