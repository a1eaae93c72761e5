package service

import (
	"context"
	"errors"
	"time"

	"factorylink/internal/dto"
	"factorylink/internal/infra"
	"factorylink/internal/model"
	"factorylink/internal/repository"
	"factorylink/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderService interface {
	Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
	// SetStatus moves the order forward and applies the stock side effects of
	// the target status in one transaction. External sync and notification
	// happen after commit and never fail the call.
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*dto.OrderResponse, error)
}

// SyncFailureRecorder keeps failed external pushes for later replay.
type SyncFailureRecorder interface {
	RecordSyncFailure(ctx context.Context, f worker.SyncFailure, cause error)
}

type OrderOptions struct {
	AllocateOnManufacturing bool
	StrictProgression       bool
	Retries                 int
}

type orderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	customers repository.CustomerRepository
	allocator AllocatorService
	sync      InventorySyncService
	notifier  infra.Notifier
	failures  SyncFailureRecorder
	opts      OrderOptions
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	customers repository.CustomerRepository,
	allocator AllocatorService,
	sync InventorySyncService,
	notifier infra.Notifier,
	failures SyncFailureRecorder,
	opts OrderOptions,
) OrderService {
	return &orderService{
		orders:    orders,
		products:  products,
		customers: customers,
		allocator: allocator,
		sync:      sync,
		notifier:  notifier,
		failures:  failures,
		opts:      opts,
	}
}

// pendingDelta is a finished-goods movement to mirror externally after commit.
type pendingDelta struct {
	productID uuid.UUID
	delta     int
}

func (s *orderService) Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	shopID, err := uuid.Parse(req.ShopID)
	if err != nil {
		return nil, validationf("invalid shop_id")
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, validationf("invalid customer_id")
	}
	if len(req.Items) == 0 {
		return nil, validationf("order needs at least one item")
	}
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, notFound(err, "customer", customerID)
	}

	order := model.Order{
		ShopID:      shopID,
		CustomerID:  customerID,
		Status:      model.OrderStatusNew,
		Notes:       req.Notes,
		TotalAmount: decimal.Zero,
		OrderedAt:   time.Now(),
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, validationf("item quantity must be greater than zero")
		}
		productID, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, validationf("invalid product_id %q", it.ProductID)
		}
		p, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return nil, notFound(err, "product", productID)
		}
		if !p.Active {
			return nil, validationf("product %s is not active", p.SKU)
		}
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		order.TotalAmount = order.TotalAmount.Add(subtotal)
		order.Items = append(order.Items, model.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			SKU:         p.SKU,
			Quantity:    it.Quantity,
			UnitPrice:   p.Price,
			Subtotal:    subtotal,
		})
	}

	err = runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		number, err := s.orders.NextOrderNumberTx(tx)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		return s.orders.CreateTx(tx, &order)
	})
	if err != nil {
		return nil, err
	}

	order.Customer = customer
	log.Info().Str("order_number", order.OrderNumber).Str("total", order.TotalAmount.String()).
		Int("lines", len(order.Items)).Msg("order created")
	return orderToResponse(&order), nil
}

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return orderToResponse(o), nil
}

func (s *orderService) List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	if filter.Status != "" {
		if _, ok := model.OrderStatusRank(filter.Status); !ok {
			return nil, validationf("unknown status %q", filter.Status)
		}
	}
	filter.Page, filter.Limit = repository.NormalizePage(filter.Page, filter.Limit, repository.DefaultPageSize, repository.MaxPageSize)
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.OrderListResponse{
		Data:  make([]dto.OrderResponse, 0, len(orders)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range orders {
		resp.Data = append(resp.Data, *orderToResponse(&orders[i]))
	}
	return resp, nil
}

// checkTransition enforces forward-only movement; strict mode also forbids skipping.
func (s *orderService) checkTransition(from, to string) error {
	fromRank, ok := model.OrderStatusRank(from)
	if !ok {
		return &TransitionError{From: from, To: to}
	}
	toRank, _ := model.OrderStatusRank(to)
	if toRank < fromRank {
		return &TransitionError{From: from, To: to}
	}
	if s.opts.StrictProgression && toRank != fromRank+1 {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

func (s *orderService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*dto.OrderResponse, error) {
	if _, ok := model.OrderStatusRank(status); !ok {
		return nil, validationf("unknown status %q", status)
	}

	var (
		order   *model.Order
		from    string
		changed bool
		deltas  []pendingDelta
	)
	err := withStockRetry(ctx, s.opts.Retries, func() error {
		changed, deltas = false, nil
		return runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
			o, err := s.orders.FindByIDForUpdateTx(tx, id)
			if err != nil {
				return notFound(err, "order", id)
			}
			order, from = o, o.Status
			if o.Status == status {
				return nil
			}
			if err := s.checkTransition(o.Status, status); err != nil {
				return err
			}

			if s.opts.AllocateOnManufacturing && entersManufacturing(o.Status, status) {
				if err := s.allocateLines(tx, o); err != nil {
					return err
				}
			}

			var shippedAt *time.Time
			if status == model.OrderStatusShipped && o.ShippedAt == nil {
				now := time.Now()
				shippedAt = &now
			}
			if err := s.orders.UpdateStatusTx(tx, o.ID, status, shippedAt); err != nil {
				return err
			}
			o.Status = status
			if shippedAt != nil {
				o.ShippedAt = shippedAt
			}
			changed = true

			switch status {
			case model.OrderStatusCompleted:
				deltas = s.applyFinishedGoods(tx, o, 1)
			case model.OrderStatusShipped:
				deltas = s.applyFinishedGoods(tx, o, -1)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return orderToResponse(order), nil
	}

	log.Info().
		Str("order_number", order.OrderNumber).
		Str("from", from).
		Str("to", status).
		Msg("order status changed")

	// Post-commit work must survive the caller hanging up.
	bg := context.WithoutCancel(ctx)
	s.pushDeltas(bg, order, deltas)
	s.notify(bg, order)

	return orderToResponse(order), nil
}

// entersManufacturing reports whether moving from one status to another
// reaches or passes manufacturing for the first time. A skip straight from new
// to completed or shipped still consumes materials.
func entersManufacturing(from, to string) bool {
	mfg, _ := model.OrderStatusRank(model.OrderStatusManufacturing)
	fromRank, _ := model.OrderStatusRank(from)
	toRank, _ := model.OrderStatusRank(to)
	return fromRank < mfg && toRank >= mfg
}

// allocateLines debits BOM materials for every line. Lines whose product has
// no BOM are skipped; any shortfall aborts the whole transition.
func (s *orderService) allocateLines(tx *gorm.DB, o *model.Order) error {
	for _, it := range o.Items {
		_, err := s.allocator.AllocateTx(tx, it.ProductID, it.Quantity, &o.ID)
		if errors.Is(err, ErrBOMNotConfigured) {
			log.Warn().Str("order_number", o.OrderNumber).Str("sku", it.SKU).
				Msg("order: product has no BOM, allocation skipped")
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// applyFinishedGoods moves the local product cache by sign×quantity for each
// line, each in its own savepoint. A failing line is logged and skipped.
func (s *orderService) applyFinishedGoods(tx *gorm.DB, o *model.Order, sign int) []pendingDelta {
	deltas := make([]pendingDelta, 0, len(o.Items))
	for _, it := range o.Items {
		delta := sign * it.Quantity
		err := runSavepoint(tx, func(sp *gorm.DB) error {
			before, after, err := s.products.AdjustInventoryTx(sp, it.ProductID, delta)
			if err != nil {
				return err
			}
			if before+delta < 0 {
				log.Warn().
					Str("order_number", o.OrderNumber).
					Str("sku", it.SKU).
					Int("before", before).
					Int("delta", delta).
					Int("after", after).
					Msg("order: finished-goods cache clamped at zero")
			}
			return nil
		})
		if err != nil {
			log.Error().Err(err).
				Str("order_number", o.OrderNumber).
				Str("product_id", it.ProductID.String()).
				Msg("order: finished-goods cache update failed for line")
		}
		deltas = append(deltas, pendingDelta{productID: it.ProductID, delta: delta})
	}
	return deltas
}

func (s *orderService) pushDeltas(ctx context.Context, o *model.Order, deltas []pendingDelta) {
	if s.sync == nil {
		return
	}
	for _, d := range deltas {
		err := s.sync.Push(ctx, d.productID, d.delta)
		if err == nil {
			continue
		}
		log.Error().Err(err).
			Str("order_number", o.OrderNumber).
			Str("product_id", d.productID.String()).
			Int("delta", d.delta).
			Msg("order: external inventory push failed")
		if s.failures != nil {
			s.failures.RecordSyncFailure(ctx, worker.SyncFailure{
				ProductID: d.productID.String(),
				OrderID:   o.ID.String(),
				Delta:     d.delta,
			}, err)
		}
	}
}

func (s *orderService) notify(ctx context.Context, o *model.Order) {
	if s.notifier == nil {
		return
	}
	msg := infra.Notification{
		OrderID:     o.ID.String(),
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
	}
	if o.Customer != nil {
		msg.CustomerName = o.Customer.Name
		if o.Customer.Email != nil {
			msg.CustomerEmail = *o.Customer.Email
		}
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		log.Error().Err(err).Str("order_number", o.OrderNumber).Msg("order: notification failed")
	}
}
