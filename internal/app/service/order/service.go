package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/pkg/logctx"
	"github.com/fatflowers/checkout/pkg/types"
)

var (
	ErrNotFound                  = errors.New("order not found")
	ErrInvalidShippingTransition = errors.New("shipping status transition not allowed")
	ErrShippingOnUnpaidOrder     = errors.New("only paid orders can be shipped")
)

// FilterFields are the columns admin order listing may filter and sort on.
var FilterFields = []string{"id", "user_id", "status", "total_price", "final_price", "created_at", "updated_at"}

type ScanOrdersRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanOrdersResponse struct {
	Items []*models.Order `json:"items"`
	Total int64           `json:"total"`
}

type UpdateShippingInfoRequest struct {
	Status         types.ShippingStatus `json:"status" binding:"required"`
	TrackingNumber string               `json:"tracking_number"`
}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// ScanOrders lists orders with filters, pagination and sorting.
func (s *Service) ScanOrders(ctx context.Context, req *ScanOrdersRequest) (*ScanOrdersResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := types.ValidateFilters(req.Filters, FilterFields); err != nil {
		return nil, err
	}
	if req.SortBy != "" && !lo.Contains(FilterFields, req.SortBy) {
		return nil, fmt.Errorf("sort by %q is not allowed", req.SortBy)
	}
	if req.Size <= 0 || req.Size > 200 {
		req.Size = 20
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.Order{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(req.Filters)}})
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	sortBy := lo.Ternary(req.SortBy == "", "created_at", req.SortBy)
	var rows []*models.Order
	err := tx.Preload("ShippingInfo").
		Order(clause.OrderByColumn{Column: clause.Column{Name: sortBy}, Desc: req.SortOrder != "asc"}).
		Limit(req.Size).Offset(req.From).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return &ScanOrdersResponse{Items: rows, Total: total}, nil
}

// GetOrder returns an order with items and shipping info. A non-empty
// userID restricts the lookup to that owner.
func (s *Service) GetOrder(ctx context.Context, id, userID string) (*models.Order, error) {
	q := s.db.WithContext(ctx).Preload("Items").Preload("ShippingInfo").Where("id = ?", id)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var o models.Order
	if err := q.First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

// UpdateShippingInfo advances the shipping status of a paid order.
func (s *Service) UpdateShippingInfo(ctx context.Context, orderID string, req *UpdateShippingInfoRequest) (*models.ShippingInfo, error) {
	var out *models.ShippingInfo
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.Where("id = ?", orderID).First(&o).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if o.Status != types.OrderStatusPaid {
			return ErrShippingOnUnpaidOrder
		}
		var si models.ShippingInfo
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", o.ShippingInfoID).First(&si).Error; err != nil {
			return err
		}
		if err := applyShippingUpdate(&si, req); err != nil {
			return err
		}
		if err := tx.Save(&si).Error; err != nil {
			return err
		}
		out = &si
		return nil
	})
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("shipping_info_updated", "order_id", orderID, "status", out.Status)
	return out, nil
}

func applyShippingUpdate(si *models.ShippingInfo, req *UpdateShippingInfoRequest) error {
	if req == nil {
		return fmt.Errorf("nil request")
	}
	if !si.Status.CanTransition(req.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidShippingTransition, si.Status, req.Status)
	}
	si.Status = req.Status
	if req.TrackingNumber != "" {
		si.TrackingNumber = req.TrackingNumber
	}
	return nil
}
