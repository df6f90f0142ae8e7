package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/pkg/types"
)

var ErrNotFound = errors.New("transaction not found")

// FilterFields are the columns transaction listing may filter and sort on.
var FilterFields = []string{"id", "user_id", "order_id", "amount", "type", "status", "trace_no", "rrn", "finished_at", "created_at", "updated_at"}

const (
	defaultPageSize = 10
	maxPageSize     = 200
)

type ScanTransactionsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanTransactionsResponse struct {
	Items []*models.Transaction `json:"items"`
	Total int64                 `json:"total"`
}

type Service struct {
	log *zap.SugaredLogger
	db  *gorm.DB
}

func NewService(log *zap.SugaredLogger, db *gorm.DB) *Service {
	return &Service{log: log, db: db}
}

// normalize validates the request against FilterFields and applies paging defaults.
func (r *ScanTransactionsRequest) normalize() error {
	if err := types.ValidateFilters(r.Filters, FilterFields); err != nil {
		return err
	}
	if r.SortBy == "" {
		r.SortBy = "created_at"
	}
	if !lo.Contains(FilterFields, r.SortBy) {
		return fmt.Errorf("sort by %q is not allowed", r.SortBy)
	}
	if r.Size <= 0 || r.Size > maxPageSize {
		r.Size = defaultPageSize
	}
	if r.From < 0 {
		r.From = 0
	}
	return nil
}

// ForUser returns a copy of r restricted to the given owner.
func (r *ScanTransactionsRequest) ForUser(userID string) *ScanTransactionsRequest {
	out := *r
	out.Filters = append(lo.Filter(r.Filters, func(f *types.CommonFilter, _ int) bool {
		return f != nil && f.Field != "user_id"
	}), &types.CommonFilter{Field: "user_id", Operator: types.CommonFilterOperatorEq, Values: []any{userID}})
	return &out
}

// ScanTransactions implements paginated listing with filters
func (s *Service) ScanTransactions(ctx context.Context, req *ScanTransactionsRequest) (*ScanTransactionsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Model(&models.Transaction{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(req.Filters)}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	var rows []*models.Transaction
	q := tx.Limit(req.Size).Offset(req.From).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &ScanTransactionsResponse{Items: rows, Total: total}, nil
}

// GetTransaction returns a transaction with its payment and order. A
// non-empty userID restricts the lookup to that owner.
func (s *Service) GetTransaction(ctx context.Context, id, userID string) (*models.Transaction, error) {
	q := s.db.WithContext(ctx).Preload("Payment").Preload("Order").Where("id = ?", id)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var t models.Transaction
	if err := q.First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &t, nil
}
