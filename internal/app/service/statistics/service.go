package statistics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/pkg/types"
)

type StatisticType string

const (
	StatisticTypeTotalIncome                StatisticType = "total_income"
	StatisticTypeTodayIncome                StatisticType = "today_income"
	StatisticTypeMonthIncome                StatisticType = "month_income"
	StatisticTypeIncomeDiagram              StatisticType = "income_diagram"
	StatisticTypeSuccessfulTransactionCount StatisticType = "successful_transaction_count"
	StatisticTypePaidOrderCount             StatisticType = "paid_order_count"
)

type IncomeStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type IncomeStatisticRequest struct {
	DataItems []*IncomeStatisticDataItem `json:"data_items" binding:"required"`
	// Month and Year select the income_diagram period. Zero means the current one.
	Month int `json:"month"`
	Year  int `json:"year"`
}

type IncomeStatisticResponseDataItem struct {
	Date  string `json:"date,omitempty"`
	Day   int    `json:"day,omitempty"`
	Value int64  `json:"value"`
}

type IncomeStatisticResponse struct {
	DataItems map[StatisticType][]IncomeStatisticResponseDataItem `json:"data_items"`
}

// Service computes income figures over successful purchase transactions.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Service { return &Service{db: db, now: time.Now} }

// Validate checks data item ids and the diagram period.
func (r *IncomeStatisticRequest) Validate() error {
	if r == nil || len(r.DataItems) == 0 {
		return fmt.Errorf("data_items is required")
	}
	for _, di := range r.DataItems {
		if di == nil {
			return fmt.Errorf("nil data item")
		}
		switch di.ID {
		case StatisticTypeTotalIncome, StatisticTypeTodayIncome, StatisticTypeMonthIncome,
			StatisticTypeIncomeDiagram, StatisticTypeSuccessfulTransactionCount, StatisticTypePaidOrderCount:
		default:
			return fmt.Errorf("invalid data item id: %s", di.ID)
		}
	}
	if r.Month < 0 || r.Month > 12 {
		return fmt.Errorf("month must be between 1 and 12")
	}
	if r.Year < 0 || (r.Year > 0 && r.Year < 2000) {
		return fmt.Errorf("invalid year %d", r.Year)
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// diagramPeriod returns [from, to) for the requested month.
func (r *IncomeStatisticRequest) diagramPeriod(now time.Time) (time.Time, time.Time) {
	year, month := now.Year(), now.Month()
	if r.Year > 0 {
		year = r.Year
	}
	if r.Month > 0 {
		month = time.Month(r.Month)
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
	return from, from.AddDate(0, 1, 0)
}

func (s *Service) successful(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("status = ?", types.TransactionStatusSuccessful).
		Where("type = ?", types.TransactionTypePurchase)
}

func (s *Service) sumSince(ctx context.Context, from *time.Time) ([]IncomeStatisticResponseDataItem, error) {
	var value int64
	q := s.successful(ctx).Select("COALESCE(SUM(amount), 0)")
	if from != nil {
		q = q.Where("finished_at >= ?", *from)
	}
	if err := q.Scan(&value).Error; err != nil {
		return nil, err
	}
	return []IncomeStatisticResponseDataItem{{Value: value}}, nil
}

func (s *Service) getIncomeDiagram(ctx context.Context, request *IncomeStatisticRequest) ([]IncomeStatisticResponseDataItem, error) {
	from, to := request.diagramPeriod(s.now())
	var results []IncomeStatisticResponseDataItem
	q := s.successful(ctx).
		Select("TO_CHAR(DATE_TRUNC('day', finished_at), 'YYYY-MM-DD') as date, CAST(EXTRACT(day FROM finished_at) AS INTEGER) as day, SUM(amount) as value").
		Where("finished_at >= ? AND finished_at < ?", from, to).
		Group("TO_CHAR(DATE_TRUNC('day', finished_at), 'YYYY-MM-DD'), CAST(EXTRACT(day FROM finished_at) AS INTEGER)").
		Order("date")
	if err := q.Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getSuccessfulTransactionCount(ctx context.Context) ([]IncomeStatisticResponseDataItem, error) {
	var n int64
	if err := s.successful(ctx).Count(&n).Error; err != nil {
		return nil, err
	}
	return []IncomeStatisticResponseDataItem{{Value: n}}, nil
}

func (s *Service) getPaidOrderCount(ctx context.Context) ([]IncomeStatisticResponseDataItem, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Where("status = ?", types.OrderStatusPaid).Count(&n).Error; err != nil {
		return nil, err
	}
	return []IncomeStatisticResponseDataItem{{Value: n}}, nil
}

func (s *Service) getIncomeStatistic(ctx context.Context, request *IncomeStatisticRequest, dataItem *IncomeStatisticDataItem) ([]IncomeStatisticResponseDataItem, error) {
	now := s.now()
	switch dataItem.ID {
	case StatisticTypeTotalIncome:
		return s.sumSince(ctx, nil)
	case StatisticTypeTodayIncome:
		from := startOfDay(now)
		return s.sumSince(ctx, &from)
	case StatisticTypeMonthIncome:
		from := startOfMonth(now)
		return s.sumSince(ctx, &from)
	case StatisticTypeIncomeDiagram:
		return s.getIncomeDiagram(ctx, request)
	case StatisticTypeSuccessfulTransactionCount:
		return s.getSuccessfulTransactionCount(ctx)
	case StatisticTypePaidOrderCount:
		return s.getPaidOrderCount(ctx)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

// GetIncomeStatistic computes every requested data item concurrently.
func (s *Service) GetIncomeStatistic(ctx context.Context, request *IncomeStatisticRequest) (*IncomeStatisticResponse, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	var mu sync.Mutex
	results := make(map[StatisticType][]IncomeStatisticResponseDataItem, len(request.DataItems))

	g, gctx := errgroup.WithContext(ctx)
	for _, item := range request.DataItems {
		g.Go(func() error {
			res, err := s.getIncomeStatistic(gctx, request, item)
			if err != nil {
				return fmt.Errorf("%s: %w", item.ID, err)
			}
			if res == nil {
				res = []IncomeStatisticResponseDataItem{}
			}
			mu.Lock()
			results[item.ID] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &IncomeStatisticResponse{DataItems: results}, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
