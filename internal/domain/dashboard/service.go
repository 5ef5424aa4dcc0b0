package dashboard

import (
	"context"
	"fmt"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

const RecentLimit = 5

// Totals are the aggregate counters behind the admin dashboard.
type Totals struct {
	Properties   int             `db:"properties"`
	Revenue      decimal.Decimal `db:"revenue"`
	Transactions int             `db:"transactions"`
	Landlords    int             `db:"landlords"`
	Tenants      int             `db:"tenants"`
}

type StatsRepository interface {
	Totals(ctx context.Context) (*Totals, error)
	RecentProperties(ctx context.Context, limit int) ([]api.RecentProperty, error)
}

type ServiceInterface interface {
	Stats(ctx context.Context) (*api.DashboardStats, error)
}

type Service struct {
	repo StatsRepository
}

func NewService(repo StatsRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Stats(ctx context.Context) (*api.DashboardStats, error) {
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load totals: %w", err)
	}

	recent, err := s.repo.RecentProperties(ctx, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent properties: %w", err)
	}
	if recent == nil {
		recent = []api.RecentProperty{}
	}

	return &api.DashboardStats{
		TotalProperties:   totals.Properties,
		TotalRevenue:      pricing.FormatDecimal(totals.Revenue),
		TotalTransactions: totals.Transactions,
		Landlords:         totals.Landlords,
		Tenants:           totals.Tenants,
		RecentProperties:  recent,
	}, nil
}
