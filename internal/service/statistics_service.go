package service

import (
	"context"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

const topBalancesLimit = 5

type StatisticsService interface {
	// GetStatistics summarizes the inclusive date range [startDate, endDate] (YYYY-MM-DD).
	// An empty start defaults to the first of the current month, an empty end to today.
	GetStatistics(ctx context.Context, startDate, endDate string) (model.DashboardStatistics, error)
}

type statisticsService struct {
	statsRepo repository.StatisticsRepository
	now       func() time.Time
}

func NewStatisticsService(statsRepo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{statsRepo: statsRepo, now: time.Now}
}

func (s *statisticsService) dateRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if t, err := parseOptionalDate("start_date", startRaw); err != nil {
		return start, end, err
	} else if t != nil {
		start = *t
	}
	if t, err := parseOptionalDate("end_date", endRaw); err != nil {
		return start, end, err
	} else if t != nil {
		end = *t
	}
	if end.Before(start) {
		return start, end, invalidf("end_date %s is before start_date %s", end.Format(model.DateLayout), start.Format(model.DateLayout))
	}
	return start, end, nil
}

// GetStatistics aggregates sales, collections and open balances for the dashboard
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate string) (model.DashboardStatistics, error) {
	start, end, err := s.dateRange(startDate, endDate)
	if err != nil {
		return model.DashboardStatistics{}, err
	}
	stats := model.DashboardStatistics{
		StartDate: start.Format(model.DateLayout),
		EndDate:   end.Format(model.DateLayout),
	}
	// half-open upper bound so the end date itself is included
	until := end.AddDate(0, 0, 1)

	byType, err := s.statsRepo.InvoiceTotals(ctx, start, until)
	if err != nil {
		return stats, err
	}
	stats.ByInvoiceType = byType
	for _, t := range byType {
		stats.InvoiceCount += t.Count
		stats.TotalInvoiced = stats.TotalInvoiced.Add(t.Total)
	}

	stats.ReceiptCount, stats.TotalCollected, err = s.statsRepo.Collections(ctx, start, until)
	if err != nil {
		return stats, err
	}

	stats.TotalReceivable, stats.TotalApplied, err = s.statsRepo.Receivables(ctx)
	if err != nil {
		return stats, err
	}
	stats.Outstanding = stats.TotalReceivable.Sub(stats.TotalApplied)

	stats.TopBalances, err = s.statsRepo.TopBalances(ctx, topBalancesLimit)
	if err != nil {
		return stats, err
	}
	return stats, nil
}
