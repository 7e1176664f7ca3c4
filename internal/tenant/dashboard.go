package tenant

import (
	"context"
	"time"

	"apmc-backend/internal/billing"
	"apmc-backend/internal/models"
)

type DashboardStats struct {
	TotalFarmers       int64 `json:"total_farmers"`
	TotalBuyers        int64 `json:"total_buyers"`
	ActiveLots         int64 `json:"active_lots"`
	CompletedLotsToday int64 `json:"completed_lots_today"`
	BagsCreatedToday   int64 `json:"bags_created_today"`
}

// GetDashboardStats counts rows for the tenant; "today" is now's calendar day.
func (s *Store) GetDashboardStats(ctx context.Context, now time.Time) (*DashboardStats, error) {
	day := billing.DayRange(now)
	var st DashboardStats

	if err := s.table(ctx, "farmers").Count(&st.TotalFarmers).Error; err != nil {
		return nil, err
	}
	if err := s.table(ctx, "buyers").Count(&st.TotalBuyers).Error; err != nil {
		return nil, err
	}
	if err := s.table(ctx, "lots").Where("status = ?", models.LotStatusActive).Count(&st.ActiveLots).Error; err != nil {
		return nil, err
	}
	if err := s.table(ctx, "lots").
		Where("status = ? AND completed_at >= ? AND completed_at < ?", models.LotStatusCompleted, day.Start, day.Until()).
		Count(&st.CompletedLotsToday).Error; err != nil {
		return nil, err
	}
	if err := s.table(ctx, "bags").
		Where("created_at >= ? AND created_at < ?", day.Start, day.Until()).
		Count(&st.BagsCreatedToday).Error; err != nil {
		return nil, err
	}
	return &st, nil
}
