package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/summitcrm/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

type StageHistoryRepository struct {
	db *gorm.DB
}

func NewStageHistoryRepository(db *gorm.DB) *StageHistoryRepository {
	return &StageHistoryRepository{db: db}
}

// Create records a new stage transition
func (r *StageHistoryRepository) Create(ctx context.Context, history *domain.OpportunityStageHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

// CreateTx records a new stage transition inside an existing transaction
func (r *StageHistoryRepository) CreateTx(ctx context.Context, tx *gorm.DB, history *domain.OpportunityStageHistory) error {
	return tx.WithContext(ctx).Create(history).Error
}

// GetByOpportunityID returns all stage history for an opportunity, newest first
func (r *StageHistoryRepository) GetByOpportunityID(ctx context.Context, oppID uuid.UUID) ([]domain.OpportunityStageHistory, error) {
	var history []domain.OpportunityStageHistory
	err := r.db.WithContext(ctx).
		Where("opportunity_id = ?", oppID).
		Order("changed_at DESC").
		Find(&history).Error
	return history, err
}

// GetLatestByOpportunityID returns the most recent stage change for an opportunity
func (r *StageHistoryRepository) GetLatestByOpportunityID(ctx context.Context, oppID uuid.UUID) (*domain.OpportunityStageHistory, error) {
	var history domain.OpportunityStageHistory
	err := r.db.WithContext(ctx).
		Where("opportunity_id = ?", oppID).
		Order("changed_at DESC").
		First(&history).Error
	if err != nil {
		return nil, err
	}
	return &history, nil
}

// CountTransitionsToStage counts transitions to a stage within a date range
func (r *StageHistoryRepository) CountTransitionsToStage(ctx context.Context, stage domain.OpportunityStage, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.OpportunityStageHistory{}).
		Where("to_stage = ?", stage).
		Where("changed_at >= ? AND changed_at <= ?", from, to).
		Count(&count).Error
	return count, err
}

// DeleteByOpportunityID removes all history for an opportunity
func (r *StageHistoryRepository) DeleteByOpportunityID(ctx context.Context, oppID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("opportunity_id = ?", oppID).
		Delete(&domain.OpportunityStageHistory{}).Error
}
