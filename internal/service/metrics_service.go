package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/summitcrm/pipeline-api/internal/domain"
	"github.com/summitcrm/pipeline-api/internal/repository"
)

// stageOrder fixes the display order of pipeline stages
var stageOrder = []domain.OpportunityStage{
	domain.OpportunityStageIdentified,
	domain.OpportunityStageQualified,
	domain.OpportunityStageProposalSent,
	domain.OpportunityStageNegotiation,
}

// funnelOrder fixes the display order of the prospect funnel
var funnelOrder = []domain.ProspectStatus{
	domain.ProspectStatusUncontacted,
	domain.ProspectStatusResearching,
	domain.ProspectStatusAttempted,
	domain.ProspectStatusContacted,
	domain.ProspectStatusDisqualified,
	domain.ProspectStatusConverted,
}

type MetricsService struct {
	opportunityRepo *repository.OpportunityRepository
	prospectRepo    *repository.ProspectRepository
	logger          *zap.Logger
}

func NewMetricsService(
	opportunityRepo *repository.OpportunityRepository,
	prospectRepo *repository.ProspectRepository,
	logger *zap.Logger,
) *MetricsService {
	return &MetricsService{
		opportunityRepo: opportunityRepo,
		prospectRepo:    prospectRepo,
		logger:          logger,
	}
}

// GetPipelineMetrics aggregates the open pipeline by stage, the prospect
// funnel, and this quarter's closed counts. The four aggregate queries are
// independent and run concurrently.
func (s *MetricsService) GetPipelineMetrics(ctx context.Context) (*domain.PipelineMetricsDTO, error) {
	var (
		stats     *repository.PipelineStats
		won, lost int64
		funnel    map[domain.ProspectStatus]int64
	)

	since := quarterStart(time.Now())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.opportunityRepo.GetPipelineStats(gctx)
		if err != nil {
			return fmt.Errorf("failed to load pipeline stats: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		won, err = s.opportunityRepo.CountClosedSince(gctx, domain.OpportunityStageWon, since)
		if err != nil {
			return fmt.Errorf("failed to count won opportunities: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		lost, err = s.opportunityRepo.CountClosedSince(gctx, domain.OpportunityStageLost, since)
		if err != nil {
			return fmt.Errorf("failed to count lost opportunities: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		funnel, err = s.prospectRepo.GetFunnelCounts(gctx)
		if err != nil {
			return fmt.Errorf("failed to load prospect funnel: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics := &domain.PipelineMetricsDTO{
		TotalOpen:       int(stats.TotalCount),
		TotalValue:      stats.TotalValue,
		WeightedValue:   stats.WeightedValue,
		WonThisQuarter:  int(won),
		LostThisQuarter: int(lost),
		ByStage:         make([]domain.StageMetricsDTO, 0, len(stageOrder)),
		ProspectFunnel:  make([]domain.FunnelCountDTO, 0, len(funnelOrder)),
	}

	for _, stage := range stageOrder {
		stageStats := stats.ByStage[stage]
		metrics.ByStage = append(metrics.ByStage, domain.StageMetricsDTO{
			Stage:         stage,
			Count:         int(stageStats.Count),
			TotalValue:    stageStats.TotalValue,
			WeightedValue: stageStats.WeightedValue,
		})
	}
	for _, status := range funnelOrder {
		metrics.ProspectFunnel = append(metrics.ProspectFunnel, domain.FunnelCountDTO{
			Status: status,
			Count:  int(funnel[status]),
		})
	}

	return metrics, nil
}

// quarterStart returns midnight UTC on the first day of t's calendar quarter
func quarterStart(t time.Time) time.Time {
	t = t.UTC()
	quarterMonth := time.Month(((int(t.Month())-1)/3)*3 + 1)
	return time.Date(t.Year(), quarterMonth, 1, 0, 0, 0, 0, time.UTC)
}
