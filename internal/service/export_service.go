package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/summitcrm/pipeline-api/internal/repository"
)

// ExportService streams filtered lists as CSV. Exports are capped at a
// configured row count so a wide-open filter cannot dump the whole table.
type ExportService struct {
	prospectRepo    *repository.ProspectRepository
	accountRepo     *repository.AccountRepository
	opportunityRepo *repository.OpportunityRepository
	maxRows         int
	logger          *zap.Logger
}

func NewExportService(
	prospectRepo *repository.ProspectRepository,
	accountRepo *repository.AccountRepository,
	opportunityRepo *repository.OpportunityRepository,
	maxRows int,
	logger *zap.Logger,
) *ExportService {
	if maxRows <= 0 {
		maxRows = 50000
	}
	return &ExportService{
		prospectRepo:    prospectRepo,
		accountRepo:     accountRepo,
		opportunityRepo: opportunityRepo,
		maxRows:         maxRows,
		logger:          logger,
	}
}

// ExportProspects writes the filtered prospect list as CSV
func (s *ExportService) ExportProspects(ctx context.Context, w io.Writer, filters *repository.ProspectFilters, sortBy repository.ProspectSortOption) error {
	prospects, err := s.prospectRepo.ListAll(ctx, filters, sortBy, s.maxRows+1)
	if err != nil {
		return fmt.Errorf("failed to load prospects for export: %w", err)
	}
	if len(prospects) > s.maxRows {
		return ErrExportTooLarge
	}

	writer := csv.NewWriter(w)
	header := []string{
		"id", "name", "status", "phone", "website", "city", "state", "zip",
		"company_type", "icp_fit_score", "source", "tags", "created_at",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i := range prospects {
		p := &prospects[i]
		row := []string{
			p.ID.String(),
			p.Name,
			string(p.Status),
			p.Phone,
			p.Website,
			p.City,
			p.State,
			p.Zip,
			p.CompanyType,
			strconv.Itoa(p.ICPFitScore),
			p.Source,
			strings.Join(p.Tags, ";"),
			p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportAccounts writes the filtered account list as CSV
func (s *ExportService) ExportAccounts(ctx context.Context, w io.Writer, filters *repository.AccountFilters, sortBy repository.AccountSortOption) error {
	accounts, err := s.accountRepo.ListAll(ctx, filters, sortBy, s.maxRows+1)
	if err != nil {
		return fmt.Errorf("failed to load accounts for export: %w", err)
	}
	if len(accounts) > s.maxRows {
		return ErrExportTooLarge
	}

	writer := csv.NewWriter(w)
	header := []string{
		"id", "name", "stage", "company_type", "phone", "website", "city",
		"state", "zip", "is_active", "created_at",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i := range accounts {
		a := &accounts[i]
		row := []string{
			a.ID.String(),
			a.Name,
			string(a.Stage),
			a.CompanyType,
			a.Phone,
			a.Website,
			a.City,
			a.State,
			a.Zip,
			strconv.FormatBool(a.IsActive),
			a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportOpportunities writes the filtered opportunity list as CSV
func (s *ExportService) ExportOpportunities(ctx context.Context, w io.Writer, filters *repository.OpportunityFilters, sortBy repository.OpportunitySortOption) error {
	opportunities, err := s.opportunityRepo.ListAll(ctx, filters, sortBy, s.maxRows+1)
	if err != nil {
		return fmt.Errorf("failed to load opportunities for export: %w", err)
	}
	if len(opportunities) > s.maxRows {
		return ErrExportTooLarge
	}

	writer := csv.NewWriter(w)
	header := []string{
		"id", "name", "stage", "opportunity_type", "bid_value", "currency",
		"probability", "weighted_value", "expected_close_date", "account",
		"created_at",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i := range opportunities {
		o := &opportunities[i]
		bidValue := ""
		if o.BidValue != nil {
			bidValue = strconv.FormatFloat(*o.BidValue, 'f', 2, 64)
		}
		closeDate := ""
		if o.ExpectedCloseDate != nil {
			closeDate = o.ExpectedCloseDate.Format("2006-01-02")
		}
		accountName := ""
		if o.Account != nil {
			accountName = o.Account.Name
		}
		row := []string{
			o.ID.String(),
			o.Name,
			string(o.Stage),
			string(o.OpportunityType),
			bidValue,
			o.Currency,
			strconv.Itoa(o.Probability),
			strconv.FormatFloat(o.WeightedValue(), 'f', 2, 64),
			closeDate,
			accountName,
			o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ContentDisposition builds the attachment header value for an export
func ContentDisposition(name string) string {
	return fmt.Sprintf(`attachment; filename="%s.csv"`, name)
}
