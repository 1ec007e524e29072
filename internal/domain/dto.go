package domain

import (
	"time"

	"github.com/google/uuid"
)

// DTOs for API responses

type ProspectDTO struct {
	ID                    uuid.UUID      `json:"id"`
	Name                  string         `json:"name"`
	Phone                 string         `json:"phone,omitempty"`
	Website               string         `json:"website,omitempty"`
	Domain                string         `json:"domain,omitempty"`
	Address               string         `json:"address,omitempty"`
	City                  string         `json:"city,omitempty"`
	State                 string         `json:"state,omitempty"`
	Zip                   string         `json:"zip,omitempty"`
	CompanyType           string         `json:"companyType,omitempty"`
	EmployeeCount         *int           `json:"employeeCount,omitempty"`
	PropertyCountEstimate *int           `json:"propertyCountEstimate,omitempty"`
	SqftEstimate          *int           `json:"sqftEstimate,omitempty"`
	BuildingTypes         []string       `json:"buildingTypes,omitempty"`
	ICPFitScore           int            `json:"icpFitScore"`
	Status                ProspectStatus `json:"status"`
	AssignedTo            *uuid.UUID     `json:"assignedTo,omitempty"`
	AssignedToName        string         `json:"assignedToName,omitempty"`
	Source                string         `json:"source,omitempty"`
	Tags                  []string       `json:"tags,omitempty"`
	Notes                 string         `json:"notes,omitempty"`
	ConvertedAccountID    *uuid.UUID     `json:"convertedAccountId,omitempty"`
	LastActivityAt        *string        `json:"lastActivityAt,omitempty"`
	CreatedAt             string         `json:"createdAt"` // ISO 8601
	UpdatedAt             string         `json:"updatedAt"` // ISO 8601
}

type AccountDTO struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	CompanyType string                 `json:"companyType,omitempty"`
	Stage       AccountStage           `json:"stage"`
	Phone       string                 `json:"phone,omitempty"`
	Website     string                 `json:"website,omitempty"`
	Domain      string                 `json:"domain,omitempty"`
	Address     string                 `json:"address,omitempty"`
	City        string                 `json:"city,omitempty"`
	State       string                 `json:"state,omitempty"`
	Zip         string                 `json:"zip,omitempty"`
	IsActive    bool                   `json:"isActive"`
	Notes       string                 `json:"notes,omitempty"`
	Assignments []AccountAssignmentDTO `json:"assignments,omitempty"`
	CreatedAt   string                 `json:"createdAt"`
	UpdatedAt   string                 `json:"updatedAt"`
}

// AccountWithDetailsDTO includes account data with related entities and statistics
type AccountWithDetailsDTO struct {
	AccountDTO
	Stats             *AccountStatsDTO `json:"stats,omitempty"`
	Properties        []PropertyDTO    `json:"properties,omitempty"`
	OpenOpportunities []OpportunityDTO `json:"openOpportunities,omitempty"`
	RecentActivity    []ActivityDTO    `json:"recentActivity,omitempty"`
}

// AccountStatsDTO holds aggregated statistics for an account
type AccountStatsDTO struct {
	OpenOpportunities  int     `json:"openOpportunities"`
	WonOpportunities   int     `json:"wonOpportunities"`
	TotalPipelineValue float64 `json:"totalPipelineValue"`
	WeightedPipeline   float64 `json:"weightedPipeline"`
	PropertyCount      int     `json:"propertyCount"`
}

type AccountAssignmentDTO struct {
	ID         uuid.UUID `json:"id"`
	AccountID  uuid.UUID `json:"accountId"`
	UserID     uuid.UUID `json:"userId"`
	UserName   string    `json:"userName,omitempty"`
	Role       string    `json:"role,omitempty"`
	AssignedAt string    `json:"assignedAt"`
}

type OpportunityDTO struct {
	ID                uuid.UUID        `json:"id"`
	Name              string           `json:"name"`
	OpportunityType   OpportunityType  `json:"opportunityType"`
	Stage             OpportunityStage `json:"stage"`
	BidValue          *float64         `json:"bidValue,omitempty"`
	Currency          string           `json:"currency"`
	Probability       int              `json:"probability"`
	WeightedValue     float64          `json:"weightedValue"`
	ExpectedCloseDate *string          `json:"expectedCloseDate,omitempty"`
	AccountID         *uuid.UUID       `json:"accountId,omitempty"`
	AccountName       string           `json:"accountName,omitempty"`
	PropertyID        *uuid.UUID       `json:"propertyId,omitempty"`
	PropertyAddress   string           `json:"propertyAddress,omitempty"`
	AssignedTo        *uuid.UUID       `json:"assignedTo,omitempty"`
	AssignedToName    string           `json:"assignedToName,omitempty"`
	Notes             string           `json:"notes,omitempty"`
	CreatedAt         string           `json:"createdAt"`
	UpdatedAt         string           `json:"updatedAt"`
}

type OpportunityStageHistoryDTO struct {
	ID            uuid.UUID         `json:"id"`
	OpportunityID uuid.UUID         `json:"opportunityId"`
	FromStage     *OpportunityStage `json:"fromStage,omitempty"`
	ToStage       OpportunityStage  `json:"toStage"`
	ChangedByID   *uuid.UUID        `json:"changedById,omitempty"`
	ChangedByName string            `json:"changedByName,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	ChangedAt     string            `json:"changedAt"`
}

type PropertyDTO struct {
	ID           uuid.UUID  `json:"id"`
	AccountID    *uuid.UUID `json:"accountId,omitempty"`
	AccountName  string     `json:"accountName,omitempty"`
	Address      string     `json:"address"`
	City         string     `json:"city,omitempty"`
	State        string     `json:"state,omitempty"`
	Zip          string     `json:"zip,omitempty"`
	BuildingType string     `json:"buildingType,omitempty"`
	Sqft         *int       `json:"sqft,omitempty"`
	CreatedAt    string     `json:"createdAt"`
	UpdatedAt    string     `json:"updatedAt"`
}

type ActivityDTO struct {
	ID           uuid.UUID          `json:"id"`
	TargetType   ActivityTargetType `json:"targetType"`
	TargetID     uuid.UUID          `json:"targetId"`
	ActivityType ActivityType       `json:"activityType"`
	Title        string             `json:"title"`
	Body         string             `json:"body,omitempty"`
	OccurredAt   string             `json:"occurredAt"`
	CreatorID    *uuid.UUID         `json:"creatorId,omitempty"`
	CreatorName  string             `json:"creatorName,omitempty"`
	CreatedAt    string             `json:"createdAt"`
}

type TaskDTO struct {
	ID             uuid.UUID          `json:"id"`
	Title          string             `json:"title"`
	Status         TaskStatus         `json:"status"`
	DueDate        *string            `json:"dueDate,omitempty"`
	TargetType     ActivityTargetType `json:"targetType,omitempty"`
	TargetID       *uuid.UUID         `json:"targetId,omitempty"`
	AssignedTo     *uuid.UUID         `json:"assignedTo,omitempty"`
	AssignedToName string             `json:"assignedToName,omitempty"`
	Notes          string             `json:"notes,omitempty"`
	CreatedAt      string             `json:"createdAt"`
	UpdatedAt      string             `json:"updatedAt"`
}

type NotificationDTO struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	ReadAt     *string    `json:"readAt,omitempty"`
	Unread     bool       `json:"unread"`
	EntityID   *uuid.UUID `json:"entityId,omitempty"`
	EntityType string     `json:"entityType,omitempty"`
	CreatedAt  string     `json:"createdAt"`
}

// NotificationPageDTO is a cursor-paginated page of notifications
type NotificationPageDTO struct {
	Items      []NotificationDTO `json:"items"`
	NextCursor *string           `json:"nextCursor,omitempty"`
	HasMore    bool              `json:"hasMore"`
}

type UserDTO struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Roles       []string  `json:"roles"`
	IsActive    bool      `json:"isActive"`
	LastLoginAt *string   `json:"lastLoginAt,omitempty"`
	CreatedAt   string    `json:"createdAt"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// PaginatedResponse wraps offset-paginated list results
type PaginatedResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// DuplicateMatchDTO describes an existing account that may match a prospect
type DuplicateMatchDTO struct {
	AccountID  uuid.UUID `json:"accountId"`
	Name       string    `json:"name"`
	Domain     string    `json:"domain,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	City       string    `json:"city,omitempty"`
	State      string    `json:"state,omitempty"`
	MatchType  string    `json:"matchType"`  // domain, phone, name_similarity, fuzzy
	Confidence float64   `json:"confidence"` // 0..1
}

// ConversionStateDTO is the wire form of a conversion wizard session
type ConversionStateDTO struct {
	ProspectID      uuid.UUID           `json:"prospectId"`
	Step            string              `json:"step"`
	Form            *ConversionFormDTO  `json:"form,omitempty"`
	Duplicates      []DuplicateMatchDTO `json:"duplicates,omitempty"`
	ChosenAccountID *uuid.UUID          `json:"chosenAccountId,omitempty"`
	AccountID       *uuid.UUID          `json:"accountId,omitempty"`
	Merged          bool                `json:"merged"`
	StartedAt       string              `json:"startedAt"`
	UpdatedAt       string              `json:"updatedAt"`
}

type ConversionFormDTO struct {
	AccountName  string                  `json:"accountName"`
	CompanyType  string                  `json:"companyType,omitempty"`
	Stage        AccountStage            `json:"stage"`
	AssigneeIDs  []uuid.UUID             `json:"assigneeIds,omitempty"`
	Notes        string                  `json:"notes,omitempty"`
	Opportunity  *ConversionOppDTO       `json:"opportunity,omitempty"`
	PropertyRows []ConversionPropertyDTO `json:"properties,omitempty"`
}

type ConversionOppDTO struct {
	Name              string          `json:"name"`
	OpportunityType   OpportunityType `json:"opportunityType"`
	BidValue          *float64        `json:"bidValue,omitempty"`
	Probability       int             `json:"probability"`
	ExpectedCloseDate *string         `json:"expectedCloseDate,omitempty"`
}

type ConversionPropertyDTO struct {
	Address      string `json:"address"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Zip          string `json:"zip,omitempty"`
	BuildingType string `json:"buildingType,omitempty"`
	Sqft         *int   `json:"sqft,omitempty"`
}

// ConversionResultDTO is returned when a conversion is confirmed
type ConversionResultDTO struct {
	ProspectID    uuid.UUID  `json:"prospectId"`
	AccountID     uuid.UUID  `json:"accountId"`
	OpportunityID *uuid.UUID `json:"opportunityId,omitempty"`
	Merged        bool       `json:"merged"`
	PropertyIDs   []uuid.UUID `json:"propertyIds,omitempty"`
}

// PipelineMetricsDTO holds aggregated numbers for the pipeline dashboard
type PipelineMetricsDTO struct {
	TotalOpen        int                `json:"totalOpen"`
	TotalValue       float64            `json:"totalValue"`
	WeightedValue    float64            `json:"weightedValue"`
	WonThisQuarter   int                `json:"wonThisQuarter"`
	LostThisQuarter  int                `json:"lostThisQuarter"`
	ByStage          []StageMetricsDTO  `json:"byStage"`
	ProspectFunnel   []FunnelCountDTO   `json:"prospectFunnel"`
}

type StageMetricsDTO struct {
	Stage         OpportunityStage `json:"stage"`
	Count         int              `json:"count"`
	TotalValue    float64          `json:"totalValue"`
	WeightedValue float64          `json:"weightedValue"`
}

type FunnelCountDTO struct {
	Status ProspectStatus `json:"status"`
	Count  int            `json:"count"`
}

// AccountRefDTO is the id+name pair pickers use to link an account
type AccountRefDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// PropertyRefDTO is the id+address pair pickers use to link a property
type PropertyRefDTO struct {
	ID      uuid.UUID `json:"id"`
	Address string    `json:"address"`
}

// ReferenceDataDTO bundles the lookup lists clients need to render forms
type ReferenceDataDTO struct {
	Users              []UserDTO          `json:"users"`
	Accounts           []AccountRefDTO    `json:"accounts"`
	Properties         []PropertyRefDTO   `json:"properties"`
	ProspectStatuses   []ProspectStatus   `json:"prospectStatuses"`
	AccountStages      []AccountStage     `json:"accountStages"`
	OpportunityStages  []OpportunityStage `json:"opportunityStages"`
	OpportunityTypes   []OpportunityType  `json:"opportunityTypes"`
	TaskStatuses       []TaskStatus       `json:"taskStatuses"`
}

// Request DTOs

type CreateProspectRequest struct {
	Name                  string   `json:"name" validate:"required,max=200"`
	Phone                 string   `json:"phone,omitempty" validate:"max=50"`
	Website               string   `json:"website,omitempty" validate:"max=500"`
	Address               string   `json:"address,omitempty" validate:"max=500"`
	City                  string   `json:"city,omitempty" validate:"max=100"`
	State                 string   `json:"state,omitempty" validate:"max=50"`
	Zip                   string   `json:"zip,omitempty" validate:"max=20"`
	CompanyType           string   `json:"companyType,omitempty" validate:"max=100"`
	EmployeeCount         *int     `json:"employeeCount,omitempty" validate:"omitempty,min=0"`
	PropertyCountEstimate *int     `json:"propertyCountEstimate,omitempty" validate:"omitempty,min=0"`
	SqftEstimate          *int     `json:"sqftEstimate,omitempty" validate:"omitempty,min=0"`
	BuildingTypes         []string `json:"buildingTypes,omitempty"`
	ICPFitScore           int      `json:"icpFitScore" validate:"min=0,max=100"`
	AssignedTo            *string  `json:"assignedTo,omitempty" validate:"omitempty,uuid"`
	Source                string   `json:"source,omitempty" validate:"max=100"`
	Tags                  []string `json:"tags,omitempty"`
	Notes                 string   `json:"notes,omitempty" validate:"max=5000"`
}

type UpdateProspectRequest struct {
	Name                  *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Phone                 *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	Website               *string  `json:"website,omitempty" validate:"omitempty,max=500"`
	Address               *string  `json:"address,omitempty" validate:"omitempty,max=500"`
	City                  *string  `json:"city,omitempty" validate:"omitempty,max=100"`
	State                 *string  `json:"state,omitempty" validate:"omitempty,max=50"`
	Zip                   *string  `json:"zip,omitempty" validate:"omitempty,max=20"`
	CompanyType           *string  `json:"companyType,omitempty" validate:"omitempty,max=100"`
	EmployeeCount         *int     `json:"employeeCount,omitempty" validate:"omitempty,min=0"`
	PropertyCountEstimate *int     `json:"propertyCountEstimate,omitempty" validate:"omitempty,min=0"`
	SqftEstimate          *int     `json:"sqftEstimate,omitempty" validate:"omitempty,min=0"`
	BuildingTypes         []string `json:"buildingTypes,omitempty"`
	ICPFitScore           *int     `json:"icpFitScore,omitempty" validate:"omitempty,min=0,max=100"`
	Status                *string  `json:"status,omitempty"`
	AssignedTo            *string  `json:"assignedTo,omitempty" validate:"omitempty,uuid"`
	Source                *string  `json:"source,omitempty" validate:"omitempty,max=100"`
	Tags                  []string `json:"tags,omitempty"`
	Notes                 *string  `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

type UpdateProspectStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// BulkProspectStatusRequest applies a status change to a set of prospects
type BulkProspectStatusRequest struct {
	IDs    []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
	Status string      `json:"status" validate:"required"`
}

// BulkProspectAssignRequest assigns a set of prospects to a user
type BulkProspectAssignRequest struct {
	IDs        []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
	AssignedTo *uuid.UUID  `json:"assignedTo"`
}

type CreateAccountRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	CompanyType string   `json:"companyType,omitempty" validate:"max=100"`
	Stage       string   `json:"stage,omitempty"`
	Phone       string   `json:"phone,omitempty" validate:"max=50"`
	Website     string   `json:"website,omitempty" validate:"max=500"`
	Address     string   `json:"address,omitempty" validate:"max=500"`
	City        string   `json:"city,omitempty" validate:"max=100"`
	State       string   `json:"state,omitempty" validate:"max=50"`
	Zip         string   `json:"zip,omitempty" validate:"max=20"`
	Notes       string   `json:"notes,omitempty" validate:"max=5000"`
	AssigneeIDs []string `json:"assigneeIds,omitempty" validate:"omitempty,dive,uuid"`
}

type UpdateAccountRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	CompanyType *string `json:"companyType,omitempty" validate:"omitempty,max=100"`
	Stage       *string `json:"stage,omitempty"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Website     *string `json:"website,omitempty" validate:"omitempty,max=500"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
	City        *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State       *string `json:"state,omitempty" validate:"omitempty,max=50"`
	Zip         *string `json:"zip,omitempty" validate:"omitempty,max=20"`
	IsActive    *bool   `json:"isActive,omitempty"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

type CreateOpportunityRequest struct {
	Name              string   `json:"name" validate:"required,max=200"`
	OpportunityType   string   `json:"opportunityType,omitempty"`
	BidValue          *float64 `json:"bidValue,omitempty" validate:"omitempty,min=0"`
	Currency          string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	Probability       int      `json:"probability" validate:"min=0,max=100"`
	ExpectedCloseDate *string  `json:"expectedCloseDate,omitempty"`
	AccountID         *string  `json:"accountId,omitempty" validate:"omitempty,uuid"`
	PropertyID        *string  `json:"propertyId,omitempty" validate:"omitempty,uuid"`
	AssignedTo        *string  `json:"assignedTo,omitempty" validate:"omitempty,uuid"`
	Notes             string   `json:"notes,omitempty" validate:"max=5000"`
}

type UpdateOpportunityRequest struct {
	Name              *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	OpportunityType   *string  `json:"opportunityType,omitempty"`
	BidValue          *float64 `json:"bidValue,omitempty" validate:"omitempty,min=0"`
	Currency          *string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	Probability       *int     `json:"probability,omitempty" validate:"omitempty,min=0,max=100"`
	ExpectedCloseDate *string  `json:"expectedCloseDate,omitempty"`
	AccountID         *string  `json:"accountId,omitempty" validate:"omitempty,uuid"`
	PropertyID        *string  `json:"propertyId,omitempty" validate:"omitempty,uuid"`
	AssignedTo        *string  `json:"assignedTo,omitempty" validate:"omitempty,uuid"`
	Notes             *string  `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

type UpdateOpportunityStageRequest struct {
	Stage string `json:"stage" validate:"required"`
	Notes string `json:"notes,omitempty" validate:"max=1000"`
}

type CreatePropertyRequest struct {
	AccountID    *string `json:"accountId,omitempty" validate:"omitempty,uuid"`
	Address      string  `json:"address" validate:"required,max=500"`
	City         string  `json:"city,omitempty" validate:"max=100"`
	State        string  `json:"state,omitempty" validate:"max=50"`
	Zip          string  `json:"zip,omitempty" validate:"max=20"`
	BuildingType string  `json:"buildingType,omitempty" validate:"max=100"`
	Sqft         *int    `json:"sqft,omitempty" validate:"omitempty,min=0"`
}

type UpdatePropertyRequest struct {
	AccountID    *string `json:"accountId,omitempty" validate:"omitempty,uuid"`
	Address      *string `json:"address,omitempty" validate:"omitempty,max=500"`
	City         *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State        *string `json:"state,omitempty" validate:"omitempty,max=50"`
	Zip          *string `json:"zip,omitempty" validate:"omitempty,max=20"`
	BuildingType *string `json:"buildingType,omitempty" validate:"omitempty,max=100"`
	Sqft         *int    `json:"sqft,omitempty" validate:"omitempty,min=0"`
}

type CreateTaskRequest struct {
	Title      string  `json:"title" validate:"required,max=200"`
	DueDate    *string `json:"dueDate,omitempty"`
	TargetType string  `json:"targetType,omitempty"`
	TargetID   *string `json:"targetId,omitempty" validate:"omitempty,uuid"`
	AssignedTo *string `json:"assignedTo,omitempty" validate:"omitempty,uuid"`
	Notes      string  `json:"notes,omitempty" validate:"max=5000"`
}

type UpdateTaskRequest struct {
	Title      *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Status     *string `json:"status,omitempty"`
	DueDate    *string `json:"dueDate,omitempty"`
	AssignedTo *string `json:"assignedTo,omitempty" validate:"omitempty,uuid"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

type CreateActivityRequest struct {
	TargetType   string `json:"targetType" validate:"required"`
	TargetID     string `json:"targetId" validate:"required,uuid"`
	ActivityType string `json:"activityType,omitempty"`
	Title        string `json:"title" validate:"required,max=200"`
	Body         string `json:"body,omitempty" validate:"max=2000"`
	OccurredAt   string `json:"occurredAt,omitempty"`
}

type CreateNotificationRequest struct {
	UserID     uuid.UUID `json:"userId" validate:"required"`
	Type       string    `json:"type" validate:"required,max=50"`
	Title      string    `json:"title" validate:"required,max=200"`
	Message    string    `json:"message" validate:"required,max=500"`
	EntityID   *uuid.UUID `json:"entityId,omitempty"`
	EntityType string    `json:"entityType,omitempty" validate:"max=50"`
}

// SubmitConversionFormRequest starts or re-submits the conversion wizard form
type SubmitConversionFormRequest struct {
	AccountName string                  `json:"accountName" validate:"required,max=200"`
	CompanyType string                  `json:"companyType,omitempty" validate:"max=100"`
	Stage       string                  `json:"stage,omitempty"`
	AssigneeIDs []string                `json:"assigneeIds,omitempty" validate:"omitempty,dive,uuid"`
	Notes       string                  `json:"notes,omitempty" validate:"max=5000"`
	Opportunity *ConversionOppRequest   `json:"opportunity,omitempty"`
	Properties  []ConversionPropertyDTO `json:"properties,omitempty" validate:"omitempty,dive"`
}

type ConversionOppRequest struct {
	Name              string   `json:"name" validate:"required,max=200"`
	OpportunityType   string   `json:"opportunityType,omitempty"`
	BidValue          *float64 `json:"bidValue,omitempty" validate:"omitempty,min=0"`
	Probability       int      `json:"probability" validate:"min=0,max=100"`
	ExpectedCloseDate *string  `json:"expectedCloseDate,omitempty"`
}

// ChooseDuplicateRequest records the rep's decision on the duplicates step
type ChooseDuplicateRequest struct {
	// AccountID merges into an existing account; null means create new
	AccountID *uuid.UUID `json:"accountId"`
}

// ConvertProspectRequest converts a prospect in one call, without the wizard
type ConvertProspectRequest struct {
	// LinkAccountID merges into an existing account; null creates a new one
	LinkAccountID *uuid.UUID `json:"linkAccountId"`
}

// FindDuplicatesRequest asks for accounts that may match a company
type FindDuplicatesRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Domain  string `json:"domain,omitempty" validate:"max=255"`
	Website string `json:"website,omitempty" validate:"max=500"`
	Phone   string `json:"phone,omitempty" validate:"max=50"`
	City    string `json:"city,omitempty" validate:"max=100"`
	State   string `json:"state,omitempty" validate:"max=50"`
}

// BulkOpportunityStageRequest applies a stage change to a set of opportunities
type BulkOpportunityStageRequest struct {
	IDs   []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
	Stage string      `json:"stage" validate:"required"`
	Notes string      `json:"notes,omitempty" validate:"max=2000"`
}

// BulkStageResultDTO reports the outcome of one record in a bulk stage update
type BulkStageResultDTO struct {
	ID      uuid.UUID `json:"id"`
	Updated bool      `json:"updated"`
	Error   string    `json:"error,omitempty"`
}

// NowISO returns t formatted as RFC 3339 in UTC
func NowISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
