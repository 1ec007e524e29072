package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TenantID identifies a customer organization. Every CRM row carries one and
// repositories scope queries to the tenant resolved from the session context.
type TenantID string

// Tenant represents a customer organization (stored in database)
type Tenant struct {
	ID        TenantID  `gorm:"type:varchar(50);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	IsActive  bool      `gorm:"not null;default:true;column:is_active" json:"isActive"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// ProspectStatus represents the outreach lifecycle of a prospect
type ProspectStatus string

const (
	ProspectStatusUncontacted  ProspectStatus = "uncontacted"
	ProspectStatusResearching  ProspectStatus = "researching"
	ProspectStatusAttempted    ProspectStatus = "attempted"
	ProspectStatusContacted    ProspectStatus = "contacted"
	ProspectStatusDisqualified ProspectStatus = "disqualified"
	ProspectStatusConverted    ProspectStatus = "converted"
)

// IsValid checks if the ProspectStatus is a valid enum value
func (ps ProspectStatus) IsValid() bool {
	switch ps {
	case ProspectStatusUncontacted, ProspectStatusResearching, ProspectStatusAttempted,
		ProspectStatusContacted, ProspectStatusDisqualified, ProspectStatusConverted:
		return true
	}
	return false
}

// Prospect represents a researched company that has not yet become an account
type Prospect struct {
	BaseModel
	TenantID              TenantID       `gorm:"type:varchar(50);not null;index;column:tenant_id"`
	Name                  string         `gorm:"type:varchar(200);not null;index"`
	Phone                 string         `gorm:"type:varchar(50)"`
	Website               string         `gorm:"type:varchar(500)"`
	Domain                string         `gorm:"type:varchar(255);index"`
	Address               string         `gorm:"type:varchar(500)"`
	City                  string         `gorm:"type:varchar(100)"`
	State                 string         `gorm:"type:varchar(50)"`
	Zip                   string         `gorm:"type:varchar(20)"`
	CompanyType           string         `gorm:"type:varchar(100);column:company_type"`
	EmployeeCount         *int           `gorm:"column:employee_count"`
	PropertyCountEstimate *int           `gorm:"column:property_count_estimate"`
	SqftEstimate          *int           `gorm:"column:sqft_estimate"`
	BuildingTypes         pq.StringArray `gorm:"type:text[];column:building_types"`
	ICPFitScore           int            `gorm:"not null;default:0;column:icp_fit_score"`
	Status                ProspectStatus `gorm:"type:varchar(50);not null;default:'uncontacted';index"`
	AssignedTo            *uuid.UUID     `gorm:"type:uuid;column:assigned_to;index"`
	Source                string         `gorm:"type:varchar(100)"`
	Tags                  pq.StringArray `gorm:"type:text[]"`
	Notes                 string         `gorm:"type:text"`
	ConvertedAccountID    *uuid.UUID     `gorm:"type:uuid;column:converted_account_id"`
	LastActivityAt        *time.Time     `gorm:"column:last_activity_at;index"`
}

// AccountStage represents the relationship stage of an account
type AccountStage string

const (
	AccountStageUnqualified AccountStage = "unqualified"
	AccountStageQualified   AccountStage = "qualified"
	AccountStageActive      AccountStage = "active"
	AccountStageDormant     AccountStage = "dormant"
	AccountStageClosed      AccountStage = "closed"
)

// IsValid checks if the AccountStage is a valid enum value
func (as AccountStage) IsValid() bool {
	switch as {
	case AccountStageUnqualified, AccountStageQualified, AccountStageActive,
		AccountStageDormant, AccountStageClosed:
		return true
	}
	return false
}

// Account represents a customer organization in the sales pipeline
type Account struct {
	BaseModel
	TenantID    TenantID            `gorm:"type:varchar(50);not null;index;column:tenant_id"`
	Name        string              `gorm:"type:varchar(200);not null;index"`
	CompanyType string              `gorm:"type:varchar(100);column:company_type"`
	Stage       AccountStage        `gorm:"type:varchar(50);not null;default:'unqualified';index"`
	Phone       string              `gorm:"type:varchar(50)"`
	Website     string              `gorm:"type:varchar(500)"`
	Domain      string              `gorm:"type:varchar(255);index"`
	Address     string              `gorm:"type:varchar(500)"`
	City        string              `gorm:"type:varchar(100)"`
	State       string              `gorm:"type:varchar(50)"`
	Zip         string              `gorm:"type:varchar(20)"`
	IsActive    bool                `gorm:"not null;default:true;column:is_active"`
	Notes       string              `gorm:"type:text"`
	Assignments []AccountAssignment `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
}

// AccountAssignment links a rep to an account (many-to-many)
type AccountAssignment struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AccountID  uuid.UUID `gorm:"type:uuid;not null;index;column:account_id"`
	Account    *Account  `gorm:"foreignKey:AccountID"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index;column:user_id"`
	User       *User     `gorm:"foreignKey:UserID"`
	Role       string    `gorm:"type:varchar(100)"`
	AssignedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;column:assigned_at"`
}

// OpportunityType classifies the commercial nature of an opportunity
type OpportunityType string

const (
	OpportunityTypeNewBusiness OpportunityType = "new_business"
	OpportunityTypeExpansion   OpportunityType = "expansion"
	OpportunityTypeRenewal     OpportunityType = "renewal"
	OpportunityTypeUpsell      OpportunityType = "upsell"
)

// IsValid checks if the OpportunityType is a valid enum value
func (ot OpportunityType) IsValid() bool {
	switch ot {
	case OpportunityTypeNewBusiness, OpportunityTypeExpansion, OpportunityTypeRenewal, OpportunityTypeUpsell:
		return true
	}
	return false
}

// OpportunityStage represents the stage of an opportunity in the pipeline
type OpportunityStage string

const (
	OpportunityStageIdentified   OpportunityStage = "identified"
	OpportunityStageQualified    OpportunityStage = "qualified"
	OpportunityStageProposalSent OpportunityStage = "proposal_sent"
	OpportunityStageNegotiation  OpportunityStage = "negotiation"
	OpportunityStageWon          OpportunityStage = "won"
	OpportunityStageLost         OpportunityStage = "lost"
)

// IsValid checks if the OpportunityStage is a valid enum value
func (os OpportunityStage) IsValid() bool {
	switch os {
	case OpportunityStageIdentified, OpportunityStageQualified, OpportunityStageProposalSent,
		OpportunityStageNegotiation, OpportunityStageWon, OpportunityStageLost:
		return true
	}
	return false
}

// Opportunity represents a bid in the sales pipeline
type Opportunity struct {
	BaseModel
	TenantID          TenantID         `gorm:"type:varchar(50);not null;index;column:tenant_id"`
	Name              string           `gorm:"type:varchar(200);not null"`
	OpportunityType   OpportunityType  `gorm:"type:varchar(50);not null;default:'new_business';column:opportunity_type"`
	Stage             OpportunityStage `gorm:"type:varchar(50);not null;default:'identified';index"`
	BidValue          *float64         `gorm:"type:decimal(15,2);column:bid_value"`
	Currency          string           `gorm:"type:varchar(3);not null;default:'USD'"`
	Probability       int              `gorm:"type:int;not null;default:0"`
	ExpectedCloseDate *time.Time       `gorm:"type:date;column:expected_close_date"`
	AccountID         *uuid.UUID       `gorm:"type:uuid;index;column:account_id"`
	Account           *Account         `gorm:"foreignKey:AccountID"`
	PropertyID        *uuid.UUID       `gorm:"type:uuid;index;column:property_id"`
	Property          *Property        `gorm:"foreignKey:PropertyID"`
	AssignedTo        *uuid.UUID       `gorm:"type:uuid;column:assigned_to;index"`
	Notes             string           `gorm:"type:text"`
}

// WeightedValue returns the probability-adjusted bid value.
// A nil bid value weighs zero.
func (o *Opportunity) WeightedValue() float64 {
	return CalculateWeightedValue(o.BidValue, o.Probability)
}

// CalculateWeightedValue computes bidValue * probability / 100, treating a
// missing bid value as zero.
func CalculateWeightedValue(bidValue *float64, probability int) float64 {
	if bidValue == nil {
		return 0
	}
	return *bidValue * float64(probability) / 100
}

// OpportunityStageHistory tracks stage changes for audit purposes
type OpportunityStageHistory struct {
	ID            uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OpportunityID uuid.UUID         `gorm:"type:uuid;not null;index;column:opportunity_id"`
	Opportunity   *Opportunity      `gorm:"foreignKey:OpportunityID"`
	FromStage     *OpportunityStage `gorm:"type:varchar(50);column:from_stage"`
	ToStage       OpportunityStage  `gorm:"type:varchar(50);not null;column:to_stage"`
	ChangedByID   *uuid.UUID        `gorm:"type:uuid;column:changed_by_id"`
	ChangedByName string            `gorm:"type:varchar(200);column:changed_by_name"`
	Notes         string            `gorm:"type:text"`
	ChangedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;column:changed_at"`
}

// TableName overrides the default table name to match the migration
func (OpportunityStageHistory) TableName() string {
	return "opportunity_stage_history"
}

// Property represents a physical site an opportunity can be bid against
type Property struct {
	BaseModel
	TenantID     TenantID   `gorm:"type:varchar(50);not null;index;column:tenant_id"`
	AccountID    *uuid.UUID `gorm:"type:uuid;index;column:account_id"`
	Account      *Account   `gorm:"foreignKey:AccountID"`
	Address      string     `gorm:"type:varchar(500);not null"`
	City         string     `gorm:"type:varchar(100)"`
	State        string     `gorm:"type:varchar(50)"`
	Zip          string     `gorm:"type:varchar(20)"`
	BuildingType string     `gorm:"type:varchar(100);column:building_type"`
	Sqft         *int       `gorm:"column:sqft"`
}

// ActivityTargetType represents the type of entity an activity is associated with
type ActivityTargetType string

const (
	ActivityTargetProspect    ActivityTargetType = "Prospect"
	ActivityTargetAccount     ActivityTargetType = "Account"
	ActivityTargetOpportunity ActivityTargetType = "Opportunity"
)

// IsValid checks if the ActivityTargetType is a valid enum value
func (at ActivityTargetType) IsValid() bool {
	switch at {
	case ActivityTargetProspect, ActivityTargetAccount, ActivityTargetOpportunity:
		return true
	}
	return false
}

// ActivityType represents the type of activity
type ActivityType string

const (
	ActivityTypeCall   ActivityType = "call"
	ActivityTypeEmail  ActivityType = "email"
	ActivityTypeNote   ActivityType = "note"
	ActivityTypeSystem ActivityType = "system"
)

// IsValid checks if the ActivityType is a valid enum value
func (at ActivityType) IsValid() bool {
	switch at {
	case ActivityTypeCall, ActivityTypeEmail, ActivityTypeNote, ActivityTypeSystem:
		return true
	}
	return false
}

// Activity represents an event log entry for any entity
type Activity struct {
	BaseModel
	TenantID     TenantID           `gorm:"type:varchar(50);not null;index;column:tenant_id"`
	TargetType   ActivityTargetType `gorm:"type:varchar(50);not null;index;column:target_type"`
	TargetID     uuid.UUID          `gorm:"type:uuid;not null;index;column:target_id"`
	ActivityType ActivityType       `gorm:"type:varchar(50);not null;default:'note';column:activity_type"`
	Title        string             `gorm:"type:varchar(200);not null"`
	Body         string             `gorm:"type:varchar(2000)"`
	OccurredAt   time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP;index;column:occurred_at"`
	CreatorID    *uuid.UUID         `gorm:"type:uuid;column:creator_id"`
	CreatorName  string             `gorm:"type:varchar(200);column:creator_name"`
}

// TaskStatus represents the completion state of a task
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsValid checks if the TaskStatus is a valid enum value
func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusDone, TaskStatusCancelled:
		return true
	}
	return false
}

// Task represents a follow-up item tied to a prospect, account, or opportunity
type Task struct {
	BaseModel
	TenantID   TenantID           `gorm:"type:varchar(50);not null;index;column:tenant_id"`
	Title      string             `gorm:"type:varchar(200);not null"`
	Status     TaskStatus         `gorm:"type:varchar(50);not null;default:'open';index"`
	DueDate    *time.Time         `gorm:"type:date;column:due_date;index"`
	TargetType ActivityTargetType `gorm:"type:varchar(50);column:target_type"`
	TargetID   *uuid.UUID         `gorm:"type:uuid;column:target_id"`
	AssignedTo *uuid.UUID         `gorm:"type:uuid;column:assigned_to;index"`
	CreatedBy  *uuid.UUID         `gorm:"type:uuid;column:created_by"`
	Notes      string             `gorm:"type:text"`
}

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeProspectConverted NotificationType = "prospect_converted"
	NotificationTypeProspectStale     NotificationType = "prospect_stale"
	NotificationTypeStageChanged      NotificationType = "stage_changed"
	NotificationTypeOpportunityWon    NotificationType = "opportunity_won"
	NotificationTypeOpportunityLost   NotificationType = "opportunity_lost"
	NotificationTypeTaskOverdue       NotificationType = "task_overdue"
	NotificationTypeTaskAssigned      NotificationType = "task_assigned"
)

// Notification represents a user notification.
// Unread-ness is defined solely by ReadAt being null.
type Notification struct {
	BaseModel
	TenantID   TenantID   `gorm:"type:varchar(50);not null;index;column:tenant_id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Type       string     `gorm:"type:varchar(50);not null"`
	Title      string     `gorm:"type:varchar(200);not null"`
	Message    string     `gorm:"type:varchar(500);not null"`
	ReadAt     *time.Time `gorm:"column:read_at;index"`
	EntityID   *uuid.UUID `gorm:"type:uuid"`
	EntityType string     `gorm:"type:varchar(50)"`
}

// IsUnread reports whether the notification has not been read yet
func (n *Notification) IsUnread() bool {
	return n.ReadAt == nil
}

// UserRoleType represents a role a user can have
type UserRoleType string

const (
	RoleAdmin      UserRoleType = "admin"
	RoleManager    UserRoleType = "manager"
	RoleRep        UserRoleType = "rep"
	RoleViewer     UserRoleType = "viewer"
	RoleAPIService UserRoleType = "api_service"
)

// User represents a user profile in the system
type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TenantID    TenantID       `gorm:"type:varchar(50);not null;index;column:tenant_id" json:"tenantId"`
	Email       string         `gorm:"type:varchar(255);not null;unique" json:"email"`
	DisplayName string         `gorm:"type:varchar(200);not null;column:display_name" json:"displayName"`
	Roles       pq.StringArray `gorm:"type:text[];not null" json:"roles"`
	IsActive    bool           `gorm:"not null;default:true;column:is_active" json:"isActive"`
	LastLoginAt *time.Time     `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName overrides the default table name to match the migration
func (User) TableName() string {
	return "user_profiles"
}
