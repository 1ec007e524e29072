// Package conversion holds the prospect-to-account conversion wizard. The
// wizard is modeled as a server-owned state machine so the API, not the
// client, decides which transitions are legal.
package conversion

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/summitcrm/pipeline-api/internal/domain"
)

// Step identifies where a conversion session currently sits
type Step string

const (
	StepForm         Step = "form"
	StepDuplicates   Step = "duplicates"
	StepConfirmation Step = "confirmation"
	StepSuccess      Step = "success"
	StepCancelled    Step = "cancelled"
)

var (
	ErrInvalidTransition = errors.New("conversion: transition not allowed from current step")
	ErrConfirmInFlight   = errors.New("conversion: confirm already in progress")
	ErrSessionFinished   = errors.New("conversion: session already finished")
)

// Form carries the reviewed account data the rep submits on the first step
type Form struct {
	AccountName string
	CompanyType string
	Stage       domain.AccountStage
	AssigneeIDs []uuid.UUID
	Notes       string
	Opportunity *OpportunityDraft
	Properties  []PropertyDraft
}

// OpportunityDraft is an optional initial opportunity created with the account
type OpportunityDraft struct {
	Name              string
	OpportunityType   domain.OpportunityType
	BidValue          *float64
	Probability       int
	ExpectedCloseDate *time.Time
}

// PropertyDraft is a site row carried over from the prospect's research data
type PropertyDraft struct {
	Address      string
	City         string
	State        string
	Zip          string
	BuildingType string
	Sqft         *int
}

// Result records what a confirmed conversion produced
type Result struct {
	AccountID     uuid.UUID
	OpportunityID *uuid.UUID
	PropertyIDs   []uuid.UUID
	Merged        bool
}

// Session is one rep's in-progress conversion of one prospect. All mutation
// goes through the store, which serializes access; Session itself is not
// safe for concurrent use.
type Session struct {
	TenantID        domain.TenantID
	UserID          uuid.UUID
	ProspectID      uuid.UUID
	Step            Step
	Form            *Form
	Duplicates      []domain.DuplicateMatchDTO
	ChosenAccountID *uuid.UUID
	Result          *Result
	StartedAt       time.Time
	UpdatedAt       time.Time

	confirming bool
}

// NewSession starts a conversion at the form step
func NewSession(tenantID domain.TenantID, userID, prospectID uuid.UUID) *Session {
	now := time.Now()
	return &Session{
		TenantID:   tenantID,
		UserID:     userID,
		ProspectID: prospectID,
		Step:       StepForm,
		StartedAt:  now,
		UpdatedAt:  now,
	}
}

// Finished reports whether the session reached a terminal step
func (s *Session) Finished() bool {
	return s.Step == StepSuccess || s.Step == StepCancelled
}

// SubmitForm records the form and advances to the duplicates step. When the
// duplicate scan found nothing, the duplicates step is skipped entirely and
// the session lands on confirmation with a fresh-account decision.
func (s *Session) SubmitForm(form Form, duplicates []domain.DuplicateMatchDTO) error {
	if s.confirming {
		return ErrConfirmInFlight
	}
	if s.Step != StepForm && s.Step != StepDuplicates {
		return ErrInvalidTransition
	}

	s.Form = &form
	s.Duplicates = duplicates
	s.ChosenAccountID = nil

	if len(duplicates) == 0 {
		s.Step = StepConfirmation
	} else {
		s.Step = StepDuplicates
	}
	s.touch()
	return nil
}

// ChooseAccount records the rep's decision on the duplicates step and moves
// to confirmation. A nil accountID means "create a new account anyway".
func (s *Session) ChooseAccount(accountID *uuid.UUID) error {
	if s.confirming {
		return ErrConfirmInFlight
	}
	if s.Step != StepDuplicates {
		return ErrInvalidTransition
	}

	if accountID != nil {
		found := false
		for _, m := range s.Duplicates {
			if m.AccountID == *accountID {
				found = true
				break
			}
		}
		if !found {
			return ErrInvalidTransition
		}
	}

	s.ChosenAccountID = accountID
	s.Step = StepConfirmation
	s.touch()
	return nil
}

// Back steps backwards: confirmation returns to duplicates (or straight to
// the form when the duplicate scan was empty), duplicates returns to the form.
func (s *Session) Back() error {
	if s.confirming {
		return ErrConfirmInFlight
	}

	switch s.Step {
	case StepConfirmation:
		if len(s.Duplicates) == 0 {
			s.Step = StepForm
		} else {
			s.Step = StepDuplicates
		}
	case StepDuplicates:
		s.Step = StepForm
	default:
		return ErrInvalidTransition
	}
	s.touch()
	return nil
}

// BeginConfirm marks the session as executing. Exactly one BeginConfirm can
// succeed between confirmation and a terminal step; a second confirm while
// the first is writing gets ErrConfirmInFlight.
func (s *Session) BeginConfirm() error {
	if s.Finished() {
		return ErrSessionFinished
	}
	if s.confirming {
		return ErrConfirmInFlight
	}
	if s.Step != StepConfirmation {
		return ErrInvalidTransition
	}
	s.confirming = true
	return nil
}

// CompleteConfirm records the outcome and finishes the session
func (s *Session) CompleteConfirm(result Result) {
	s.Result = &result
	s.Step = StepSuccess
	s.confirming = false
	s.touch()
}

// FailConfirm returns the session to the confirmation step so the rep can
// retry after a transient failure
func (s *Session) FailConfirm() {
	s.confirming = false
	s.touch()
}

// Cancel abandons the session. Allowed from any step before the conversion
// has been written.
func (s *Session) Cancel() error {
	if s.confirming {
		return ErrConfirmInFlight
	}
	if s.Finished() {
		return ErrSessionFinished
	}
	s.Step = StepCancelled
	s.touch()
	return nil
}

// MergeTarget reports whether the conversion merges into an existing account,
// and which one
func (s *Session) MergeTarget() (uuid.UUID, bool) {
	if s.ChosenAccountID == nil {
		return uuid.Nil, false
	}
	return *s.ChosenAccountID, true
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}
