package conversion_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summitcrm/pipeline-api/internal/conversion"
	"github.com/summitcrm/pipeline-api/internal/domain"
)

func newTestSession() *conversion.Session {
	return conversion.NewSession("test-tenant", uuid.New(), uuid.New())
}

func testForm() conversion.Form {
	return conversion.Form{
		AccountName: "Globex Industrial",
		CompanyType: "property_owner",
		Stage:       domain.AccountStageQualified,
	}
}

func testDuplicates() []domain.DuplicateMatchDTO {
	return []domain.DuplicateMatchDTO{
		{
			AccountID:  uuid.New(),
			Name:       "Globex Industries",
			Domain:     "globex.com",
			MatchType:  "domain",
			Confidence: 1.0,
		},
		{
			AccountID:  uuid.New(),
			Name:       "Globex Industrial AS",
			MatchType:  "name_similarity",
			Confidence: 0.85,
		},
	}
}

func TestNewSession(t *testing.T) {
	userID := uuid.New()
	prospectID := uuid.New()
	s := conversion.NewSession("test-tenant", userID, prospectID)

	assert.Equal(t, conversion.StepForm, s.Step)
	assert.Equal(t, domain.TenantID("test-tenant"), s.TenantID)
	assert.Equal(t, userID, s.UserID)
	assert.Equal(t, prospectID, s.ProspectID)
	assert.False(t, s.StartedAt.IsZero())
	assert.False(t, s.UpdatedAt.IsZero())
	assert.False(t, s.Finished())
}

func TestSession_SubmitForm(t *testing.T) {
	t.Run("with duplicates moves to duplicates step", func(t *testing.T) {
		s := newTestSession()
		dups := testDuplicates()

		err := s.SubmitForm(testForm(), dups)
		require.NoError(t, err)

		assert.Equal(t, conversion.StepDuplicates, s.Step)
		assert.Len(t, s.Duplicates, 2)
		assert.NotNil(t, s.Form)
	})

	t.Run("without duplicates skips to confirmation", func(t *testing.T) {
		s := newTestSession()

		err := s.SubmitForm(testForm(), nil)
		require.NoError(t, err)

		assert.Equal(t, conversion.StepConfirmation, s.Step)
	})

	t.Run("resubmit from duplicates step resets chosen account", func(t *testing.T) {
		s := newTestSession()
		dups := testDuplicates()
		require.NoError(t, s.SubmitForm(testForm(), dups))
		require.NoError(t, s.ChooseAccount(&dups[0].AccountID))
		require.NoError(t, s.Back())

		err := s.SubmitForm(testForm(), dups)
		require.NoError(t, err)
		assert.Nil(t, s.ChosenAccountID)
	})

	t.Run("rejected from confirmation step", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, s.SubmitForm(testForm(), nil))

		err := s.SubmitForm(testForm(), nil)
		assert.ErrorIs(t, err, conversion.ErrInvalidTransition)
	})
}

func TestSession_ChooseAccount(t *testing.T) {
	t.Run("listed account moves to confirmation as merge", func(t *testing.T) {
		s := newTestSession()
		dups := testDuplicates()
		require.NoError(t, s.SubmitForm(testForm(), dups))

		err := s.ChooseAccount(&dups[1].AccountID)
		require.NoError(t, err)

		assert.Equal(t, conversion.StepConfirmation, s.Step)
		target, merge := s.MergeTarget()
		assert.True(t, merge)
		assert.Equal(t, dups[1].AccountID, target)
	})

	t.Run("nil means create new account", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, s.SubmitForm(testForm(), testDuplicates()))

		err := s.ChooseAccount(nil)
		require.NoError(t, err)

		assert.Equal(t, conversion.StepConfirmation, s.Step)
		_, merge := s.MergeTarget()
		assert.False(t, merge)
	})

	t.Run("account not in duplicate list is rejected", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, s.SubmitForm(testForm(), testDuplicates()))

		unknown := uuid.New()
		err := s.ChooseAccount(&unknown)
		assert.ErrorIs(t, err, conversion.ErrInvalidTransition)
		assert.Equal(t, conversion.StepDuplicates, s.Step)
	})

	t.Run("rejected outside duplicates step", func(t *testing.T) {
		s := newTestSession()
		err := s.ChooseAccount(nil)
		assert.ErrorIs(t, err, conversion.ErrInvalidTransition)
	})
}

func TestSession_Back(t *testing.T) {
	t.Run("confirmation to duplicates", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, s.SubmitForm(testForm(), testDuplicates()))
		require.NoError(t, s.ChooseAccount(nil))

		require.NoError(t, s.Back())
		assert.Equal(t, conversion.StepDuplicates, s.Step)
	})

	t.Run("confirmation to form when no duplicates were found", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, s.SubmitForm(testForm(), nil))

		require.NoError(t, s.Back())
		assert.Equal(t, conversion.StepForm, s.Step)
	})

	t.Run("duplicates to form", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, s.SubmitForm(testForm(), testDuplicates()))

		require.NoError(t, s.Back())
		assert.Equal(t, conversion.StepForm, s.Step)
	})

	t.Run("rejected at form step", func(t *testing.T) {
		s := newTestSession()
		err := s.Back()
		assert.ErrorIs(t, err, conversion.ErrInvalidTransition)
	})
}

func TestSession_ConfirmLifecycle(t *testing.T) {
	t.Run("begin complete", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, s.SubmitForm(testForm(), nil))

		require.NoError(t, s.BeginConfirm())

		accountID := uuid.New()
		s.CompleteConfirm(conversion.Result{AccountID: accountID})

		assert.Equal(t, conversion.StepSuccess, s.Step)
		assert.True(t, s.Finished())
		require.NotNil(t, s.Result)
		assert.Equal(t, accountID, s.Result.AccountID)
	})

	t.Run("begin before confirmation step is rejected", func(t *testing.T) {
		s := newTestSession()
		err := s.BeginConfirm()
		assert.ErrorIs(t, err, conversion.ErrInvalidTransition)
	})

	t.Run("double begin reports confirm in flight", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, s.SubmitForm(testForm(), nil))
		require.NoError(t, s.BeginConfirm())

		err := s.BeginConfirm()
		assert.ErrorIs(t, err, conversion.ErrConfirmInFlight)
	})

	t.Run("mutations blocked while confirm is in flight", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, s.SubmitForm(testForm(), nil))
		require.NoError(t, s.BeginConfirm())

		assert.ErrorIs(t, s.Cancel(), conversion.ErrConfirmInFlight)
	})

	t.Run("fail confirm allows a retry", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, s.SubmitForm(testForm(), nil))
		require.NoError(t, s.BeginConfirm())

		s.FailConfirm()
		assert.Equal(t, conversion.StepConfirmation, s.Step)

		require.NoError(t, s.BeginConfirm())
		s.CompleteConfirm(conversion.Result{AccountID: uuid.New()})
		assert.Equal(t, conversion.StepSuccess, s.Step)
	})

	t.Run("begin after success reports session finished", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, s.SubmitForm(testForm(), nil))
		require.NoError(t, s.BeginConfirm())
		s.CompleteConfirm(conversion.Result{AccountID: uuid.New()})

		err := s.BeginConfirm()
		assert.ErrorIs(t, err, conversion.ErrSessionFinished)
	})
}

func TestSession_Cancel(t *testing.T) {
	t.Run("from any live step", func(t *testing.T) {
		for _, setup := range []func(*conversion.Session){
			func(s *conversion.Session) {},
			func(s *conversion.Session) { _ = s.SubmitForm(testForm(), testDuplicates()) },
			func(s *conversion.Session) { _ = s.SubmitForm(testForm(), nil) },
		} {
			s := newTestSession()
			setup(s)

			require.NoError(t, s.Cancel())
			assert.Equal(t, conversion.StepCancelled, s.Step)
			assert.True(t, s.Finished())
		}
	})

	t.Run("after success reports session finished", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, s.SubmitForm(testForm(), nil))
		require.NoError(t, s.BeginConfirm())
		s.CompleteConfirm(conversion.Result{AccountID: uuid.New()})

		err := s.Cancel()
		assert.ErrorIs(t, err, conversion.ErrSessionFinished)
	})

	t.Run("cancelled session rejects further moves", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, s.Cancel())

		assert.Error(t, s.SubmitForm(testForm(), nil))
		assert.Error(t, s.Back())
	})
}
