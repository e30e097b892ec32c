package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-central/internal/models"
	"review-central/internal/service"
	"review-central/internal/testutil"
)

// failingAssignments fails UpdateStatus with updateErr when it is set
type failingAssignments struct {
	*testutil.MemAssignments
	updateErr error
}

func (s *failingAssignments) UpdateStatus(ctx context.Context, id string, status models.AssignmentStatus, reviewID *string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.MemAssignments.UpdateStatus(ctx, id, status, reviewID)
}

// racingReviews stores winner on the next Create and then rejects the
// caller's review the way the unique indexes on reviews do
type racingReviews struct {
	*testutil.MemReviews
	winner *models.Review
}

func (s *racingReviews) Create(ctx context.Context, r *models.Review) error {
	if s.winner == nil {
		return s.MemReviews.Create(ctx, r)
	}
	if err := s.MemReviews.Create(ctx, s.winner); err != nil {
		return err
	}
	s.winner = nil
	return &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

type reviewFixture struct {
	reviews     *racingReviews
	assignments *failingAssignments
	svc         *service.ReviewService
}

func newReviewFixture() *reviewFixture {
	questions := []models.Question{
		{ID: "q2", Text: "What should change?", Order: 2},
		{ID: "q1", Text: "What went well?", Order: 1},
	}
	questionnaires := testutil.NewMemQuestionnaires(
		models.QuestionnaireVersion{ID: "self-q", TemplateID: "self-q", Version: 1, Name: "Self", Type: models.ReviewTypeSelf, Questions: questions, IsActive: true},
		models.QuestionnaireVersion{ID: "peer-q", TemplateID: "peer-q", Version: 1, Name: "Peer", Type: models.ReviewTypePeer, Questions: questions, IsActive: true},
	)
	cycles := testutil.NewMemCycles(
		models.ReviewCycle{ID: "cycle-1", Name: "Q4", Status: models.CycleStatusActive, ParticipantIDs: []string{"alice", "bob"}},
		models.ReviewCycle{ID: "old", Name: "Q1", Status: models.CycleStatusClosed},
	)
	assignments := &failingAssignments{MemAssignments: testutil.NewMemAssignments(models.PeerReviewAssignment{
		ID:              "as-1",
		ReviewCycleID:   "cycle-1",
		RevieweeID:      "alice",
		ReviewerID:      "bob",
		QuestionnaireID: "peer-q",
		Status:          models.AssignmentStatusPending,
		DueDate:         time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC),
	})}
	reviews := &racingReviews{MemReviews: testutil.NewMemReviews()}

	return &reviewFixture{
		reviews:     reviews,
		assignments: assignments,
		svc:         service.NewReviewService(reviews, assignments, questionnaires, cycles),
	}
}

func TestStartSelfReviewIsIdempotent(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	first, err := f.svc.StartSelfReview(ctx, "alice", "cycle-1", "self-q")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusDraft, first.Status)
	assert.Equal(t, "alice", first.RevieweeID)

	second, err := f.svc.StartSelfReview(ctx, "alice", "cycle-1", "self-q")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestStartSelfReviewValidation(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	_, err := f.svc.StartSelfReview(ctx, "alice", "old", "self-q")
	assert.True(t, service.IsValidation(err), "closed cycle: %v", err)

	_, err = f.svc.StartSelfReview(ctx, "alice", "cycle-1", "peer-q")
	assert.True(t, service.IsValidation(err), "peer questionnaire: %v", err)

	_, err = f.svc.StartSelfReview(ctx, "alice", "missing", "self-q")
	assert.True(t, service.IsValidation(err), "missing cycle: %v", err)

	_, err = f.svc.StartSelfReview(ctx, "alice", "", "self-q")
	assert.True(t, service.IsValidation(err))
}

func TestSubmitRequiresEveryAnswer(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	review, err := f.svc.StartSelfReview(ctx, "alice", "cycle-1", "self-q")
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, "alice", review.ID, []models.Answer{
		{QuestionID: "q1", AnswerText: "Shipped billing."},
		{QuestionID: "q2", AnswerText: "   "},
	})
	require.Error(t, err)
	assert.True(t, service.IsValidation(err))
	assert.Contains(t, err.Error(), "Incomplete review")

	stored, err := f.reviews.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusDraft, stored.Status)
	assert.Nil(t, stored.SubmittedAt)
}

func TestSaveDraftThenSubmit(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	review, err := f.svc.StartSelfReview(ctx, "alice", "cycle-1", "self-q")
	require.NoError(t, err)

	draft, err := f.svc.SaveDraft(ctx, "alice", review.ID, []models.Answer{{QuestionID: "q2", AnswerText: "More pairing."}})
	require.NoError(t, err)
	assert.Equal(t, []models.Answer{
		{QuestionID: "q1", AnswerText: ""},
		{QuestionID: "q2", AnswerText: "More pairing."},
	}, draft.Answers)

	_, err = f.svc.SaveDraft(ctx, "alice", review.ID, []models.Answer{{QuestionID: "q9", AnswerText: "?"}})
	assert.True(t, service.IsValidation(err))

	_, err = f.svc.SaveDraft(ctx, "bob", review.ID, nil)
	assert.ErrorIs(t, err, service.ErrForbidden)

	submitted, err := f.svc.Submit(ctx, "alice", review.ID, []models.Answer{
		{QuestionID: "q1", AnswerText: "Shipped billing."},
		{QuestionID: "q2", AnswerText: "More pairing."},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	_, err = f.svc.SaveDraft(ctx, "alice", review.ID, nil)
	assert.True(t, service.IsValidation(err), "submitted reviews are read-only")
}

func TestPeerReviewCompletesAssignment(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	_, err := f.svc.StartPeerReview(ctx, "alice", "as-1")
	assert.ErrorIs(t, err, service.ErrForbidden)

	review, err := f.svc.StartPeerReview(ctx, "bob", "as-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewTypePeer, review.Type)
	assert.Equal(t, "alice", review.RevieweeID)

	a, err := f.assignments.GetByID(ctx, "as-1")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusInProgress, a.Status)
	assert.Nil(t, a.ReviewID)

	again, err := f.svc.StartPeerReview(ctx, "bob", "as-1")
	require.NoError(t, err)
	assert.Equal(t, review.ID, again.ID)

	_, err = f.svc.Submit(ctx, "bob", review.ID, []models.Answer{
		{QuestionID: "q1", AnswerText: "Great ownership."},
		{QuestionID: "q2", AnswerText: "Share more context."},
	})
	require.NoError(t, err)

	a, err = f.assignments.GetByID(ctx, "as-1")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusCompleted, a.Status)
	require.NotNil(t, a.ReviewID)
	assert.Equal(t, review.ID, *a.ReviewID)
}

func TestGetReview(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	review, err := f.svc.StartSelfReview(ctx, "alice", "cycle-1", "self-q")
	require.NoError(t, err)

	detail, err := f.svc.GetReview(ctx, "alice", review.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Questionnaire)
	assert.Equal(t, "q1", detail.Questionnaire.Questions[0].ID)

	_, err = f.svc.GetReview(ctx, "bob", review.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.svc.GetReview(ctx, "alice", "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)

	mine, err := f.svc.GetMyReviews(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

var peerAnswers = []models.Answer{
	{QuestionID: "q1", AnswerText: "Great ownership."},
	{QuestionID: "q2", AnswerText: "Share more context."},
}

func TestSubmitRetryCompletesAssignment(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	review, err := f.svc.StartPeerReview(ctx, "bob", "as-1")
	require.NoError(t, err)

	f.assignments.updateErr = errors.New("connection reset by peer")
	_, err = f.svc.Submit(ctx, "bob", review.ID, peerAnswers)
	require.Error(t, err)
	assert.False(t, service.IsValidation(err))

	stored, err := f.reviews.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusSubmitted, stored.Status)
	a, err := f.assignments.GetByID(ctx, "as-1")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusInProgress, a.Status)

	f.assignments.updateErr = nil
	retried, err := f.svc.Submit(ctx, "bob", review.ID, peerAnswers)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusSubmitted, retried.Status)
	assert.Equal(t, peerAnswers, retried.Answers)

	a, err = f.assignments.GetByID(ctx, "as-1")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusCompleted, a.Status)
	require.NotNil(t, a.ReviewID)
	assert.Equal(t, review.ID, *a.ReviewID)

	_, err = f.svc.Submit(ctx, "bob", review.ID, peerAnswers)
	assert.True(t, service.IsValidation(err), "completed assignments are not resubmitted: %v", err)
}

func TestStartPeerReviewRetryMovesAssignment(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	f.assignments.updateErr = errors.New("connection reset by peer")
	_, err := f.svc.StartPeerReview(ctx, "bob", "as-1")
	require.Error(t, err)

	draft, err := f.reviews.GetByAssignment(ctx, "as-1")
	require.NoError(t, err)
	a, err := f.assignments.GetByID(ctx, "as-1")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusPending, a.Status)

	f.assignments.updateErr = nil
	review, err := f.svc.StartPeerReview(ctx, "bob", "as-1")
	require.NoError(t, err)
	assert.Equal(t, draft.ID, review.ID)

	a, err = f.assignments.GetByID(ctx, "as-1")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusInProgress, a.Status)
}

func TestStartReviewReturnsConcurrentDraft(t *testing.T) {
	ctx := context.Background()

	t.Run("self", func(t *testing.T) {
		f := newReviewFixture()
		f.reviews.winner = &models.Review{
			ID:              "winner",
			Type:            models.ReviewTypeSelf,
			ReviewCycleID:   "cycle-1",
			QuestionnaireID: "self-q",
			AuthorID:        "alice",
			RevieweeID:      "alice",
			Status:          models.ReviewStatusDraft,
		}

		review, err := f.svc.StartSelfReview(ctx, "alice", "cycle-1", "self-q")
		require.NoError(t, err)
		assert.Equal(t, "winner", review.ID)

		mine, err := f.svc.GetMyReviews(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, mine, 1)
	})

	t.Run("peer", func(t *testing.T) {
		f := newReviewFixture()
		assignmentID := "as-1"
		f.reviews.winner = &models.Review{
			ID:              "winner",
			Type:            models.ReviewTypePeer,
			ReviewCycleID:   "cycle-1",
			QuestionnaireID: "peer-q",
			AuthorID:        "bob",
			RevieweeID:      "alice",
			AssignmentID:    &assignmentID,
			Status:          models.ReviewStatusDraft,
		}

		review, err := f.svc.StartPeerReview(ctx, "bob", "as-1")
		require.NoError(t, err)
		assert.Equal(t, "winner", review.ID)

		a, err := f.assignments.GetByID(ctx, "as-1")
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentStatusInProgress, a.Status)
	})
}

func TestSubmitRejectsDeclinedAssignment(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	review, err := f.svc.StartPeerReview(ctx, "bob", "as-1")
	require.NoError(t, err)

	// an admin declines the assignment while the draft is open
	require.NoError(t, f.assignments.UpdateStatus(ctx, "as-1", models.AssignmentStatusDeclined, nil))

	_, err = f.svc.Submit(ctx, "bob", review.ID, peerAnswers)
	require.Error(t, err)
	assert.True(t, service.IsValidation(err))
	assert.Contains(t, err.Error(), "declined")

	a, err := f.assignments.GetByID(ctx, "as-1")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusDeclined, a.Status)
	assert.Nil(t, a.ReviewID)

	stored, err := f.reviews.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusDraft, stored.Status)
}
