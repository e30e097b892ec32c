package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-central/internal/ai"
	"review-central/internal/models"
	"review-central/internal/service"
	"review-central/internal/testutil"
)

type fakeAnalyzer struct {
	mu         sync.Mutex
	summaryIn  ai.SummarizeFeedbackInput
	areasIn    ai.IdentifyImprovementAreasInput
	summaryErr error
}

func (f *fakeAnalyzer) SummarizeFeedback(_ context.Context, in ai.SummarizeFeedbackInput) (*ai.SummarizeFeedbackOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryIn = in
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return &ai.SummarizeFeedbackOutput{Summary: "Solid quarter."}, nil
}

func (f *fakeAnalyzer) IdentifyImprovementAreas(_ context.Context, in ai.IdentifyImprovementAreasInput) (*ai.IdentifyImprovementAreasOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.areasIn = in
	return &ai.IdentifyImprovementAreasOutput{
		KeyImprovementAreas: []string{"Delegation", "Estimation", "Writing"},
		SentimentAnalysis:   "Positive.",
	}, nil
}

func assignment(id, reviewee string, status models.AssignmentStatus) models.PeerReviewAssignment {
	return models.PeerReviewAssignment{ID: id, ReviewCycleID: "cycle-1", RevieweeID: reviewee, ReviewerID: "x", Status: status}
}

func newDashboard(analyzer service.FeedbackAnalyzer) *service.DashboardService {
	users := testutil.NewMemUsers(
		models.User{ID: "ann", Name: "Ann Archer"},
		models.User{ID: "ben", Name: "Ben Baker"},
		models.User{ID: "cat", Name: "Cat Cole"},
		models.User{ID: "dan", Name: "Dan Dale"},
	)
	cycles := testutil.NewMemCycles(models.ReviewCycle{
		ID:             "cycle-1",
		Name:           "Q4",
		Status:         models.CycleStatusActive,
		ParticipantIDs: []string{"dan", "ann", "ben", "cat", "ghost"},
	})
	assignments := testutil.NewMemAssignments(
		// ann: 1 of 2 completed
		assignment("a1", "ann", models.AssignmentStatusCompleted),
		assignment("a2", "ann", models.AssignmentStatusInProgress),
		// ben: 1 of 3 completed, declined is not counted
		assignment("b1", "ben", models.AssignmentStatusCompleted),
		assignment("b2", "ben", models.AssignmentStatusPending),
		assignment("b3", "ben", models.AssignmentStatusPending),
		assignment("b4", "ben", models.AssignmentStatusDeclined),
	)
	assignmentID := "a1"
	reviews := testutil.NewMemReviews(
		models.Review{ID: "r-ann", Type: models.ReviewTypeSelf, ReviewCycleID: "cycle-1", AuthorID: "ann", RevieweeID: "ann",
			Status: models.ReviewStatusSubmitted, Answers: []models.Answer{{QuestionID: "q1", AnswerText: "Shipped billing."}}},
		models.Review{ID: "r-peer", Type: models.ReviewTypePeer, ReviewCycleID: "cycle-1", AuthorID: "x", RevieweeID: "ann", AssignmentID: &assignmentID,
			Status: models.ReviewStatusSubmitted, Answers: []models.Answer{{QuestionID: "q1", AnswerText: "Great ownership."}, {QuestionID: "q2", AnswerText: "More docs."}}},
		models.Review{ID: "r-draft", Type: models.ReviewTypePeer, ReviewCycleID: "cycle-1", AuthorID: "y", RevieweeID: "ann",
			Status: models.ReviewStatusDraft, Answers: []models.Answer{{QuestionID: "q1", AnswerText: "unfinished"}}},
		models.Review{ID: "r-ben", Type: models.ReviewTypeSelf, ReviewCycleID: "cycle-1", AuthorID: "ben", RevieweeID: "ben",
			Status: models.ReviewStatusDraft},
		models.Review{ID: "r-cat", Type: models.ReviewTypeSelf, ReviewCycleID: "cycle-1", AuthorID: "cat", RevieweeID: "cat",
			Status: models.ReviewStatusSubmitted},
	)
	return service.NewDashboardService(cycles, users, assignments, reviews, analyzer)
}

func memberIDs(d *models.TeamDashboard) []string {
	ids := make([]string, 0, len(d.Members))
	for _, m := range d.Members {
		ids = append(ids, m.User.ID)
	}
	return ids
}

func TestTeamDashboardProgress(t *testing.T) {
	d, err := newDashboard(nil).TeamDashboard(context.Background(), "cycle-1", service.FilterAll, "")
	require.NoError(t, err)
	require.Equal(t, []string{"ann", "ben", "cat", "dan"}, memberIDs(d))

	ann, ben, cat, dan := d.Members[0], d.Members[1], d.Members[2], d.Members[3]
	assert.Equal(t, models.SelfReviewSubmitted, ann.SelfReviewStatus)
	assert.Equal(t, 2, ann.PeerReviewsAssignedCount)
	assert.Equal(t, 1, ann.PeerReviewsCompletedCount)
	assert.False(t, ann.AtRisk)

	assert.Equal(t, models.SelfReviewDraft, ben.SelfReviewStatus)
	assert.Equal(t, 3, ben.PeerReviewsAssignedCount)
	assert.Equal(t, 1, ben.PeerReviewsCompletedCount)
	assert.True(t, ben.AtRisk)

	assert.Equal(t, models.SelfReviewSubmitted, cat.SelfReviewStatus)
	assert.Zero(t, cat.PeerReviewsAssignedCount)
	assert.False(t, cat.AtRisk)

	assert.Equal(t, models.SelfReviewNotStarted, dan.SelfReviewStatus)
	assert.True(t, dan.AtRisk)
}

func TestTeamDashboardFilters(t *testing.T) {
	svc := newDashboard(nil)
	ctx := context.Background()

	tests := []struct {
		filter service.DashboardFilter
		query  string
		want   []string
	}{
		{service.FilterAtRisk, "", []string{"ben", "dan"}},
		{service.FilterSubmitted, "", []string{"ann", "cat"}},
		{service.FilterPending, "", []string{"ben", "dan"}},
		{"", "BA", []string{"ben"}},
		{service.FilterSubmitted, "cole", []string{"cat"}},
		{service.FilterAll, "nobody", []string{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter)+"/"+tt.query, func(t *testing.T) {
			d, err := svc.TeamDashboard(ctx, "cycle-1", tt.filter, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, memberIDs(d))
		})
	}

	_, err := svc.TeamDashboard(ctx, "cycle-1", "late", "")
	assert.True(t, service.IsValidation(err))

	_, err = svc.TeamDashboard(ctx, "missing", service.FilterAll, "")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestMemberInsights(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	insights, err := newDashboard(analyzer).MemberInsights(context.Background(), "cycle-1", "ann")
	require.NoError(t, err)

	assert.Equal(t, "Solid quarter.", insights.Summary)
	assert.Equal(t, "Positive.", insights.SentimentAnalysis)
	assert.Len(t, insights.KeyImprovementAreas, 3)
	assert.Equal(t, 1, insights.PeerReviewsConsidered)

	assert.Equal(t, "Ann Archer", analyzer.summaryIn.EmployeeName)
	assert.Equal(t, "Shipped billing.", analyzer.summaryIn.SelfReview)
	assert.Equal(t, []string{"Great ownership.\nMore docs."}, analyzer.summaryIn.PeerReviews)
	assert.Equal(t, analyzer.summaryIn.PeerReviews, analyzer.areasIn.PeerReviews)
}

func TestMemberInsightsErrors(t *testing.T) {
	ctx := context.Background()

	_, err := newDashboard(&fakeAnalyzer{}).MemberInsights(ctx, "cycle-1", "dan")
	assert.True(t, service.IsValidation(err), "no submitted material: %v", err)

	_, err = newDashboard(&fakeAnalyzer{}).MemberInsights(ctx, "cycle-1", "nobody")
	assert.ErrorIs(t, err, service.ErrNotFound)

	upstream := errors.New("model down")
	_, err = newDashboard(&fakeAnalyzer{summaryErr: upstream}).MemberInsights(ctx, "cycle-1", "ann")
	assert.ErrorIs(t, err, upstream)
}
