package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-central/internal/models"
	"review-central/internal/service"
	"review-central/internal/testutil"
)

func directory() *testutil.MemUsers {
	return testutil.NewMemUsers(
		models.User{ID: "alice", Name: "Alice Smith", Email: "alice@example.com", Role: models.RoleEmployee, AvatarURL: "alice.png"},
		models.User{ID: "bob", Name: "Bob Jones", Email: "bob@example.com", Role: models.RoleEmployee, AvatarURL: "bob.png"},
		models.User{ID: "carol", Name: "Carol White", Email: "carol@example.com", Role: models.RoleTeamLeader},
	)
}

func assignmentInput() service.SaveAssignmentInput {
	return service.SaveAssignmentInput{
		ReviewCycleID:   "cycle-1",
		RevieweeID:      "alice",
		ReviewerID:      "bob",
		QuestionnaireID: "peer-q",
		Status:          models.AssignmentStatusPending,
		DueDate:         time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC),
	}
}

func TestSaveAssignmentSnapshotsUsers(t *testing.T) {
	store := testutil.NewMemAssignments()
	svc := service.NewAssignmentService(store, directory())

	a, err := svc.SaveAssignment(context.Background(), assignmentInput())
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Alice Smith", a.RevieweeName)
	assert.Equal(t, "alice.png", a.RevieweeAvatarURL)
	assert.Equal(t, "Bob Jones", a.ReviewerName)
	assert.Equal(t, "bob.png", a.ReviewerAvatarURL)

	stored, err := svc.GetAssignment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ReviewerName, stored.ReviewerName)
}

func TestSaveAssignmentRejectsSelfAssignment(t *testing.T) {
	store := testutil.NewMemAssignments()
	svc := service.NewAssignmentService(store, directory())

	input := assignmentInput()
	input.ReviewerID = "alice"
	_, err := svc.SaveAssignment(context.Background(), input)
	assert.ErrorIs(t, err, service.ErrSelfAssignment)
	assert.Empty(t, svc.GetAssignmentsByCycle(context.Background(), "cycle-1"))
}

func TestSaveAssignmentValidation(t *testing.T) {
	svc := service.NewAssignmentService(testutil.NewMemAssignments(), directory())

	missing := assignmentInput()
	missing.QuestionnaireID = ""
	badStatus := assignmentInput()
	badStatus.Status = "archived"
	noDue := assignmentInput()
	noDue.DueDate = time.Time{}
	unknown := assignmentInput()
	unknown.ReviewerID = "nobody"

	for name, input := range map[string]service.SaveAssignmentInput{
		"missing questionnaire": missing,
		"bad status":            badStatus,
		"no due date":           noDue,
		"unknown reviewer":      unknown,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SaveAssignment(context.Background(), input)
			assert.True(t, service.IsValidation(err), "got %v", err)
		})
	}
}

func TestSaveAssignmentAllowsAnyStatusChange(t *testing.T) {
	svc := service.NewAssignmentService(testutil.NewMemAssignments(), directory())
	ctx := context.Background()

	input := assignmentInput()
	input.Status = models.AssignmentStatusCompleted
	a, err := svc.SaveAssignment(ctx, input)
	require.NoError(t, err)

	input.ID = a.ID
	input.Status = models.AssignmentStatusPending
	a, err = svc.SaveAssignment(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusPending, a.Status)
}

func TestGetAssignmentsByCycle(t *testing.T) {
	store := testutil.NewMemAssignments()
	svc := service.NewAssignmentService(store, directory())
	ctx := context.Background()

	_, err := svc.SaveAssignment(ctx, assignmentInput())
	require.NoError(t, err)

	assert.Len(t, svc.GetAssignmentsByCycle(ctx, "cycle-1"), 1)
	assert.Equal(t, 1, store.CycleQueries)

	empty := svc.GetAssignmentsByCycle(ctx, "")
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
	assert.Equal(t, 1, store.CycleQueries, "empty cycle id must not query the store")

	store.NotReady = true
	assert.Equal(t, []models.PeerReviewAssignment{}, svc.GetAssignmentsByCycle(ctx, "cycle-1"))
}

func TestGetAssignmentsForReviewer(t *testing.T) {
	svc := service.NewAssignmentService(testutil.NewMemAssignments(), directory())
	ctx := context.Background()

	_, err := svc.SaveAssignment(ctx, assignmentInput())
	require.NoError(t, err)

	mine, err := svc.GetAssignmentsForReviewer(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := svc.GetAssignmentsForReviewer(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveReviewCycle(t *testing.T) {
	svc := service.NewReviewCycleService(testutil.NewMemCycles())
	ctx := context.Background()
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	cycle, err := svc.SaveReviewCycle(ctx, service.SaveReviewCycleInput{
		Name:           "Q4 2026",
		StartDate:      start,
		EndDate:        start.AddDate(0, 2, 0),
		ParticipantIDs: []string{"alice", "bob", "alice", " "},
		Status:         models.CycleStatusActive,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, cycle.ParticipantIDs)

	_, err = svc.SaveReviewCycle(ctx, service.SaveReviewCycleInput{
		Name:      "Backwards",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, -1),
		Status:    models.CycleStatusDraft,
	})
	assert.True(t, service.IsValidation(err))

	_, err = svc.SaveReviewCycle(ctx, service.SaveReviewCycleInput{
		Name:      "Older",
		StartDate: start.AddDate(-1, 0, 0),
		EndDate:   start.AddDate(-1, 1, 0),
		Status:    models.CycleStatusClosed,
	})
	require.NoError(t, err)

	all, err := svc.GetReviewCycles(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Q4 2026", all[0].Name)

	active, err := svc.GetActiveReviewCycles(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, cycle.ID, active[0].ID)
}

func TestReviewCyclesStoreNotReady(t *testing.T) {
	store := testutil.NewMemCycles()
	store.NotReady = true
	svc := service.NewReviewCycleService(store)

	all, err := svc.GetReviewCycles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	active, err := svc.GetActiveReviewCycles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}
