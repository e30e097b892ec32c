package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-central/internal/models"
	"review-central/internal/repository"
	"review-central/internal/securestore"
	"review-central/internal/testutil"
)

// TestRepositories runs the store tests against one PostgreSQL container
func TestRepositories(t *testing.T) {
	db := testutil.SetupPostgres(t)
	ctx := context.Background()

	users := repository.NewUserRepository(db)
	questionnaires := repository.NewQuestionnaireRepository(db)
	cycles := repository.NewReviewCycleRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	sealer, err := securestore.NewLocalSealer("repository-test-secret")
	require.NoError(t, err)
	reviews := repository.NewReviewRepository(db, sealer)
	audits := repository.NewAuditRepository(db)

	t.Run("users are case-insensitively unique and ordered by name", func(t *testing.T) {
		bob := &models.User{ID: uuid.NewString(), Name: "Bob", Email: "Bob@Example.com", Role: models.RoleEmployee}
		alice := &models.User{ID: uuid.NewString(), Name: "Alice", Email: "alice@example.com", Role: models.RoleAdmin}
		require.NoError(t, users.Create(ctx, bob))
		require.NoError(t, users.Create(ctx, alice))
		assert.Equal(t, "bob@example.com", bob.Email)

		dup := &models.User{ID: uuid.NewString(), Name: "Other", Email: "BOB@example.com", Role: models.RoleEmployee}
		assert.ErrorIs(t, users.Create(ctx, dup), repository.ErrUserExists)

		found, err := users.GetByEmail(ctx, "BOB@EXAMPLE.COM")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, found.ID)

		all, err := users.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Alice", all[0].Name)

		_, err = users.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.ErrorIs(t, users.Delete(ctx, "missing"), repository.ErrNotFound)
	})

	t.Run("questionnaire versioning keeps one active version", func(t *testing.T) {
		v1 := &models.QuestionnaireVersion{
			ID:         uuid.NewString(),
			TemplateID: uuid.NewString(),
			Name:       "Quarterly Self",
			Type:       models.ReviewTypeSelf,
			Questions:  []models.Question{{ID: "q1", Text: "What went well?", Order: 1}},
		}
		require.NoError(t, questionnaires.Create(ctx, v1))
		assert.Equal(t, 1, v1.Version)

		v2 := *v1
		v2.ID = uuid.NewString()
		v2.Name = "Quarterly Self (revised)"
		require.NoError(t, questionnaires.SaveNewVersion(ctx, v1.ID, &v2))
		assert.Equal(t, 2, v2.Version)

		stale, err := questionnaires.GetByID(ctx, v1.ID)
		require.NoError(t, err)
		assert.False(t, stale.IsActive)

		history, err := questionnaires.GetVersions(ctx, v1.TemplateID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, 2, history[0].Version)
		assert.True(t, history[0].IsActive)
		assert.Equal(t, "What went well?", history[0].Questions[0].Text)

		orphan := v2
		orphan.ID = uuid.NewString()
		assert.ErrorIs(t, questionnaires.SaveNewVersion(ctx, "not-in-template", &orphan), repository.ErrNotFound)
	})

	t.Run("concurrent edits of one template serialise", func(t *testing.T) {
		v1 := &models.QuestionnaireVersion{
			ID:         uuid.NewString(),
			TemplateID: uuid.NewString(),
			Name:       "Peer",
			Type:       models.ReviewTypePeer,
			Questions:  []models.Question{{ID: "q1", Text: "Strengths?", Order: 1}},
		}
		require.NoError(t, questionnaires.Create(ctx, v1))

		var wg sync.WaitGroup
		errs := make([]error, 5)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				next := *v1
				next.ID = uuid.NewString()
				errs[i] = questionnaires.SaveNewVersion(ctx, v1.ID, &next)
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		history, err := questionnaires.GetVersions(ctx, v1.TemplateID)
		require.NoError(t, err)
		require.Len(t, history, 6)

		active := 0
		for i, v := range history {
			assert.Equal(t, 6-i, v.Version)
			if v.IsActive {
				active++
			}
		}
		assert.Equal(t, 1, active)
	})

	t.Run("deactivate template", func(t *testing.T) {
		v1 := &models.QuestionnaireVersion{
			ID:         uuid.NewString(),
			TemplateID: uuid.NewString(),
			Name:       "Retired",
			Type:       models.ReviewTypeSelf,
			Questions:  []models.Question{{ID: "q1", Text: "Anything?", Order: 1}},
		}
		require.NoError(t, questionnaires.Create(ctx, v1))

		n, err := questionnaires.DeactivateTemplate(ctx, v1.TemplateID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = questionnaires.DeactivateTemplate(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)

		active, err := questionnaires.GetActiveByType(ctx, models.ReviewTypeSelf)
		require.NoError(t, err)
		for _, q := range active {
			assert.NotEqual(t, v1.TemplateID, q.TemplateID)
		}
	})

	t.Run("review cycles keep participants and order", func(t *testing.T) {
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		older := &models.ReviewCycle{
			ID: uuid.NewString(), Name: "H2 2025", Status: models.CycleStatusActive,
			StartDate: start.AddDate(0, -6, 0), EndDate: start.AddDate(0, -5, 0),
			ParticipantIDs: []string{"u1"},
		}
		newer := &models.ReviewCycle{
			ID: uuid.NewString(), Name: "H1 2026", Status: models.CycleStatusActive,
			StartDate: start, EndDate: start.AddDate(0, 1, 0),
			ParticipantIDs: []string{"u1", "u2"},
		}
		require.NoError(t, cycles.Upsert(ctx, older))
		require.NoError(t, cycles.Upsert(ctx, newer))

		active, err := cycles.GetByStatus(ctx, models.CycleStatusActive)
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, newer.ID, active[0].ID)
		assert.Equal(t, []string{"u1", "u2"}, active[0].ParticipantIDs)

		older.Status = models.CycleStatusClosed
		require.NoError(t, cycles.Upsert(ctx, older))
		active, err = cycles.GetByStatus(ctx, models.CycleStatusActive)
		require.NoError(t, err)
		assert.Len(t, active, 1)

		require.NoError(t, cycles.Delete(ctx, older.ID))
		_, err = cycles.GetByID(ctx, older.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("assignments and sealed reviews", func(t *testing.T) {
		a := &models.PeerReviewAssignment{
			ID: uuid.NewString(), ReviewCycleID: "cycle-x",
			RevieweeID: "u1", RevieweeName: "Alice",
			ReviewerID: "u2", ReviewerName: "Bob",
			QuestionnaireID: "q-v1", Status: models.AssignmentStatusPending,
			DueDate: time.Now().Add(72 * time.Hour).UTC(),
		}
		require.NoError(t, assignments.Upsert(ctx, a))

		review := &models.Review{
			ID: uuid.NewString(), Type: models.ReviewTypePeer, ReviewCycleID: "cycle-x",
			QuestionnaireID: "q-v1", AuthorID: "u2", RevieweeID: "u1", AssignmentID: &a.ID,
			Status:  models.ReviewStatusDraft,
			Answers: []models.Answer{{QuestionID: "q1", AnswerText: "Very reliable"}},
		}
		require.NoError(t, reviews.Create(ctx, review))

		var raw string
		require.NoError(t, db.QueryRowContext(ctx, `SELECT answers FROM reviews WHERE id = $1`, review.ID).Scan(&raw))
		assert.NotContains(t, raw, "Very reliable")

		now := time.Now().UTC()
		review.Status = models.ReviewStatusSubmitted
		review.SubmittedAt = &now
		require.NoError(t, reviews.Update(ctx, review))
		require.NoError(t, assignments.UpdateStatus(ctx, a.ID, models.AssignmentStatusCompleted, &review.ID))

		stored, err := reviews.GetByAssignment(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ReviewStatusSubmitted, stored.Status)
		assert.Equal(t, "Very reliable", stored.Answers[0].AnswerText)

		mine, err := assignments.GetByReviewer(ctx, "u2")
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, models.AssignmentStatusCompleted, mine[0].Status)
		require.NotNil(t, mine[0].ReviewID)
		assert.Equal(t, review.ID, *mine[0].ReviewID)

		// a plain upsert must not drop the linked review
		mine[0].ReviewID = nil
		mine[0].ReviewerName = "Robert"
		require.NoError(t, assignments.Upsert(ctx, &mine[0]))
		require.NotNil(t, mine[0].ReviewID)

		_, err = reviews.GetSelfReview(ctx, "u2", "cycle-x")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("audit log paging", func(t *testing.T) {
		userID := "admin-1"
		for _, action := range []string{"user.save", "cycle.save", "assignment.delete"} {
			require.NoError(t, audits.Create(ctx, &models.AuditLog{UserID: &userID, Action: action, Resource: "test"}))
		}
		require.NoError(t, audits.Create(ctx, &models.AuditLog{Action: "anonymous", Resource: "test"}))

		total, err := audits.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, total)

		page, err := audits.GetAll(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "anonymous", page[0].Action)
		assert.Nil(t, page[0].UserID)
	})

	t.Run("missing table reports store not ready", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `DROP TABLE peer_review_assignments`)
		require.NoError(t, err)

		_, err = assignments.GetByCycle(ctx, "cycle-x")
		require.Error(t, err)
		assert.True(t, errors.Is(err, repository.ErrStoreNotReady))
	})
}
