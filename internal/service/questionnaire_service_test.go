package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-central/internal/models"
	"review-central/internal/service"
	"review-central/internal/testutil"
)

func newQuestionnaireInput(name string) service.SaveQuestionnaireInput {
	return service.SaveQuestionnaireInput{
		Name: name,
		Type: models.ReviewTypeSelf,
		Questions: []models.Question{
			{Text: "What went well?"},
			{Text: "What would you change?"},
		},
	}
}

func TestSaveQuestionnaireVersioning(t *testing.T) {
	store := testutil.NewMemQuestionnaires()
	svc := service.NewQuestionnaireService(store)
	ctx := context.Background()

	v1, err := svc.SaveQuestionnaire(ctx, newQuestionnaireInput("Engineering"))
	require.NoError(t, err)
	assert.Equal(t, v1.ID, v1.TemplateID)
	assert.Equal(t, 1, v1.Version)
	assert.True(t, v1.IsActive)
	assert.Equal(t, 1, v1.Questions[0].Order)
	assert.Equal(t, 2, v1.Questions[1].Order)
	assert.NotEmpty(t, v1.Questions[0].ID)

	next := newQuestionnaireInput("Engineering v2")
	next.ID = v1.ID
	next.TemplateID = v1.TemplateID
	v2, err := svc.SaveQuestionnaire(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)
	assert.NotEqual(t, v1.ID, v2.ID)

	versions, err := svc.GetTemplateVersions(ctx, v1.TemplateID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.True(t, versions[0].IsActive)
	assert.False(t, versions[1].IsActive)

	latest, err := svc.GetLatestQuestionnaires(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, v2.ID, latest[0].ID)
}

func TestSaveQuestionnaireRequiresBothIDs(t *testing.T) {
	svc := service.NewQuestionnaireService(testutil.NewMemQuestionnaires())

	input := newQuestionnaireInput("Half")
	input.ID = "some-id"
	_, err := svc.SaveQuestionnaire(context.Background(), input)
	assert.True(t, service.IsValidation(err))

	input = newQuestionnaireInput("Half")
	input.TemplateID = "some-template"
	_, err = svc.SaveQuestionnaire(context.Background(), input)
	assert.True(t, service.IsValidation(err))
}

func TestSaveQuestionnaireUnknownPrevious(t *testing.T) {
	svc := service.NewQuestionnaireService(testutil.NewMemQuestionnaires())

	input := newQuestionnaireInput("Ghost")
	input.ID = "missing"
	input.TemplateID = "missing"
	_, err := svc.SaveQuestionnaire(context.Background(), input)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestSaveQuestionnaireValidation(t *testing.T) {
	svc := service.NewQuestionnaireService(testutil.NewMemQuestionnaires())

	noQuestions := newQuestionnaireInput("Empty")
	noQuestions.Questions = nil
	blank := newQuestionnaireInput("Blank")
	blank.Questions = []models.Question{{Text: "  "}}
	dup := newQuestionnaireInput("Dup")
	dup.Questions = []models.Question{{ID: "q", Text: "a"}, {ID: "q", Text: "b"}}
	badType := newQuestionnaireInput("Type")
	badType.Type = "manager"

	for name, input := range map[string]service.SaveQuestionnaireInput{
		"no questions":  noQuestions,
		"blank text":    blank,
		"duplicate ids": dup,
		"bad type":      badType,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SaveQuestionnaire(context.Background(), input)
			assert.True(t, service.IsValidation(err), "got %v", err)
		})
	}
}

func TestActiveQuestionnairesAndDeactivate(t *testing.T) {
	svc := service.NewQuestionnaireService(testutil.NewMemQuestionnaires())
	ctx := context.Background()

	selfQ, err := svc.SaveQuestionnaire(ctx, newQuestionnaireInput("Beta"))
	require.NoError(t, err)
	_, err = svc.SaveQuestionnaire(ctx, newQuestionnaireInput("alpha"))
	require.NoError(t, err)
	peer := newQuestionnaireInput("Peer")
	peer.Type = models.ReviewTypePeer
	_, err = svc.SaveQuestionnaire(ctx, peer)
	require.NoError(t, err)

	active, err := svc.GetActiveQuestionnaires(ctx, models.ReviewTypeSelf)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "alpha", active[0].Name)

	require.NoError(t, svc.DeactivateTemplate(ctx, selfQ.TemplateID))
	require.NoError(t, svc.DeactivateTemplate(ctx, "unknown-template"))

	active, err = svc.GetActiveQuestionnaires(ctx, models.ReviewTypeSelf)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "alpha", active[0].Name)

	_, err = svc.GetActiveQuestionnaires(ctx, "other")
	assert.True(t, service.IsValidation(err))
	assert.True(t, service.IsValidation(svc.DeactivateTemplate(ctx, " ")))
}

func TestLatestQuestionnairesStoreNotReady(t *testing.T) {
	store := testutil.NewMemQuestionnaires()
	store.NotReady = true

	latest, err := service.NewQuestionnaireService(store).GetLatestQuestionnaires(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.QuestionnaireVersion{}, latest)
}
