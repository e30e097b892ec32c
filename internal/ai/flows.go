package ai

import (
	"context"
	"fmt"
	"strings"
)

const (
	flowGenerateQuestions = "generate_review_questions"
	flowImprovementAreas  = "identify_improvement_areas"
	flowSummarizeFeedback = "summarize_feedback"
)

const (
	minQuestions     = 3
	maxQuestions     = 10
	defaultQuestions = 5

	minImprovementAreas = 3
	maxImprovementAreas = 5
)

// GenerateReviewQuestionsInput is the request of the question generator
type GenerateReviewQuestionsInput struct {
	TopicOrSkills     string `json:"topicOrSkills"`
	ReviewType        string `json:"reviewType"`
	NumberOfQuestions int    `json:"numberOfQuestions,omitempty"`
}

// GenerateReviewQuestionsOutput holds the generated questions
type GenerateReviewQuestionsOutput struct {
	Questions []string `json:"questions"`
}

// IdentifyImprovementAreasInput is the review material to analyse
type IdentifyImprovementAreasInput struct {
	SelfReview  string   `json:"selfReview"`
	PeerReviews []string `json:"peerReviews"`
}

// IdentifyImprovementAreasOutput lists improvement areas and the overall sentiment
type IdentifyImprovementAreasOutput struct {
	KeyImprovementAreas []string `json:"keyImprovementAreas"`
	SentimentAnalysis   string   `json:"sentimentAnalysis"`
}

// SummarizeFeedbackInput is the review material for one employee
type SummarizeFeedbackInput struct {
	EmployeeName string   `json:"employeeName"`
	SelfReview   string   `json:"selfReview"`
	PeerReviews  []string `json:"peerReviews"`
}

// SummarizeFeedbackOutput is the feedback digest for team leaders
type SummarizeFeedbackOutput struct {
	Summary string `json:"summary"`
}

var (
	questionsSchema = &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"questions": {
				Type:        "array",
				Description: "A question for the review, related to the topic or skills.",
				Items:       &Schema{Type: "string"},
			},
		},
		Required: []string{"questions"},
	}

	improvementAreasSchema = &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"keyImprovementAreas": {
				Type:        "array",
				Description: "A list of key areas for improvement identified from the reviews.",
				Items:       &Schema{Type: "string"},
				MinItems:    int64Ptr(minImprovementAreas),
				MaxItems:    int64Ptr(maxImprovementAreas),
			},
			"sentimentAnalysis": {
				Type:        "string",
				Description: "A summary of the overall sentiment from the reviews.",
			},
		},
		Required: []string{"keyImprovementAreas", "sentimentAnalysis"},
	}

	summarySchema = &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"summary": {
				Type:        "string",
				Description: "A concise summary of the feedback for the employee, highlighting key areas for improvement.",
			},
		},
		Required: []string{"summary"},
	}
)

// normalize applies defaults and checks the input ranges
func (in *GenerateReviewQuestionsInput) normalize() error {
	in.TopicOrSkills = strings.TrimSpace(in.TopicOrSkills)
	if in.TopicOrSkills == "" {
		return inputErrorf("topicOrSkills is required")
	}
	if in.ReviewType != "self" && in.ReviewType != "peer" {
		return inputErrorf("reviewType must be one of: self, peer")
	}
	if in.NumberOfQuestions == 0 {
		in.NumberOfQuestions = defaultQuestions
	}
	if in.NumberOfQuestions < minQuestions || in.NumberOfQuestions > maxQuestions {
		return inputErrorf("numberOfQuestions must be between %d and %d", minQuestions, maxQuestions)
	}
	return nil
}

// GenerateReviewQuestions drafts questions for a questionnaire. The model
// must return exactly NumberOfQuestions non-empty questions.
func (f *Flows) GenerateReviewQuestions(ctx context.Context, in GenerateReviewQuestionsInput) (*GenerateReviewQuestionsOutput, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	prompt, err := render(generateQuestionsTmpl, in)
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}

	schema := *questionsSchema
	schema.Properties = map[string]*Schema{
		"questions": {
			Type:        questionsSchema.Properties["questions"].Type,
			Description: questionsSchema.Properties["questions"].Description,
			Items:       questionsSchema.Properties["questions"].Items,
			MinItems:    int64Ptr(int64(in.NumberOfQuestions)),
			MaxItems:    int64Ptr(int64(in.NumberOfQuestions)),
		},
	}

	var out GenerateReviewQuestionsOutput
	check := func() error {
		if len(out.Questions) != in.NumberOfQuestions || !nonEmpty(out.Questions) {
			return fmt.Errorf("expected %d non-empty questions, got %d", in.NumberOfQuestions, len(out.Questions))
		}
		return nil
	}
	if err := f.run(ctx, flowGenerateQuestions, prompt, &schema, &out, check); err != nil {
		return nil, err
	}
	return &out, nil
}

// IdentifyImprovementAreas extracts 3 to 5 improvement areas and a sentiment
// summary from a self review and its peer reviews
func (f *Flows) IdentifyImprovementAreas(ctx context.Context, in IdentifyImprovementAreasInput) (*IdentifyImprovementAreasOutput, error) {
	if strings.TrimSpace(in.SelfReview) == "" && len(in.PeerReviews) == 0 {
		return nil, inputErrorf("selfReview or peerReviews is required")
	}
	if in.PeerReviews == nil {
		in.PeerReviews = []string{}
	}

	prompt, err := render(improvementAreasTmpl, in)
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}

	var out IdentifyImprovementAreasOutput
	check := func() error {
		n := len(out.KeyImprovementAreas)
		if n < minImprovementAreas || n > maxImprovementAreas || !nonEmpty(out.KeyImprovementAreas) {
			return fmt.Errorf("expected %d-%d improvement areas, got %d", minImprovementAreas, maxImprovementAreas, n)
		}
		if strings.TrimSpace(out.SentimentAnalysis) == "" {
			return fmt.Errorf("empty sentiment analysis")
		}
		return nil
	}
	if err := f.run(ctx, flowImprovementAreas, prompt, improvementAreasSchema, &out, check); err != nil {
		return nil, err
	}
	return &out, nil
}

// SummarizeFeedback condenses the feedback for one employee
func (f *Flows) SummarizeFeedback(ctx context.Context, in SummarizeFeedbackInput) (*SummarizeFeedbackOutput, error) {
	in.EmployeeName = strings.TrimSpace(in.EmployeeName)
	if in.EmployeeName == "" {
		return nil, inputErrorf("employeeName is required")
	}
	if in.PeerReviews == nil {
		in.PeerReviews = []string{}
	}

	prompt, err := render(summarizeFeedbackTmpl, in)
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}

	var out SummarizeFeedbackOutput
	check := func() error {
		if strings.TrimSpace(out.Summary) == "" {
			return fmt.Errorf("empty summary")
		}
		return nil
	}
	if err := f.run(ctx, flowSummarizeFeedback, prompt, summarySchema, &out, check); err != nil {
		return nil, err
	}
	return &out, nil
}
