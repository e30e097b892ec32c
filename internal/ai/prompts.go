package ai

import (
	"strings"
	"text/template"
)

var generateQuestionsTmpl = template.Must(template.New("generate-review-questions").Parse(
	`You are an HR expert specializing in generating review questions for employees.

You will generate {{.NumberOfQuestions}} questions for a {{.ReviewType}} review, based on the following topic or skills: {{.TopicOrSkills}}.

Ensure the questions are clear, concise, and relevant to the topic or skills provided.

Output the questions as a JSON array of strings.

Example:
{
  "questions": [
    "What are your key accomplishments related to {{.TopicOrSkills}}?",
    "How have you demonstrated {{.TopicOrSkills}} in your role?",
    "What are your strengths and weaknesses related to {{.TopicOrSkills}}?",
    "How can you further improve your skills in {{.TopicOrSkills}}?",
    "How does your work in {{.TopicOrSkills}} contribute to the team's goals?"
  ]
}

Now generate {{.NumberOfQuestions}} questions for a {{.ReviewType}} review based on {{.TopicOrSkills}}.
`))

var improvementAreasTmpl = template.Must(template.New("identify-improvement-areas").Parse(
	`Analyze the following self-review and peer reviews to identify key areas for improvement and provide an overall sentiment analysis.

Self-Review: {{.SelfReview}}

Peer Reviews:
{{range .PeerReviews}}- {{.}}
{{end}}
Based on these reviews, identify 3-5 key areas for improvement and provide a summary of the overall sentiment. Return a list of key improvement areas. Ensure that each improvement area is specific and actionable.

Output should be structured as a JSON object:
{
  "keyImprovementAreas": ["Improvement Area 1", "Improvement Area 2", ...],
  "sentimentAnalysis": "Overall sentiment analysis summary"
}
`))

var summarizeFeedbackTmpl = template.Must(template.New("summarize-feedback").Parse(
	`You are a helpful AI assistant that summarizes employee feedback for team leaders.

Summarize the following feedback for {{.EmployeeName}}, highlighting key areas for improvement.

Self-Review:
{{.SelfReview}}

Peer Reviews:
{{range .PeerReviews}}- {{.}}
{{end}}
Output should be structured as a JSON object:
{
  "summary": "Concise summary of the feedback"
}
`))

func render(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
