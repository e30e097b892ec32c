package models

import (
	"time"
)

// Role is the access level of a staff member
type Role string

const (
	RoleEmployee   Role = "employee"
	RoleTeamLeader Role = "team_leader"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleTeamLeader, RoleAdmin:
		return true
	}
	return false
}

// User represents a staff member
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Role      Role      `json:"role" db:"role"`
	AvatarURL string    `json:"avatarUrl,omitempty" db:"avatar_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ReviewType distinguishes self assessments from peer feedback
type ReviewType string

const (
	ReviewTypeSelf ReviewType = "self"
	ReviewTypePeer ReviewType = "peer"
)

// Valid reports whether t is a known review type
func (t ReviewType) Valid() bool {
	return t == ReviewTypeSelf || t == ReviewTypePeer
}

// Question is one entry of a questionnaire
type Question struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// QuestionnaireVersion is an immutable snapshot of a questionnaire template.
// All versions of one template share TemplateID.
type QuestionnaireVersion struct {
	ID          string     `json:"id" db:"id"`
	TemplateID  string     `json:"templateId" db:"template_id"`
	Version     int        `json:"version" db:"version"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description,omitempty" db:"description"`
	Type        ReviewType `json:"type" db:"type"`
	Questions   []Question `json:"questions" db:"questions"`
	IsActive    bool       `json:"isActive" db:"is_active"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// QuestionIDs returns the ids of all questions in order
func (q *QuestionnaireVersion) QuestionIDs() []string {
	ids := make([]string, 0, len(q.Questions))
	for _, question := range q.Questions {
		ids = append(ids, question.ID)
	}
	return ids
}

// CycleStatus is the lifecycle state of a review cycle
type CycleStatus string

const (
	CycleStatusDraft  CycleStatus = "draft"
	CycleStatusActive CycleStatus = "active"
	CycleStatusClosed CycleStatus = "closed"
)

// Valid reports whether s is a known cycle status
func (s CycleStatus) Valid() bool {
	switch s {
	case CycleStatusDraft, CycleStatusActive, CycleStatusClosed:
		return true
	}
	return false
}

// ReviewCycle is a time-boxed review period
type ReviewCycle struct {
	ID             string      `json:"id" db:"id"`
	Name           string      `json:"name" db:"name"`
	StartDate      time.Time   `json:"startDate" db:"start_date"`
	EndDate        time.Time   `json:"endDate" db:"end_date"`
	ParticipantIDs []string    `json:"participantIds" db:"participant_ids"`
	Status         CycleStatus `json:"status" db:"status"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time   `json:"updatedAt" db:"updated_at"`
}

// AssignmentStatus is the progress of a peer review obligation
type AssignmentStatus string

const (
	AssignmentStatusPending    AssignmentStatus = "pending"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusDeclined   AssignmentStatus = "declined"
)

// Valid reports whether s is a known assignment status
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentStatusPending, AssignmentStatusInProgress, AssignmentStatusCompleted, AssignmentStatusDeclined:
		return true
	}
	return false
}

// PeerReviewAssignment pairs a reviewer with a reviewee in one cycle.
// Name and avatar fields are copied from the user directory when saved.
type PeerReviewAssignment struct {
	ID                string           `json:"id" db:"id"`
	ReviewCycleID     string           `json:"reviewCycleId" db:"review_cycle_id"`
	RevieweeID        string           `json:"revieweeId" db:"reviewee_id"`
	RevieweeName      string           `json:"revieweeName" db:"reviewee_name"`
	RevieweeAvatarURL string           `json:"revieweeAvatarUrl" db:"reviewee_avatar_url"`
	ReviewerID        string           `json:"reviewerId" db:"reviewer_id"`
	ReviewerName      string           `json:"reviewerName" db:"reviewer_name"`
	ReviewerAvatarURL string           `json:"reviewerAvatarUrl" db:"reviewer_avatar_url"`
	QuestionnaireID   string           `json:"questionnaireId" db:"questionnaire_id"`
	Status            AssignmentStatus `json:"status" db:"status"`
	DueDate           time.Time        `json:"dueDate" db:"due_date"`
	ReviewID          *string          `json:"reviewId,omitempty" db:"review_id"`
	CreatedAt         time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time        `json:"updatedAt" db:"updated_at"`
}

// ReviewStatus is the state of a written review
type ReviewStatus string

const (
	ReviewStatusDraft     ReviewStatus = "draft"
	ReviewStatusSubmitted ReviewStatus = "submitted"
)

// Answer is the response to a single question
type Answer struct {
	QuestionID string `json:"questionId"`
	AnswerText string `json:"answerText"`
}

// Review holds the answers an author wrote about a reviewee.
// Answers are sealed before they reach the database.
type Review struct {
	ID              string       `json:"id" db:"id"`
	Type            ReviewType   `json:"type" db:"type"`
	ReviewCycleID   string       `json:"reviewCycleId" db:"review_cycle_id"`
	QuestionnaireID string       `json:"questionnaireId" db:"questionnaire_id"`
	AuthorID        string       `json:"authorId" db:"author_id"`
	RevieweeID      string       `json:"revieweeId" db:"reviewee_id"`
	AssignmentID    *string      `json:"assignmentId,omitempty" db:"assignment_id"`
	Status          ReviewStatus `json:"status" db:"status"`
	Answers         []Answer     `json:"answers" db:"-"`
	SubmittedAt     *time.Time   `json:"submittedAt,omitempty" db:"submitted_at"`
	CreatedAt       time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time    `json:"updatedAt" db:"updated_at"`
}

// ReviewDetail is a review together with the questions it answers
type ReviewDetail struct {
	Review
	Questionnaire *QuestionnaireVersion `json:"questionnaire"`
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        uint      `json:"id" db:"id"`
	UserID    *string   `json:"userId,omitempty" db:"user_id"`
	Action    string    `json:"action" db:"action"`
	Resource  string    `json:"resource" db:"resource"`
	Details   string    `json:"details" db:"details"`
	IPAddress string    `json:"ipAddress" db:"ip_address"`
	UserAgent string    `json:"userAgent" db:"user_agent"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// SelfReviewStatus summarises a participant's self assessment on the dashboard
type SelfReviewStatus string

const (
	SelfReviewNotStarted SelfReviewStatus = "not_started"
	SelfReviewDraft      SelfReviewStatus = "draft"
	SelfReviewSubmitted  SelfReviewStatus = "submitted"
)

// TeamMemberProgress is one dashboard row
type TeamMemberProgress struct {
	User                      User             `json:"user"`
	SelfReviewStatus          SelfReviewStatus `json:"selfReviewStatus"`
	PeerReviewsAssignedCount  int              `json:"peerReviewsAssignedCount"`
	PeerReviewsCompletedCount int              `json:"peerReviewsCompletedCount"`
	AtRisk                    bool             `json:"atRisk"`
}

// TeamDashboard is the progress overview of a cycle
type TeamDashboard struct {
	Cycle   *ReviewCycle         `json:"cycle"`
	Members []TeamMemberProgress `json:"members"`
}

// MemberInsights is the AI generated feedback digest for one participant
type MemberInsights struct {
	UserID                string   `json:"userId"`
	ReviewCycleID         string   `json:"reviewCycleId"`
	Summary               string   `json:"summary"`
	SentimentAnalysis     string   `json:"sentimentAnalysis"`
	KeyImprovementAreas   []string `json:"keyImprovementAreas"`
	PeerReviewsConsidered int      `json:"peerReviewsConsidered"`
}
