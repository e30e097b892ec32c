package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"review-central/internal/ai"
	"review-central/internal/models"
)

// DashboardFilter narrows the team dashboard rows
type DashboardFilter string

const (
	FilterAll       DashboardFilter = "all"
	FilterAtRisk    DashboardFilter = "at_risk"
	FilterSubmitted DashboardFilter = "submitted"
	FilterPending   DashboardFilter = "pending"
)

// FeedbackAnalyzer runs the AI flows used for member insights
type FeedbackAnalyzer interface {
	SummarizeFeedback(ctx context.Context, in ai.SummarizeFeedbackInput) (*ai.SummarizeFeedbackOutput, error)
	IdentifyImprovementAreas(ctx context.Context, in ai.IdentifyImprovementAreasInput) (*ai.IdentifyImprovementAreasOutput, error)
}

// DashboardService builds the team leader views of a cycle
type DashboardService struct {
	cycles      ReviewCycleStore
	users       UserStore
	assignments AssignmentStore
	reviews     ReviewStore
	analyzer    FeedbackAnalyzer
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(cycles ReviewCycleStore, users UserStore, assignments AssignmentStore, reviews ReviewStore, analyzer FeedbackAnalyzer) *DashboardService {
	return &DashboardService{
		cycles:      cycles,
		users:       users,
		assignments: assignments,
		reviews:     reviews,
		analyzer:    analyzer,
	}
}

type cycleData struct {
	cycle       *models.ReviewCycle
	users       []models.User
	assignments []models.PeerReviewAssignment
	reviews     []models.Review
}

// loadCycle fetches everything a cycle view needs in parallel
func (s *DashboardService) loadCycle(ctx context.Context, cycleID string) (*cycleData, error) {
	var data cycleData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cycle, err := s.cycles.GetByID(gctx, cycleID)
		if err != nil {
			return err
		}
		data.cycle = cycle
		return nil
	})
	g.Go(func() error {
		users, err := s.users.GetAll(gctx)
		data.users, err = degrade("get users", users, err)
		return err
	})
	g.Go(func() error {
		assignments, err := s.assignments.GetByCycle(gctx, cycleID)
		data.assignments, err = degrade("get assignments", assignments, err)
		return err
	})
	g.Go(func() error {
		reviews, err := s.reviews.GetByCycle(gctx, cycleID)
		data.reviews, err = degrade("get reviews", reviews, err)
		return err
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load cycle data: %w", err)
	}
	return &data, nil
}

// TeamDashboard reports the progress of every participant of a cycle
func (s *DashboardService) TeamDashboard(ctx context.Context, cycleID string, filter DashboardFilter, query string) (*models.TeamDashboard, error) {
	if filter == "" {
		filter = FilterAll
	}
	switch filter {
	case FilterAll, FilterAtRisk, FilterSubmitted, FilterPending:
	default:
		return nil, validationf("status must be one of: all, at_risk, submitted, pending")
	}
	if strings.TrimSpace(cycleID) == "" {
		return nil, validationf("cycleId is required")
	}

	data, err := s.loadCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	usersByID := make(map[string]models.User, len(data.users))
	for _, u := range data.users {
		usersByID[u.ID] = u
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	members := make([]models.TeamMemberProgress, 0, len(data.cycle.ParticipantIDs))
	for _, id := range data.cycle.ParticipantIDs {
		user, ok := usersByID[id]
		if !ok {
			slog.Warn("Cycle participant not in user directory", "cycle_id", cycleID, "user_id", id)
			continue
		}

		progress := memberProgress(user, data)
		if !matchesFilter(progress, filter) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(user.Name), needle) {
			continue
		}
		members = append(members, progress)
	}
	sortByName(members, func(m models.TeamMemberProgress) string { return m.User.Name })

	return &models.TeamDashboard{Cycle: data.cycle, Members: members}, nil
}

func memberProgress(user models.User, data *cycleData) models.TeamMemberProgress {
	progress := models.TeamMemberProgress{
		User:             user,
		SelfReviewStatus: models.SelfReviewNotStarted,
	}

	for _, r := range data.reviews {
		if r.Type != models.ReviewTypeSelf || r.AuthorID != user.ID {
			continue
		}
		if r.Status == models.ReviewStatusSubmitted {
			progress.SelfReviewStatus = models.SelfReviewSubmitted
		} else {
			progress.SelfReviewStatus = models.SelfReviewDraft
		}
	}

	for _, a := range data.assignments {
		if a.RevieweeID != user.ID || a.Status == models.AssignmentStatusDeclined {
			continue
		}
		progress.PeerReviewsAssignedCount++
		if a.Status == models.AssignmentStatusCompleted {
			progress.PeerReviewsCompletedCount++
		}
	}

	progress.AtRisk = isAtRisk(progress)
	return progress
}

// isAtRisk flags members without a self review or with fewer than half of
// their peer reviews completed
func isAtRisk(p models.TeamMemberProgress) bool {
	if p.SelfReviewStatus == models.SelfReviewNotStarted {
		return true
	}
	return p.PeerReviewsAssignedCount > 0 &&
		float64(p.PeerReviewsCompletedCount)/float64(p.PeerReviewsAssignedCount) < 0.5
}

func matchesFilter(p models.TeamMemberProgress, filter DashboardFilter) bool {
	switch filter {
	case FilterAtRisk:
		return p.AtRisk
	case FilterSubmitted:
		return p.SelfReviewStatus == models.SelfReviewSubmitted
	case FilterPending:
		return p.SelfReviewStatus != models.SelfReviewSubmitted
	default:
		return true
	}
}

// MemberInsights summarises the submitted reviews about one participant and
// extracts improvement areas. Both AI flows run concurrently.
func (s *DashboardService) MemberInsights(ctx context.Context, cycleID, userID string) (*models.MemberInsights, error) {
	data, err := s.loadCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	var user *models.User
	for i := range data.users {
		if data.users[i].ID == userID {
			user = &data.users[i]
			break
		}
	}
	if user == nil {
		return nil, ErrNotFound
	}

	var selfReview string
	peerReviews := []string{}
	for _, r := range data.reviews {
		if r.Status != models.ReviewStatusSubmitted || r.RevieweeID != userID {
			continue
		}
		text := reviewText(r)
		if text == "" {
			continue
		}
		if r.Type == models.ReviewTypeSelf {
			selfReview = text
		} else {
			peerReviews = append(peerReviews, text)
		}
	}
	if selfReview == "" && len(peerReviews) == 0 {
		return nil, validationf("no submitted reviews for %s in this cycle", user.Name)
	}

	var (
		summary *ai.SummarizeFeedbackOutput
		areas   *ai.IdentifyImprovementAreasOutput
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := s.analyzer.SummarizeFeedback(gctx, ai.SummarizeFeedbackInput{
			EmployeeName: user.Name,
			SelfReview:   selfReview,
			PeerReviews:  peerReviews,
		})
		summary = out
		return err
	})
	g.Go(func() error {
		out, err := s.analyzer.IdentifyImprovementAreas(gctx, ai.IdentifyImprovementAreasInput{
			SelfReview:  selfReview,
			PeerReviews: peerReviews,
		})
		areas = out
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.MemberInsights{
		UserID:                userID,
		ReviewCycleID:         cycleID,
		Summary:               summary.Summary,
		SentimentAnalysis:     areas.SentimentAnalysis,
		KeyImprovementAreas:   areas.KeyImprovementAreas,
		PeerReviewsConsidered: len(peerReviews),
	}, nil
}

// reviewText joins the non-blank answers of a review
func reviewText(r models.Review) string {
	parts := make([]string, 0, len(r.Answers))
	for _, a := range r.Answers {
		if text := strings.TrimSpace(a.AnswerText); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}
