package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"review-central/internal/models"
	"review-central/internal/repository"
)

// The in-memory stores below satisfy the service store interfaces for unit
// tests. They return copies so callers cannot mutate stored state. Setting
// NotReady makes list calls fail like a database without the table.

func notReady() error {
	return repository.ErrStoreNotReady
}

// MemUsers is an in-memory user store
type MemUsers struct {
	mu       sync.Mutex
	items    map[string]models.User
	NotReady bool
}

// NewMemUsers creates a user store holding users
func NewMemUsers(users ...models.User) *MemUsers {
	s := &MemUsers{items: map[string]models.User{}}
	for _, u := range users {
		s.items[u.ID] = u
	}
	return s
}

func (s *MemUsers) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.items {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrUserExists
		}
	}
	now := time.Now()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt, user.UpdatedAt = now, now
	s.items[user.ID] = *user
	return nil
}

func (s *MemUsers) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[user.ID]; !ok {
		return repository.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	s.items[user.ID] = *user
	return nil
}

func (s *MemUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *MemUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.items {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *MemUsers) GetAll(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NotReady {
		return nil, notReady()
	}
	out := make([]models.User, 0, len(s.items))
	for _, u := range s.items {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b models.User) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *MemUsers) GetByIDs(_ context.Context, ids []string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := s.items[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *MemUsers) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// MemQuestionnaires is an in-memory questionnaire store
type MemQuestionnaires struct {
	mu       sync.Mutex
	items    []models.QuestionnaireVersion
	NotReady bool
}

// NewMemQuestionnaires creates a questionnaire store holding versions
func NewMemQuestionnaires(versions ...models.QuestionnaireVersion) *MemQuestionnaires {
	return &MemQuestionnaires{items: slices.Clone(versions)}
}

func cloneQuestionnaire(q models.QuestionnaireVersion) models.QuestionnaireVersion {
	q.Questions = slices.Clone(q.Questions)
	return q
}

func (s *MemQuestionnaires) Create(_ context.Context, q *models.QuestionnaireVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	q.Version = 1
	q.IsActive = true
	q.CreatedAt, q.UpdatedAt = now, now
	s.items = append(s.items, cloneQuestionnaire(*q))
	return nil
}

func (s *MemQuestionnaires) SaveNewVersion(_ context.Context, previousID string, q *models.QuestionnaireVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	maxVersion := 0
	for _, item := range s.items {
		if item.TemplateID != q.TemplateID {
			continue
		}
		if item.ID == previousID {
			found = true
		}
		maxVersion = max(maxVersion, item.Version)
	}
	if !found {
		return repository.ErrNotFound
	}

	for i := range s.items {
		if s.items[i].TemplateID == q.TemplateID {
			s.items[i].IsActive = false
		}
	}
	now := time.Now()
	q.Version = maxVersion + 1
	q.IsActive = true
	q.CreatedAt, q.UpdatedAt = now, now
	s.items = append(s.items, cloneQuestionnaire(*q))
	return nil
}

func (s *MemQuestionnaires) GetByID(_ context.Context, id string) (*models.QuestionnaireVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			q := cloneQuestionnaire(item)
			return &q, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *MemQuestionnaires) filter(keep func(models.QuestionnaireVersion) bool) ([]models.QuestionnaireVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NotReady {
		return nil, notReady()
	}
	out := []models.QuestionnaireVersion{}
	for _, item := range s.items {
		if keep(item) {
			out = append(out, cloneQuestionnaire(item))
		}
	}
	return out, nil
}

func (s *MemQuestionnaires) GetAll(_ context.Context) ([]models.QuestionnaireVersion, error) {
	return s.filter(func(models.QuestionnaireVersion) bool { return true })
}

func (s *MemQuestionnaires) GetActiveByType(_ context.Context, qType models.ReviewType) ([]models.QuestionnaireVersion, error) {
	return s.filter(func(q models.QuestionnaireVersion) bool { return q.IsActive && q.Type == qType })
}

func (s *MemQuestionnaires) GetVersions(_ context.Context, templateID string) ([]models.QuestionnaireVersion, error) {
	out, err := s.filter(func(q models.QuestionnaireVersion) bool { return q.TemplateID == templateID })
	slices.SortFunc(out, func(a, b models.QuestionnaireVersion) int { return b.Version - a.Version })
	return out, err
}

func (s *MemQuestionnaires) DeactivateTemplate(_ context.Context, templateID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.items {
		if s.items[i].TemplateID == templateID && s.items[i].IsActive {
			s.items[i].IsActive = false
			n++
		}
	}
	return n, nil
}

// MemCycles is an in-memory review cycle store
type MemCycles struct {
	mu       sync.Mutex
	items    map[string]models.ReviewCycle
	NotReady bool
}

// NewMemCycles creates a cycle store holding cycles
func NewMemCycles(cycles ...models.ReviewCycle) *MemCycles {
	s := &MemCycles{items: map[string]models.ReviewCycle{}}
	for _, c := range cycles {
		s.items[c.ID] = c
	}
	return s
}

func (s *MemCycles) Upsert(_ context.Context, c *models.ReviewCycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.items[c.ID]; ok {
		c.CreatedAt = existing.CreatedAt
	} else {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	stored := *c
	stored.ParticipantIDs = slices.Clone(c.ParticipantIDs)
	s.items[c.ID] = stored
	return nil
}

func (s *MemCycles) GetByID(_ context.Context, id string) (*models.ReviewCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.ParticipantIDs = slices.Clone(c.ParticipantIDs)
	return &c, nil
}

func (s *MemCycles) list(keep func(models.ReviewCycle) bool) ([]models.ReviewCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NotReady {
		return nil, notReady()
	}
	out := []models.ReviewCycle{}
	for _, c := range s.items {
		if keep(c) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b models.ReviewCycle) int { return b.StartDate.Compare(a.StartDate) })
	return out, nil
}

func (s *MemCycles) GetAll(_ context.Context) ([]models.ReviewCycle, error) {
	return s.list(func(models.ReviewCycle) bool { return true })
}

func (s *MemCycles) GetByStatus(_ context.Context, status models.CycleStatus) ([]models.ReviewCycle, error) {
	return s.list(func(c models.ReviewCycle) bool { return c.Status == status })
}

func (s *MemCycles) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// MemAssignments is an in-memory assignment store. CycleQueries counts
// GetByCycle calls.
type MemAssignments struct {
	mu           sync.Mutex
	items        map[string]models.PeerReviewAssignment
	NotReady     bool
	CycleQueries int
}

// NewMemAssignments creates an assignment store holding assignments
func NewMemAssignments(assignments ...models.PeerReviewAssignment) *MemAssignments {
	s := &MemAssignments{items: map[string]models.PeerReviewAssignment{}}
	for _, a := range assignments {
		s.items[a.ID] = a
	}
	return s
}

func (s *MemAssignments) Upsert(_ context.Context, a *models.PeerReviewAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.items[a.ID]; ok {
		a.CreatedAt = existing.CreatedAt
		if a.ReviewID == nil {
			a.ReviewID = existing.ReviewID
		}
	} else {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	s.items[a.ID] = *a
	return nil
}

func (s *MemAssignments) UpdateStatus(_ context.Context, id string, status models.AssignmentStatus, reviewID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Status = status
	if reviewID != nil {
		rid := *reviewID
		a.ReviewID = &rid
	}
	a.UpdatedAt = time.Now()
	s.items[id] = a
	return nil
}

func (s *MemAssignments) GetByID(_ context.Context, id string) (*models.PeerReviewAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *MemAssignments) list(keep func(models.PeerReviewAssignment) bool) ([]models.PeerReviewAssignment, error) {
	if s.NotReady {
		return nil, notReady()
	}
	out := []models.PeerReviewAssignment{}
	for _, a := range s.items {
		if keep(a) {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b models.PeerReviewAssignment) int { return a.DueDate.Compare(b.DueDate) })
	return out, nil
}

func (s *MemAssignments) GetByCycle(_ context.Context, cycleID string) ([]models.PeerReviewAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CycleQueries++
	return s.list(func(a models.PeerReviewAssignment) bool { return a.ReviewCycleID == cycleID })
}

func (s *MemAssignments) GetByReviewer(_ context.Context, reviewerID string) ([]models.PeerReviewAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(func(a models.PeerReviewAssignment) bool { return a.ReviewerID == reviewerID })
}

func (s *MemAssignments) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// MemReviews is an in-memory review store
type MemReviews struct {
	mu       sync.Mutex
	items    map[string]models.Review
	NotReady bool
}

// NewMemReviews creates a review store holding reviews
func NewMemReviews(reviews ...models.Review) *MemReviews {
	s := &MemReviews{items: map[string]models.Review{}}
	for _, r := range reviews {
		s.items[r.ID] = r
	}
	return s
}

func cloneReview(r models.Review) models.Review {
	r.Answers = slices.Clone(r.Answers)
	if r.Answers == nil {
		r.Answers = []models.Answer{}
	}
	return r
}

func (s *MemReviews) Create(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	s.items[r.ID] = cloneReview(*r)
	return nil
}

func (s *MemReviews) Update(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[r.ID]; !ok {
		return repository.ErrNotFound
	}
	r.UpdatedAt = time.Now()
	s.items[r.ID] = cloneReview(*r)
	return nil
}

func (s *MemReviews) find(keep func(models.Review) bool) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.items {
		if keep(r) {
			out := cloneReview(r)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *MemReviews) list(keep func(models.Review) bool) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NotReady {
		return nil, notReady()
	}
	out := []models.Review{}
	for _, r := range s.items {
		if keep(r) {
			out = append(out, cloneReview(r))
		}
	}
	slices.SortFunc(out, func(a, b models.Review) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *MemReviews) GetByID(_ context.Context, id string) (*models.Review, error) {
	return s.find(func(r models.Review) bool { return r.ID == id })
}

func (s *MemReviews) GetSelfReview(_ context.Context, authorID, cycleID string) (*models.Review, error) {
	return s.find(func(r models.Review) bool {
		return r.Type == models.ReviewTypeSelf && r.AuthorID == authorID && r.ReviewCycleID == cycleID
	})
}

func (s *MemReviews) GetByAssignment(_ context.Context, assignmentID string) (*models.Review, error) {
	return s.find(func(r models.Review) bool {
		return r.AssignmentID != nil && *r.AssignmentID == assignmentID
	})
}

func (s *MemReviews) GetByAuthor(_ context.Context, authorID string) ([]models.Review, error) {
	return s.list(func(r models.Review) bool { return r.AuthorID == authorID })
}

func (s *MemReviews) GetByCycle(_ context.Context, cycleID string) ([]models.Review, error) {
	return s.list(func(r models.Review) bool { return r.ReviewCycleID == cycleID })
}

// MemAudit is an in-memory audit store. Err, when set, fails Create.
type MemAudit struct {
	mu    sync.Mutex
	items []models.AuditLog
	Err   error
}

// NewMemAudit creates an empty audit store
func NewMemAudit() *MemAudit {
	return &MemAudit{}
}

func (s *MemAudit) Create(_ context.Context, log *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	log.ID = uint(len(s.items) + 1)
	log.CreatedAt = time.Now()
	s.items = append(s.items, *log)
	return nil
}

func (s *MemAudit) GetAll(_ context.Context, limit, offset int) ([]models.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.AuditLog{}
	for i := len(s.items) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.items[i])
	}
	return out, nil
}

func (s *MemAudit) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), nil
}

// Entries returns a copy of every stored entry, oldest first
func (s *MemAudit) Entries() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}
