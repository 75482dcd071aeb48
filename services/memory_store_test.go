package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"diwan-api/models"
)

// memoryStore is an in-memory SubmissionStore. Transactions are serialised and
// roll back to a snapshot on error.
type memoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID        uint
	nextHistoryID uint
	submissions   map[uint]models.Submission
	history       []models.WorkflowHistory
	categories    map[uint]bool
	views         map[uint]int64

	// appendErr fails AppendHistory once set.
	appendErr error
	// viewsErr fails IncrementViews once set.
	viewsErr error
	// beforeTransition runs inside TransitionStatus before the conditional check.
	beforeTransition func(m *memoryStore, id uint)
	writes           int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		submissions: make(map[uint]models.Submission),
		categories:  map[uint]bool{1: true, 2: true},
		views:       make(map[uint]int64),
	}
}

func (m *memoryStore) WithinTx(ctx context.Context, fn func(tx SubmissionStore) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := make(map[uint]models.Submission, len(m.submissions))
	for id, s := range m.submissions {
		snapshot[id] = s
	}
	historyLen := len(m.history)
	nextID, nextHistoryID := m.nextID, m.nextHistoryID
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.submissions = snapshot
		m.history = m.history[:historyLen]
		m.nextID, m.nextHistoryID = nextID, nextHistoryID
		m.mu.Unlock()
		return err
	}
	return nil
}

// seed stores a submission directly and returns its id.
func (m *memoryStore) seed(s models.Submission) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.SubmissionID = m.nextID
	if s.Slug == "" {
		s.Slug = "seed-" + strconv.Itoa(int(m.nextID))
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, int(m.nextID), time.UTC)
	}
	m.submissions[s.SubmissionID] = s
	return s.SubmissionID
}

func (m *memoryStore) get(id uint) models.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submissions[id]
}

func (m *memoryStore) historyFor(id uint) []models.WorkflowHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WorkflowHistory
	for _, h := range m.history {
		if h.SubmissionID == id {
			out = append(out, h)
		}
	}
	return out
}

func (m *memoryStore) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.submissions {
		if existing.Slug == submission.Slug {
			return errors.New("duplicate slug")
		}
	}
	m.nextID++
	submission.SubmissionID = m.nextID
	m.submissions[submission.SubmissionID] = *submission
	m.writes++
	return nil
}

func (m *memoryStore) GetSubmission(ctx context.Context, id uint) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return nil, notFound("submission %d not found", id)
	}
	return &s, nil
}

func (m *memoryStore) GetPublishedBySlug(ctx context.Context, slug string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.submissions {
		if s.Slug == slug && s.Status == models.StatusPublished {
			copied := s
			return &copied, nil
		}
	}
	return nil, notFound("content %q not found", slug)
}

func (m *memoryStore) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.submissions {
		if s.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) CategoryExists(ctx context.Context, categoryID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.categories[categoryID], nil
}

func (m *memoryStore) UpdateDraft(ctx context.Context, id uint, update DraftUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok || s.Status != models.StatusDraft {
		return conflict("submission %d is no longer a draft", id)
	}
	if update.Title != nil {
		s.Title = *update.Title
	}
	if update.Slug != nil {
		s.Slug = *update.Slug
	}
	if update.Body != nil {
		s.Body = *update.Body
	}
	if update.CategoryID != nil {
		s.CategoryID = *update.CategoryID
	}
	if update.ContentType != nil {
		s.ContentType = *update.ContentType
	}
	if update.Tags != nil {
		s.Tags = *update.Tags
	}
	s.UpdatedAt = update.UpdatedAt
	m.submissions[id] = s
	m.writes++
	return nil
}

func (m *memoryStore) DeleteDraft(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok || s.Status != models.StatusDraft {
		return conflict("submission %d is no longer a draft", id)
	}
	delete(m.submissions, id)
	m.writes++
	return nil
}

func (m *memoryStore) TransitionStatus(ctx context.Context, change StatusChange) error {
	if m.beforeTransition != nil {
		m.beforeTransition(m, change.SubmissionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[change.SubmissionID]
	if !ok || s.Status != change.From {
		return conflict("submission %d is no longer %s", change.SubmissionID, change.From)
	}
	s.Status = change.To
	s.UpdatedAt = change.At
	if change.SetSubmittedAt {
		at := change.At
		s.SubmittedAt = &at
	}
	if change.SetPublishedAt {
		at := change.At
		s.PublishedAt = &at
	}
	if change.ClearPublishedAt {
		s.PublishedAt = nil
	}
	m.submissions[change.SubmissionID] = s
	m.writes++
	return nil
}

func (m *memoryStore) AppendHistory(ctx context.Context, entry *models.WorkflowHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return internal("append workflow history", m.appendErr)
	}
	m.nextHistoryID++
	entry.HistoryID = m.nextHistoryID
	m.history = append(m.history, *entry)
	m.writes++
	return nil
}

func (m *memoryStore) ListHistory(ctx context.Context, submissionID uint) ([]models.WorkflowHistory, error) {
	entries := m.historyFor(submissionID)
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].HistoryID > entries[j].HistoryID
	})
	return entries, nil
}

func (m *memoryStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]models.Submission, int64, error) {
	m.mu.Lock()
	var matched []models.Submission
	for _, s := range m.submissions {
		if filter.ContributorID != nil && s.ContributorID != *filter.ContributorID {
			continue
		}
		if len(filter.Statuses) > 0 && !statusIn(s.Status, filter.Statuses) {
			continue
		}
		if filter.CategoryID != nil && s.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.ContentType != "" && s.ContentType != filter.ContentType {
			continue
		}
		if filter.Search != "" && !strings.Contains(s.Title, filter.Search) && !strings.Contains(s.Body, filter.Search) {
			continue
		}
		matched = append(matched, s)
	}
	m.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if filter.OldestFirst {
			return matched[i].SubmissionID < matched[j].SubmissionID
		}
		return matched[i].SubmissionID > matched[j].SubmissionID
	})
	total := int64(len(matched))
	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *memoryStore) CountByStatus(ctx context.Context) (map[models.SubmissionStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[models.SubmissionStatus]int64, len(models.AllStatuses))
	for _, status := range models.AllStatuses {
		counts[status] = 0
	}
	for _, s := range m.submissions {
		counts[s.Status]++
	}
	return counts, nil
}

func (m *memoryStore) AverageSecondsToPublish(ctx context.Context) (*float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	var n int
	for _, s := range m.submissions {
		if s.PublishedAt != nil {
			sum += s.PublishedAt.Sub(s.CreatedAt).Seconds()
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	avg := sum / float64(n)
	return &avg, nil
}

func (m *memoryStore) IncrementViews(ctx context.Context, id uint, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.viewsErr != nil {
		return m.viewsErr
	}
	m.views[id] += delta
	return nil
}

// memoryUsers is an in-memory UserStore.
type memoryUsers struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]models.User
	stats  map[uint]UserStatistics
}

func newMemoryUsers(users ...models.User) *memoryUsers {
	m := &memoryUsers{users: make(map[uint]models.User), stats: make(map[uint]UserStatistics)}
	for _, u := range users {
		if u.UserID > m.nextID {
			m.nextID = u.UserID
		}
		m.users[u.UserID] = u
	}
	return m
}

func (m *memoryUsers) GetUser(ctx context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, notFound("user %d not found", id)
	}
	return &u, nil
}

func (m *memoryUsers) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == login || u.Username == login {
			return &u, nil
		}
	}
	return nil, notFound("user not found")
}

func (m *memoryUsers) UserExists(ctx context.Context, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryUsers) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.UserID = m.nextID
	m.users[user.UserID] = *user
	return nil
}

func (m *memoryUsers) UpdateUser(ctx context.Context, id uint, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return notFound("user %d not found", id)
	}
	for key, value := range updates {
		switch key {
		case "role":
			u.Role = value.(models.Role)
		case "status":
			u.Status = value.(string)
		case "password":
			u.Password = value.(string)
		case "full_name":
			u.FullName = value.(string)
		case "bio":
			u.Bio = value.(*string)
		case "last_login":
			at := value.(time.Time)
			u.LastLogin = &at
		case "updated_at":
			u.UpdatedAt = value.(time.Time)
		}
	}
	m.users[id] = u
	return nil
}

func (m *memoryUsers) ListUsers(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, int64(len(out)), nil
}

func (m *memoryUsers) ListActiveByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if u.Role == role && u.Status == models.UserStatusActive {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *memoryUsers) UserStatistics(ctx context.Context, id uint) (*UserStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.stats[id]
	return &stats, nil
}

// memoryCategories is an in-memory CategoryStore.
type memoryCategories struct {
	mu          sync.Mutex
	nextID      uint
	categories  map[uint]models.Category
	submissions map[uint]int64
}

func newMemoryCategories(categories ...models.Category) *memoryCategories {
	m := &memoryCategories{categories: make(map[uint]models.Category), submissions: make(map[uint]int64)}
	for _, c := range categories {
		if c.CategoryID > m.nextID {
			m.nextID = c.CategoryID
		}
		m.categories[c.CategoryID] = c
	}
	return m
}

func (m *memoryCategories) WithinTx(ctx context.Context, fn func(tx CategoryStore) error) error {
	return fn(m)
}

func (m *memoryCategories) ListCategories(ctx context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (m *memoryCategories) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, notFound("category not found")
	}
	return &c, nil
}

func (m *memoryCategories) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, notFound("category not found")
}

func (m *memoryCategories) CategorySlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.categories {
		if c.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryCategories) CreateCategory(ctx context.Context, category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	category.CategoryID = m.nextID
	m.categories[category.CategoryID] = *category
	return nil
}

func (m *memoryCategories) UpdateCategory(ctx context.Context, id uint, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return notFound("category %d not found", id)
	}
	for key, value := range updates {
		switch key {
		case "name_ar":
			c.NameAr = value.(string)
		case "slug":
			c.Slug = value.(string)
		case "display_order":
			c.DisplayOrder = value.(int)
		case "parent_category_id":
			if value == nil {
				c.ParentCategoryID = nil
			} else {
				parent := value.(uint)
				c.ParentCategoryID = &parent
			}
		}
	}
	m.categories[id] = c
	return nil
}

func (m *memoryCategories) DeleteCategory(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return notFound("category %d not found", id)
	}
	delete(m.categories, id)
	return nil
}

func (m *memoryCategories) CountSubmissionsInCategory(ctx context.Context, categoryID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submissions[categoryID], nil
}

func (m *memoryCategories) ListRecentPublished(ctx context.Context, categoryID uint, limit int) ([]models.Submission, error) {
	return []models.Submission{}, nil
}

// recordingDispatcher captures committed transitions.
type recordingDispatcher struct {
	mu      sync.Mutex
	results []TransitionResult
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, result *TransitionResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, *result)
}

func (d *recordingDispatcher) actions() []models.WorkflowAction {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.WorkflowAction, 0, len(d.results))
	for _, r := range d.results {
		out = append(out, r.Entry.Action)
	}
	return out
}
