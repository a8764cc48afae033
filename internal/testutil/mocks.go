package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/domain/analytics"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/diagnosis"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/entitlement"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/user"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/errors"
)

// MockUserRepository is a mock implementation of user.Repository. Stored
// users are copied on the way in and out, like rows in a database.
type MockUserRepository struct {
	mu          sync.Mutex
	Users       map[int64]*user.User
	NextID      int64
	CreateError error
	GetError    error
	UpdateError error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:  make(map[int64]*user.User),
		NextID: 1,
	}
}

func cloneUser(u *user.User) *user.User {
	c := *u
	return &c
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	for _, existing := range m.Users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return user.ErrDuplicate
		}
	}
	u.ID = m.NextID
	m.NextID++
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.Users[u.ID] = cloneUser(u)
	return nil
}

// Put stores u as is, for seeding fixtures
func (m *MockUserRepository) Put(u *user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		u.ID = m.NextID
	}
	if u.ID >= m.NextID {
		m.NextID = u.ID + 1
	}
	m.Users[u.ID] = cloneUser(u)
}

func (m *MockUserRepository) find(match func(u *user.User) bool) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	for _, u := range m.Users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, errors.NotFound("User")
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return m.find(func(u *user.User) bool { return u.ID == id })
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return m.find(func(u *user.User) bool { return u.Username == username })
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return m.find(func(u *user.User) bool { return u.Email == email })
}

func (m *MockUserRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*user.User, error) {
	return m.find(func(u *user.User) bool {
		return u.StripeCustomerID != nil && *u.StripeCustomerID == customerID
	})
}

// update applies fn to the stored user when cond holds
func (m *MockUserRepository) update(id int64, cond func(u *user.User) bool, fn func(u *user.User)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return false, m.UpdateError
	}
	u, ok := m.Users[id]
	if !ok || !cond(u) {
		return false, nil
	}
	fn(u)
	return true, nil
}

func always(*user.User) bool { return true }

func (m *MockUserRepository) ExpirePremium(ctx context.Context, id int64, now time.Time) (bool, error) {
	return m.update(id,
		func(u *user.User) bool { return u.PremiumUntil != nil && u.PremiumUntil.Before(now) },
		func(u *user.User) {
			u.IsPremium = false
			u.PremiumUntil = nil
		})
}

func (m *MockUserRepository) StartTrial(ctx context.Context, id int64, at time.Time) (bool, error) {
	return m.update(id,
		func(u *user.User) bool { return u.TrialStartedAt == nil && !u.IsPremium },
		func(u *user.User) {
			started := at
			u.TrialStartedAt = &started
		})
}

func (m *MockUserRepository) RecordDiagnosis(ctx context.Context, id int64, at, trialCutoff time.Time) (bool, error) {
	return m.update(id,
		func(u *user.User) bool {
			return u.IsPremium || (u.TrialStartedAt != nil && u.TrialStartedAt.After(trialCutoff))
		},
		func(u *user.User) {
			last := at
			u.DiagnosisCount++
			u.LastDiagnosisDate = &last
		})
}

func (m *MockUserRepository) SetPremium(ctx context.Context, id int64, premium bool, until *time.Time) error {
	ok, err := m.update(id, always, func(u *user.User) {
		u.IsPremium = premium
		u.PremiumUntil = until
	})
	if err != nil {
		return err
	}
	if !ok {
		return errors.NotFound("User")
	}
	return nil
}

func (m *MockUserRepository) SetStripeIDs(ctx context.Context, id int64, customerID, subscriptionID string) error {
	ok, err := m.update(id, always, func(u *user.User) {
		if customerID != "" {
			c := customerID
			u.StripeCustomerID = &c
		}
		if subscriptionID != "" {
			s := subscriptionID
			u.StripeSubscriptionID = &s
		}
	})
	if err != nil {
		return err
	}
	if !ok {
		return errors.NotFound("User")
	}
	return nil
}

// Account returns the stored entitlement fields of a user
func (m *MockUserRepository) Account(id int64) entitlement.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.Users[id]; ok {
		return u.Account()
	}
	return entitlement.Account{}
}

// MockDiagnosisRepository is a mock implementation of diagnosis.Repository
type MockDiagnosisRepository struct {
	mu          sync.Mutex
	Diagnoses   map[int64]*diagnosis.Diagnosis
	NextID      int64
	CreateError error
	GetError    error
}

func NewMockDiagnosisRepository() *MockDiagnosisRepository {
	return &MockDiagnosisRepository{
		Diagnoses: make(map[int64]*diagnosis.Diagnosis),
		NextID:    1,
	}
}

func (m *MockDiagnosisRepository) Create(ctx context.Context, d *diagnosis.Diagnosis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	d.ID = m.NextID
	m.NextID++
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	c := *d
	m.Diagnoses[d.ID] = &c
	return nil
}

// Put stores d as is, for seeding fixtures
func (m *MockDiagnosisRepository) Put(d *diagnosis.Diagnosis) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID >= m.NextID {
		m.NextID = d.ID + 1
	}
	c := *d
	m.Diagnoses[d.ID] = &c
}

func (m *MockDiagnosisRepository) GetByID(ctx context.Context, id int64) (*diagnosis.Diagnosis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	d, ok := m.Diagnoses[id]
	if !ok {
		return nil, errors.NotFound("Diagnosis")
	}
	c := *d
	return &c, nil
}

func (m *MockDiagnosisRepository) ListByUser(ctx context.Context, userID int64) ([]*diagnosis.Diagnosis, error) {
	return m.ListRecentByUser(ctx, userID, 0)
}

func (m *MockDiagnosisRepository) ListRecentByUser(ctx context.Context, userID int64, limit int) ([]*diagnosis.Diagnosis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	out := []*diagnosis.Diagnosis{}
	for _, d := range m.Diagnoses {
		if d.UserID == userID {
			c := *d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MockAnalyticsRepository is a mock implementation of analytics.Repository
type MockAnalyticsRepository struct {
	mu         sync.Mutex
	Stats      map[string]*analytics.DiagnosisStats
	Usage      map[int64]map[string]*analytics.UsageMetrics
	Activities []*analytics.Activity
	nextID     int64
	StatsError error
	UsageError error
	LogError   error
}

func NewMockAnalyticsRepository() *MockAnalyticsRepository {
	return &MockAnalyticsRepository{
		Stats:  make(map[string]*analytics.DiagnosisStats),
		Usage:  make(map[int64]map[string]*analytics.UsageMetrics),
		nextID: 1,
	}
}

func (m *MockAnalyticsRepository) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *MockAnalyticsRepository) RecordDiagnosisStat(ctx context.Context, disease string, confidence float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StatsError != nil {
		return m.StatsError
	}
	s, ok := m.Stats[disease]
	if !ok {
		m.Stats[disease] = &analytics.DiagnosisStats{ID: m.id(), DiseaseType: disease, Count: 1, AvgConfidence: confidence, UpdatedAt: time.Now().UTC()}
		return nil
	}
	s.AvgConfidence = (s.AvgConfidence*float64(s.Count) + confidence) / float64(s.Count+1)
	s.Count++
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockAnalyticsRepository) GetDiagnosisStat(ctx context.Context, disease string) (*analytics.DiagnosisStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Stats[disease]
	if !ok {
		return nil, errors.NotFound("Diagnosis statistics")
	}
	c := *s
	return &c, nil
}

func (m *MockAnalyticsRepository) ListDiagnosisStats(ctx context.Context, limit int) ([]*analytics.DiagnosisStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StatsError != nil {
		return nil, m.StatsError
	}
	out := []*analytics.DiagnosisStats{}
	for _, s := range m.Stats {
		c := *s
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].DiseaseType < out[j].DiseaseType
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockAnalyticsRepository) UpdateUsage(ctx context.Context, userID int64, date string, fn func(u *analytics.UsageMetrics)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UsageError != nil {
		return m.UsageError
	}
	days, ok := m.Usage[userID]
	if !ok {
		days = make(map[string]*analytics.UsageMetrics)
		m.Usage[userID] = days
	}
	u, ok := days[date]
	if !ok {
		u = &analytics.UsageMetrics{ID: m.id(), UserID: userID, Date: date, FeatureUsage: analytics.FeatureUsage{}}
		days[date] = u
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockAnalyticsRepository) ListUsage(ctx context.Context, userID int64, from, to string) ([]*analytics.UsageMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UsageError != nil {
		return nil, m.UsageError
	}
	out := []*analytics.UsageMetrics{}
	for date, u := range m.Usage[userID] {
		if (from != "" && date < from) || (to != "" && date > to) {
			continue
		}
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// UsageOn returns the stored row for a user and date, or nil
func (m *MockAnalyticsRepository) UsageOn(userID int64, date string) *analytics.UsageMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Usage[userID][date]
}

func (m *MockAnalyticsRepository) LogActivity(ctx context.Context, a *analytics.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LogError != nil {
		return m.LogError
	}
	a.ID = m.id()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	c := *a
	m.Activities = append(m.Activities, &c)
	return nil
}

func (m *MockAnalyticsRepository) ListActivities(ctx context.Context, userID int64, limit int) ([]*analytics.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*analytics.Activity{}
	for i := len(m.Activities) - 1; i >= 0; i-- {
		if m.Activities[i].UserID == userID {
			c := *m.Activities[i]
			out = append(out, &c)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ActivityTypes lists the types logged for a user, oldest first
func (m *MockAnalyticsRepository) ActivityTypes(userID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, a := range m.Activities {
		if a.UserID == userID {
			out = append(out, a.ActivityType)
		}
	}
	return out
}
