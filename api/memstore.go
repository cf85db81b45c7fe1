package api

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/fieldops/pkg/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("already exists")
	ErrBadCredential = errors.New("invalid credentials")
)

type account struct {
	models.Engineer
	Role         models.Role
	PasswordHash []byte
}

func (a *account) user() models.User {
	return models.User{ID: a.ID, Name: a.Name, Email: a.Email, Phone: a.Phone, Address: a.Address, Pincode: a.Pincode, Role: a.Role}
}

func (a *account) engineer() models.Engineer {
	e := a.Engineer
	e.Availability = slices.Clone(e.Availability)
	return e
}

func (a *account) profile() models.Profile {
	p := models.Profile{Name: a.Name, Email: a.Email, Phone: a.Phone, Address: a.Address, Pincode: a.Pincode}
	if a.Role == models.RoleEngineer {
		p.Specialization = a.Specialization
		p.Availability = slices.Clone(a.Availability)
	}
	return p
}

// MemStore keeps every backend collection in memory.
type MemStore struct {
	mu            sync.RWMutex
	cost          int
	now           func() time.Time
	nextID        int
	accounts      []*account
	tasks         []models.Task
	hazards       []models.Hazard
	notifications map[string][]models.Notification
}

type MemOption func(*MemStore)

// WithHashCost sets the bcrypt cost used for new passwords.
func WithHashCost(cost int) MemOption {
	return func(s *MemStore) { s.cost = cost }
}

func NewMemStore(opts ...MemOption) *MemStore {
	s := &MemStore{
		cost:          bcrypt.DefaultCost,
		now:           time.Now,
		notifications: make(map[string][]models.Notification),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// id must be called with mu held.
func (s *MemStore) id() string {
	s.nextID++
	return strconv.Itoa(s.nextID)
}

func (s *MemStore) findAccount(email string) *account {
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, email) {
			return a
		}
	}
	return nil
}

func (s *MemStore) findTask(id string) int {
	return slices.IndexFunc(s.tasks, func(t models.Task) bool { return t.ID == id })
}

func (s *MemStore) notify(email, msg string) {
	key := strings.ToLower(email)
	s.notifications[key] = append(s.notifications[key], models.Notification{ID: s.id(), Message: msg, CreatedAt: s.now().UTC()})
}

// Register creates an account. Engineers start unapproved.
func (s *MemStore) Register(in models.Signup) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findAccount(in.Email) != nil {
		return models.User{}, ErrDuplicate
	}
	a := &account{
		Engineer: models.Engineer{
			ID:             s.id(),
			Name:           in.Name,
			Email:          in.Email,
			Phone:          in.Phone,
			Address:        in.Address,
			Pincode:        in.Pincode,
			Specialization: in.Specialization,
			Availability:   slices.Clone(in.Availability),
		},
		Role:         in.Role,
		PasswordHash: hash,
	}
	s.accounts = append(s.accounts, a)
	if in.Role == models.RoleEngineer {
		for _, admin := range s.accounts {
			if admin.Role == models.RoleAdmin {
				s.notify(admin.Email, "New engineer awaiting approval: "+in.Email)
			}
		}
	}
	return a.user(), nil
}

// Authenticate checks credentials for the given role.
func (s *MemStore) Authenticate(email, password string, role models.Role) (models.User, error) {
	s.mu.RLock()
	a := s.findAccount(email)
	s.mu.RUnlock()
	if a == nil || a.Role != role {
		return models.User{}, ErrBadCredential
	}
	if bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)) != nil {
		return models.User{}, ErrBadCredential
	}
	return a.user(), nil
}

func (s *MemStore) ResetPassword(email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findAccount(email)
	if a == nil {
		return ErrNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (s *MemStore) Profile(role models.Role, email string) (models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := s.findAccount(email)
	if a == nil || a.Role != role {
		return models.Profile{}, ErrNotFound
	}
	return a.profile(), nil
}

// UpdateProfile replaces the editable fields. The email is immutable.
func (s *MemStore) UpdateProfile(role models.Role, email string, p models.Profile) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findAccount(email)
	if a == nil || a.Role != role {
		return models.Profile{}, ErrNotFound
	}
	a.Name, a.Phone, a.Address, a.Pincode = p.Name, p.Phone, p.Address, p.Pincode
	if role == models.RoleEngineer {
		a.Specialization = p.Specialization
		a.Availability = slices.Clone(p.Availability)
	}
	return a.profile(), nil
}

func (s *MemStore) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.User{}
	for _, a := range s.accounts {
		if a.Role == models.RoleUser {
			out = append(out, a.user())
		}
	}
	return out
}

// Engineers lists engineer accounts; approvedOnly restricts to approved ones.
func (s *MemStore) Engineers(approvedOnly bool) []models.Engineer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Engineer{}
	for _, a := range s.accounts {
		if a.Role != models.RoleEngineer || (approvedOnly && !a.IsEngineer) {
			continue
		}
		e := a.engineer()
		e.CurrentTasks = 0
		for _, t := range s.tasks {
			if strings.EqualFold(t.AssignedTo(), e.Email) && t.Status != models.StatusCompleted {
				e.CurrentTasks++
			}
		}
		out = append(out, e)
	}
	return out
}

func (s *MemStore) Approve(email string, approve bool) (models.Engineer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findAccount(email)
	if a == nil || a.Role != models.RoleEngineer {
		return models.Engineer{}, ErrNotFound
	}
	a.IsEngineer = approve
	msg := "Your engineer account was approved"
	if !approve {
		msg = "Your engineer approval was revoked"
	}
	s.notify(a.Email, msg)
	return a.engineer(), nil
}

func (s *MemStore) Tasks(match func(models.Task) bool) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Task{}
	for _, t := range s.tasks {
		if match == nil || match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *MemStore) Task(id string) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.findTask(id)
	if i < 0 {
		return models.Task{}, ErrNotFound
	}
	return s.tasks[i], nil
}

// CreateTask stores a new open ticket and assigns it to assignee when set.
func (s *MemStore) CreateTask(in models.TicketInput, assignee string) models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	t := models.Task{
		ID:          s.id(),
		ServiceType: in.ServiceType,
		Status:      models.StatusOpen,
		Priority:    strings.ToLower(in.Priority),
		Description: in.Description,
		Address:     in.Address,
		Pincode:     in.Pincode,
		UserEmail:   in.UserEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if assignee != "" {
		t.EngineerEmail = &assignee
		s.notify(assignee, "New task assigned: "+t.ServiceType)
	}
	s.tasks = append(s.tasks, t)
	return t
}

// UpdateTask applies fn to the task with id under the write lock.
func (s *MemStore) UpdateTask(id string, fn func(*models.Task) error) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findTask(id)
	if i < 0 {
		return models.Task{}, ErrNotFound
	}
	t := s.tasks[i]
	if err := fn(&t); err != nil {
		return models.Task{}, err
	}
	t.UpdatedAt = s.now().UTC()
	s.tasks[i] = t
	return t, nil
}

// Notify queues a notification for email.
func (s *MemStore) Notify(email, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify(email, msg)
}

// NotifyRole queues msg for every account with role.
func (s *MemStore) NotifyRole(role models.Role, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Role == role {
			s.notify(a.Email, msg)
		}
	}
}

func (s *MemStore) Hazards() []models.Hazard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Hazard{}, s.hazards...)
}

func (s *MemStore) CreateHazard(in models.HazardInput, reporter string) models.Hazard {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := models.Hazard{
		ID:          s.id(),
		HazardType:  in.HazardType,
		Description: in.Description,
		RiskLevel:   strings.ToLower(in.RiskLevel),
		Address:     in.Address,
		Pincode:     in.Pincode,
		ReportedBy:  reporter,
	}
	s.hazards = append(s.hazards, h)
	return h
}

func (s *MemStore) UpdateHazard(id string, in models.HazardInput) (models.Hazard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.hazards, func(h models.Hazard) bool { return h.ID == id })
	if i < 0 {
		return models.Hazard{}, ErrNotFound
	}
	h := &s.hazards[i]
	h.HazardType, h.Description, h.RiskLevel = in.HazardType, in.Description, strings.ToLower(in.RiskLevel)
	h.Address, h.Pincode = in.Address, in.Pincode
	return *h, nil
}

func (s *MemStore) DeleteHazard(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.hazards, func(h models.Hazard) bool { return h.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	s.hazards = slices.Delete(s.hazards, i, i+1)
	return nil
}

// Notifications returns the notifications of email, newest first.
func (s *MemStore) Notifications(email string) []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns := slices.Clone(s.notifications[strings.ToLower(email)])
	slices.Reverse(ns)
	if ns == nil {
		ns = []models.Notification{}
	}
	return ns
}

// MarkRead marks one of email's notifications as read.
func (s *MemStore) MarkRead(email, id string) (models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.notifications[strings.ToLower(email)]
	for i := range ns {
		if ns[i].ID == id {
			ns[i].IsRead = true
			return ns[i], nil
		}
	}
	return models.Notification{}, ErrNotFound
}
