// Package memstore is an in-process store.Store used when no database is
// configured. Data is lost on restart.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rosterd/rosterd/internal/models"
	"github.com/rosterd/rosterd/internal/store"
)

type Store struct {
	mu sync.RWMutex

	users       map[int64]models.User
	userByEmail map[string]int64
	departments map[int64]models.Department
	officers    map[int64]models.Officer

	nextUserID       int64
	nextDepartmentID int64
	nextOfficerID    int64
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:       make(map[int64]models.User),
		userByEmail: make(map[string]int64),
		departments: make(map[int64]models.Department),
		officers:    make(map[int64]models.Officer),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, email, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.userByEmail[email]; ok {
		return nil, store.ErrDuplicate
	}
	s.nextUserID++
	u := models.User{
		ID:           s.nextUserID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[u.ID] = u
	s.userByEmail[email] = u.ID
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.userByEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) ListDepartments(context.Context) ([]models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Department, 0, len(s.departments))
	for _, d := range s.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateDepartment(_ context.Context, name string) (*models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.departmentNameTaken(name, 0) {
		return nil, store.ErrDuplicate
	}
	s.nextDepartmentID++
	d := models.Department{ID: s.nextDepartmentID, Name: name}
	s.departments[d.ID] = d
	return &d, nil
}

func (s *Store) GetDepartment(_ context.Context, id int64) (*models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.departments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

func (s *Store) RenameDepartment(_ context.Context, id int64, name string) (*models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.departments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if s.departmentNameTaken(name, id) {
		return nil, store.ErrDuplicate
	}
	d.Name = name
	s.departments[id] = d
	return &d, nil
}

func (s *Store) DeleteDepartment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.departments[id]; !ok {
		return store.ErrNotFound
	}
	for _, o := range s.officers {
		if o.DepartmentID == id {
			return store.ErrReferenced
		}
	}
	delete(s.departments, id)
	return nil
}

func (s *Store) ListOfficers(_ context.Context, departmentID int64) ([]models.Officer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Officer{}
	for _, o := range s.officers {
		if o.DepartmentID == departmentID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateOfficer(_ context.Context, officer *models.Officer) (*models.Officer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.departments[officer.DepartmentID]; !ok {
		return nil, store.ErrInvalidReference
	}
	if s.officerEmailTaken(officer.Email, 0) {
		return nil, store.ErrDuplicate
	}
	s.nextOfficerID++
	o := *officer
	o.ID = s.nextOfficerID
	s.officers[o.ID] = o
	return &o, nil
}

func (s *Store) GetOfficer(_ context.Context, id int64) (*models.Officer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.officers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &o, nil
}

func (s *Store) UpdateOfficer(_ context.Context, id int64, update models.OfficerUpdate) (*models.Officer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.officers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if update.DepartmentID != nil {
		if _, ok := s.departments[*update.DepartmentID]; !ok {
			return nil, store.ErrInvalidReference
		}
		o.DepartmentID = *update.DepartmentID
	}
	if update.Email != nil {
		if s.officerEmailTaken(*update.Email, id) {
			return nil, store.ErrDuplicate
		}
		o.Email = *update.Email
	}
	if update.FirstName != nil {
		o.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		o.LastName = *update.LastName
	}
	s.officers[id] = o
	return &o, nil
}

func (s *Store) DeleteOfficer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.officers[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.officers, id)
	return nil
}

// callers must hold mu.
func (s *Store) departmentNameTaken(name string, except int64) bool {
	for id, d := range s.departments {
		if id != except && d.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) officerEmailTaken(email string, except int64) bool {
	for id, o := range s.officers {
		if id != except && o.Email == email {
			return true
		}
	}
	return false
}
