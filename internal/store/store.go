// Package store defines the persistence contracts shared by the PostgreSQL and
// in-memory backends.
package store

import (
	"context"
	"errors"

	"github.com/rosterd/rosterd/internal/models"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate value")
	// ErrReferenced is returned when a delete would orphan dependent rows.
	ErrReferenced = errors.New("row is still referenced")
	// ErrInvalidReference is returned when a write names a parent that does not exist.
	ErrInvalidReference = errors.New("referenced row does not exist")
)

type Users interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type Departments interface {
	ListDepartments(ctx context.Context) ([]models.Department, error)
	CreateDepartment(ctx context.Context, name string) (*models.Department, error)
	GetDepartment(ctx context.Context, id int64) (*models.Department, error)
	RenameDepartment(ctx context.Context, id int64, name string) (*models.Department, error)
	DeleteDepartment(ctx context.Context, id int64) error
}

type Officers interface {
	ListOfficers(ctx context.Context, departmentID int64) ([]models.Officer, error)
	CreateOfficer(ctx context.Context, officer *models.Officer) (*models.Officer, error)
	GetOfficer(ctx context.Context, id int64) (*models.Officer, error)
	UpdateOfficer(ctx context.Context, id int64, update models.OfficerUpdate) (*models.Officer, error)
	DeleteOfficer(ctx context.Context, id int64) error
}

// Store is the full persistence surface used by the server.
type Store interface {
	Users
	Departments
	Officers
	Ping(ctx context.Context) error
	Close() error
}
