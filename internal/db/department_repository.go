package db

import (
	"context"

	"github.com/rosterd/rosterd/internal/models"
	"github.com/rosterd/rosterd/internal/store"
)

type DepartmentRepository struct {
	db *DB
}

func NewDepartmentRepository(db *DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	query := `
		SELECT id, name
		FROM departments
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, translate(err, nil)
	}
	defer rows.Close()

	departments := []models.Department{}
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, translate(err, nil)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, nil)
	}

	return departments, nil
}

func (r *DepartmentRepository) CreateDepartment(ctx context.Context, name string) (*models.Department, error) {
	query := `
		INSERT INTO departments (name)
		VALUES ($1)
		RETURNING id
	`

	d := &models.Department{Name: name}
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&d.ID); err != nil {
		return nil, translate(err, nil)
	}

	return d, nil
}

func (r *DepartmentRepository) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	query := `
		SELECT id, name
		FROM departments
		WHERE id = $1
	`

	d := &models.Department{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.Name); err != nil {
		return nil, translate(err, nil)
	}

	return d, nil
}

func (r *DepartmentRepository) RenameDepartment(ctx context.Context, id int64, name string) (*models.Department, error) {
	query := `
		UPDATE departments
		SET name = $2
		WHERE id = $1
		RETURNING id, name
	`

	d := &models.Department{}
	if err := r.db.QueryRowContext(ctx, query, id, name).Scan(&d.ID, &d.Name); err != nil {
		return nil, translate(err, nil)
	}

	return d, nil
}

// DeleteDepartment removes a department. Departments with officers are
// protected by the officers foreign key and yield store.ErrReferenced.
func (r *DepartmentRepository) DeleteDepartment(ctx context.Context, id int64) error {
	query := `DELETE FROM departments WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return translate(err, store.ErrReferenced)
	}

	return expectOneRow(result)
}
