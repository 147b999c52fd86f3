package db

import (
	"context"

	"github.com/rosterd/rosterd/internal/models"
	"github.com/rosterd/rosterd/internal/store"
)

type OfficerRepository struct {
	db *DB
}

func NewOfficerRepository(db *DB) *OfficerRepository {
	return &OfficerRepository{db: db}
}

func (r *OfficerRepository) ListOfficers(ctx context.Context, departmentID int64) ([]models.Officer, error) {
	query := `
		SELECT id, first_name, last_name, email, department_id
		FROM officers
		WHERE department_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, departmentID)
	if err != nil {
		return nil, translate(err, nil)
	}
	defer rows.Close()

	officers := []models.Officer{}
	for rows.Next() {
		var o models.Officer
		if err := rows.Scan(&o.ID, &o.FirstName, &o.LastName, &o.Email, &o.DepartmentID); err != nil {
			return nil, translate(err, nil)
		}
		officers = append(officers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, nil)
	}

	return officers, nil
}

func (r *OfficerRepository) CreateOfficer(ctx context.Context, officer *models.Officer) (*models.Officer, error) {
	query := `
		INSERT INTO officers (first_name, last_name, email, department_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	o := *officer
	err := r.db.QueryRowContext(ctx, query,
		o.FirstName, o.LastName, o.Email, o.DepartmentID,
	).Scan(&o.ID)
	if err != nil {
		return nil, translate(err, store.ErrInvalidReference)
	}

	return &o, nil
}

func (r *OfficerRepository) GetOfficer(ctx context.Context, id int64) (*models.Officer, error) {
	query := `
		SELECT id, first_name, last_name, email, department_id
		FROM officers
		WHERE id = $1
	`

	o := &models.Officer{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.FirstName, &o.LastName, &o.Email, &o.DepartmentID,
	)
	if err != nil {
		return nil, translate(err, nil)
	}

	return o, nil
}

// UpdateOfficer applies a partial update; NULL parameters keep the current value.
func (r *OfficerRepository) UpdateOfficer(ctx context.Context, id int64, update models.OfficerUpdate) (*models.Officer, error) {
	query := `
		UPDATE officers
		SET first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			email = COALESCE($4, email),
			department_id = COALESCE($5, department_id)
		WHERE id = $1
		RETURNING id, first_name, last_name, email, department_id
	`

	o := &models.Officer{}
	err := r.db.QueryRowContext(ctx, query,
		id, update.FirstName, update.LastName, update.Email, update.DepartmentID,
	).Scan(&o.ID, &o.FirstName, &o.LastName, &o.Email, &o.DepartmentID)
	if err != nil {
		return nil, translate(err, store.ErrInvalidReference)
	}

	return o, nil
}

func (r *OfficerRepository) DeleteOfficer(ctx context.Context, id int64) error {
	query := `DELETE FROM officers WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return translate(err, nil)
	}

	return expectOneRow(result)
}
