package models

// Department is an organizational unit. Name is unique.
type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Officer belongs to exactly one Department. Email is unique.
type Officer struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	DepartmentID int64  `json:"department_id"`
}

// OfficerUpdate carries the fields of a partial officer update. Nil fields are
// left unchanged.
type OfficerUpdate struct {
	FirstName    *string
	LastName     *string
	Email        *string
	DepartmentID *int64
}
