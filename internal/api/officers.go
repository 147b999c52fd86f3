package api

import (
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/rosterd/rosterd/internal/errors"
	"github.com/rosterd/rosterd/internal/models"
	"github.com/rosterd/rosterd/internal/store"
	"github.com/rosterd/rosterd/internal/validation"
)

type OfficerCreateRequest struct {
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email,max=255"`
}

type OfficerUpdateRequest struct {
	FirstName    *string `json:"first_name" validate:"omitnil,min=1,max=255"`
	LastName     *string `json:"last_name" validate:"omitnil,min=1,max=255"`
	Email        *string `json:"email" validate:"omitnil,email,max=255"`
	DepartmentID *int64  `json:"department_id" validate:"omitnil,gt=0"`
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func (h *Handlers) ListOfficers(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	deptID, err := pathID(r, "id", "Department")
	if err != nil {
		return err
	}

	var resp ListResponse[models.Officer]
	if !h.cache.GetJSON(ctx, officersKey(deptID), &resp) {
		if _, err := h.departments.GetDepartment(ctx, deptID); err != nil {
			return storeError(err, "Department")
		}
		officers, err := h.officers.ListOfficers(ctx, deptID)
		if err != nil {
			return storeError(err, "Officer")
		}
		resp = ListResponse[models.Officer]{Total: len(officers), Data: officers}
		_ = h.cache.SetJSON(ctx, officersKey(deptID), resp)
	}

	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusOK, resp)
	return nil
}

func (h *Handlers) CreateOfficer(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	deptID, err := pathID(r, "id", "Department")
	if err != nil {
		return err
	}

	var req OfficerCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(req); err != nil {
		return err
	}

	o, err := h.officers.CreateOfficer(ctx, &models.Officer{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		DepartmentID: deptID,
	})
	if err != nil {
		return storeError(err, "Officer")
	}
	h.invalidate(r, officersKey(deptID))

	h.log.Info(ctx, "officer created", map[string]interface{}{
		"officer_id":    o.ID,
		"department_id": deptID,
	})
	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusOK, o)
	return nil
}

// officerInDepartment loads the officer named by the path and hides officers
// that belong to another department.
func (h *Handlers) officerInDepartment(r *http.Request) (*models.Officer, error) {
	deptID, err := pathID(r, "id", "Department")
	if err != nil {
		return nil, err
	}
	officerID, err := pathID(r, "officer_id", "Officer")
	if err != nil {
		return nil, err
	}

	o, err := h.officers.GetOfficer(r.Context(), officerID)
	if err != nil {
		return nil, storeError(err, "Officer")
	}
	if o.DepartmentID != deptID {
		return nil, apperrors.NotFound("Officer")
	}
	return o, nil
}

func (h *Handlers) GetOfficer(w http.ResponseWriter, r *http.Request) error {
	o, err := h.officerInDepartment(r)
	if err != nil {
		return err
	}
	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusOK, o)
	return nil
}

func (h *Handlers) UpdateOfficer(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	current, err := h.officerInDepartment(r)
	if err != nil {
		return err
	}

	var req OfficerUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	req.FirstName = trimPtr(req.FirstName)
	req.LastName = trimPtr(req.LastName)
	req.Email = trimPtr(req.Email)
	if err := validation.Struct(req); err != nil {
		return err
	}

	o, err := h.officers.UpdateOfficer(ctx, current.ID, models.OfficerUpdate{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidReference) {
			return apperrors.ValidationError("department_id: department does not exist")
		}
		return storeError(err, "Officer")
	}
	h.invalidate(r, officersKey(current.DepartmentID), officersKey(o.DepartmentID))

	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusOK, o)
	return nil
}

func (h *Handlers) DeleteOfficer(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	o, err := h.officerInDepartment(r)
	if err != nil {
		return err
	}

	if err := h.officers.DeleteOfficer(ctx, o.ID); err != nil {
		return storeError(err, "Officer")
	}
	h.invalidate(r, officersKey(o.DepartmentID))

	h.log.Info(ctx, "officer deleted", map[string]interface{}{"officer_id": o.ID})
	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusOK, MessageResponse{
		Message: "Officer deleted successfully.",
	})
	return nil
}
