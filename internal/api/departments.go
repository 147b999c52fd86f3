package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	apperrors "github.com/rosterd/rosterd/internal/errors"
	"github.com/rosterd/rosterd/internal/logger"
	"github.com/rosterd/rosterd/internal/models"
	"github.com/rosterd/rosterd/internal/store"
	"github.com/rosterd/rosterd/internal/validation"
)

type ListResponse[T any] struct {
	Total int `json:"total"`
	Data  []T `json:"data"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type DepartmentCreateRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type DepartmentUpdateRequest struct {
	Name *string `json:"name" validate:"omitnil,min=1,max=255"`
}

// Handlers serves the department and officer resources.
type Handlers struct {
	departments store.Departments
	officers    store.Officers
	cache       ReadCache
	log         *logger.Logger
}

func NewHandlers(departments store.Departments, officers store.Officers, cache ReadCache) *Handlers {
	if cache == nil {
		cache = noCache{}
	}
	return &Handlers{
		departments: departments,
		officers:    officers,
		cache:       cache,
		log:         logger.Default().WithComponent("api"),
	}
}

func (h *Handlers) ListDepartments(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var resp ListResponse[models.Department]
	if !h.cache.GetJSON(ctx, departmentsKey, &resp) {
		departments, err := h.departments.ListDepartments(ctx)
		if err != nil {
			return storeError(err, "Department")
		}
		resp = ListResponse[models.Department]{Total: len(departments), Data: departments}
		_ = h.cache.SetJSON(ctx, departmentsKey, resp)
	}

	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusOK, resp)
	return nil
}

func (h *Handlers) CreateDepartment(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req DepartmentCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return err
	}

	d, err := h.departments.CreateDepartment(ctx, req.Name)
	if err != nil {
		return storeError(err, "Department")
	}
	h.invalidate(r, departmentsKey)

	h.log.Info(ctx, "department created", map[string]interface{}{"department_id": d.ID})
	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusOK, d)
	return nil
}

func (h *Handlers) GetDepartment(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := pathID(r, "id", "Department")
	if err != nil {
		return err
	}

	var d models.Department
	if !h.cache.GetJSON(ctx, departmentKey(id), &d) {
		found, err := h.departments.GetDepartment(ctx, id)
		if err != nil {
			return storeError(err, "Department")
		}
		d = *found
		_ = h.cache.SetJSON(ctx, departmentKey(id), d)
	}

	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusOK, d)
	return nil
}

func (h *Handlers) UpdateDepartment(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := pathID(r, "id", "Department")
	if err != nil {
		return err
	}

	var req DepartmentUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if err := validation.Struct(req); err != nil {
		return err
	}

	var d *models.Department
	if req.Name == nil {
		d, err = h.departments.GetDepartment(ctx, id)
	} else {
		d, err = h.departments.RenameDepartment(ctx, id, *req.Name)
	}
	if err != nil {
		return storeError(err, "Department")
	}
	h.invalidate(r, departmentsKey, departmentKey(id))

	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusOK, d)
	return nil
}

func (h *Handlers) DeleteDepartment(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := pathID(r, "id", "Department")
	if err != nil {
		return err
	}

	if err := h.departments.DeleteDepartment(ctx, id); err != nil {
		if errors.Is(err, store.ErrReferenced) {
			return apperrors.Conflict("Department still has officers.")
		}
		return storeError(err, "Department")
	}
	h.invalidate(r, departmentsKey, departmentKey(id), officersKey(id))

	h.log.Info(ctx, "department deleted", map[string]interface{}{"department_id": id})
	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusOK, MessageResponse{
		Message: "Department deleted successfully.",
	})
	return nil
}

// invalidate drops cached reads after a write. Errors are logged by the cache.
func (h *Handlers) invalidate(r *http.Request, keys ...string) {
	_ = h.cache.Delete(r.Context(), keys...)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.BadRequest("invalid request body").WithCause(err)
	}
	return nil
}

// pathID reads a positive integer route variable. Ids that cannot name a row
// answer 404 for resource.
func pathID(r *http.Request, name, resource string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NotFound(resource)
	}
	return id, nil
}

// storeError converts store sentinels into client errors for resource.
func storeError(err error, resource string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound(resource)
	case errors.Is(err, store.ErrDuplicate):
		return apperrors.Conflict(resource + " already exists.")
	case errors.Is(err, store.ErrReferenced):
		return apperrors.Conflict(resource + " is still referenced.")
	case errors.Is(err, store.ErrInvalidReference):
		return apperrors.NotFound("Department")
	default:
		return apperrors.DatabaseError("database operation failed").WithCause(err)
	}
}
