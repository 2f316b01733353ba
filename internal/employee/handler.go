package employee

import (
	"context"
	"net/http"

	"github.com/frahmantamala/assignment-tracker/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Search(ctx context.Context, filter SearchFilter) ([]*Employee, error)
	Get(ctx context.Context, id string) (*Employee, error)
	Create(ctx context.Context, dto CreateEmployeeDTO) (*Employee, error)
	Update(ctx context.Context, id string, dto UpdateEmployeeDTO) (*Employee, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// Routes mounts the employee endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.SearchEmployees)
	r.Post("/", h.CreateEmployee)
	r.Get("/{id}", h.GetEmployee)
	r.Put("/{id}", h.UpdateEmployee)
	r.Delete("/{id}", h.DeleteEmployee)
}

// SearchEmployees accepts q, location_id, region, job_title, unassigned and fuzzy.
func (h *Handler) SearchEmployees(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := SearchFilter{
		Query:      query.Get("q"),
		LocationID: query.Get("location_id"),
		Region:     query.Get("region"),
		JobTitle:   query.Get("job_title"),
		Unassigned: h.QueryBool(r, "unassigned"),
		Fuzzy:      h.QueryBool(r, "fuzzy"),
	}

	employees, err := h.Service.Search(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, EmployeesResponse{Employees: employees, Total: len(employees)})
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, emp)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var dto CreateEmployeeDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	emp, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateEmployee: employee created", "employee_id", emp.ID)
	h.WriteJSON(w, http.StatusCreated, emp)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var dto UpdateEmployeeDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	emp, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, emp)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("DeleteEmployee: employee deleted", "employee_id", id)
	w.WriteHeader(http.StatusNoContent)
}
