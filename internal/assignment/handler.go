package assignment

import (
	"context"
	"net/http"

	"github.com/frahmantamala/assignment-tracker/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*Assignment, error)
	ListForEmployee(ctx context.Context, employeeID string, filter ListFilter) ([]*Assignment, error)
	Get(ctx context.Context, id string) (*Assignment, error)
	Create(ctx context.Context, dto CreateAssignmentDTO) (*Assignment, error)
	Update(ctx context.Context, id string, dto UpdateAssignmentDTO) (*Assignment, error)
	Delete(ctx context.Context, id string) error
	Relocate(ctx context.Context, employeeID string, dto RelocateDTO) (*Assignment, error)
	Audit(ctx context.Context) ([]*Drift, error)
	Reconcile(ctx context.Context) ([]*Drift, error)
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

// Routes mounts the assignment endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListAssignments)
	r.Post("/", h.CreateAssignment)
	r.Get("/audit", h.AuditPlacements)
	r.Post("/reconcile", h.ReconcilePlacements)
	r.Get("/{id}", h.GetAssignment)
	r.Put("/{id}", h.UpdateAssignment)
	r.Delete("/{id}", h.DeleteAssignment)
}

// EmployeeRoutes mounts the per-employee endpoints on the employee router.
func (h *Handler) EmployeeRoutes(r chi.Router) {
	r.Get("/{id}/assignments", h.ListEmployeeAssignments)
	r.Post("/{id}/relocate", h.RelocateEmployee)
}

func (h *Handler) filterFromQuery(r *http.Request) (ListFilter, error) {
	limit, err := h.QueryInt(r, "limit", 0)
	if err != nil {
		return ListFilter{}, err
	}
	query := r.URL.Query()
	return ListFilter{
		EmployeeID: query.Get("employee_id"),
		From:       query.Get("from"),
		To:         query.Get("to"),
		Recent:     h.QueryBool(r, "recent"),
		Limit:      limit,
	}, nil
}

// ListAssignments accepts employee_id, from, to, recent and limit.
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	filter, err := h.filterFromQuery(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	list, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, AssignmentsResponse{Assignments: ToResponses(list), Total: len(list)})
}

func (h *Handler) ListEmployeeAssignments(w http.ResponseWriter, r *http.Request) {
	filter, err := h.filterFromQuery(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	list, err := h.Service.ListForEmployee(r.Context(), chi.URLParam(r, "id"), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, AssignmentsResponse{Assignments: ToResponses(list), Total: len(list)})
}

func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, a.ToResponse())
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var dto CreateAssignmentDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, a.ToResponse())
}

func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	var dto UpdateAssignmentDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, a.ToResponse())
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RelocateEmployee(w http.ResponseWriter, r *http.Request) {
	var dto RelocateDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.Relocate(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, a.ToResponse())
}

func (h *Handler) AuditPlacements(w http.ResponseWriter, r *http.Request) {
	drifts, err := h.Service.Audit(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, DriftResponse{Drifts: drifts, Total: len(drifts)})
}

func (h *Handler) ReconcilePlacements(w http.ResponseWriter, r *http.Request) {
	drifts, err := h.Service.Reconcile(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("ReconcilePlacements: placements reconciled", "corrected", len(drifts))
	h.WriteJSON(w, http.StatusOK, DriftResponse{Drifts: drifts, Total: len(drifts), Applied: true})
}
