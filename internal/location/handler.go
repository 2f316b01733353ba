package location

import (
	"context"
	"net/http"

	"github.com/frahmantamala/assignment-tracker/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*Location, error)
	Get(ctx context.Context, id string) (*Location, error)
	Regions(ctx context.Context) ([]string, error)
	Create(ctx context.Context, dto CreateLocationDTO) (*Location, error)
	Update(ctx context.Context, id string, dto UpdateLocationDTO) (*Location, error)
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

// Routes mounts the location endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListLocations)
	r.Post("/", h.CreateLocation)
	r.Get("/regions", h.ListRegions)
	r.Get("/{id}", h.GetLocation)
	r.Put("/{id}", h.UpdateLocation)
	r.Delete("/{id}", h.DeleteLocation)
}

func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Region: r.URL.Query().Get("region")}

	locations, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, LocationsResponse{Locations: locations})
}

func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.Service.Regions(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, RegionsResponse{Regions: regions})
}

func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, loc)
}

func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var dto CreateLocationDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	loc, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateLocation: location created", "location_id", loc.ID)
	h.WriteJSON(w, http.StatusCreated, loc)
}

func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var dto UpdateLocationDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	loc, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, loc)
}

func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("DeleteLocation: location deleted", "location_id", id)
	w.WriteHeader(http.StatusNoContent)
}
