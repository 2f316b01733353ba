package report

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/frahmantamala/assignment-tracker/internal"
	"github.com/frahmantamala/assignment-tracker/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Generate(ctx context.Context, kind Kind, params Params) (*Result, error)
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

type KindsResponse struct {
	Kinds   []Kind   `json:"kinds"`
	Formats []Format `json:"formats"`
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListReports)
	r.Get("/{kind}", h.GetReport)
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, KindsResponse{
		Kinds:   Kinds,
		Formats: []Format{FormatJSON, FormatCSV, FormatXLSX},
	})
}

// GetReport serves a report as JSON, or as a CSV or XLSX download when
// ?format= asks for one.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	q := r.URL.Query()
	format, err := ParseFormat(q.Get("format"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	res, err := h.Service.Generate(r.Context(), kind, Params{
		From:   q.Get("from"),
		To:     q.Get("to"),
		Region: q.Get("region"),
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if format == FormatJSON {
		h.WriteJSON(w, http.StatusOK, res)
		return
	}

	var buf bytes.Buffer
	switch format {
	case FormatCSV:
		err = WriteCSV(&buf, res.Table)
	case FormatXLSX:
		err = WriteXLSX(&buf, res.Table)
	}
	if err != nil {
		h.HandleServiceError(w, internal.NewStorageError("failed to export report", err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(kind)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.Logger.Error("failed to write report", "kind", kind, "error", err)
	}
}
