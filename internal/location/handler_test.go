package location_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/assignment-tracker/internal"
	"github.com/frahmantamala/assignment-tracker/internal/location"
	"github.com/frahmantamala/assignment-tracker/internal/transport"
	"github.com/frahmantamala/assignment-tracker/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// stubService serves canned results so the handler can be tested alone.
type stubService struct {
	locations []*location.Location
	err       error
	created   location.CreateLocationDTO
	deleted   string
}

func (s *stubService) List(_ context.Context, filter location.ListFilter) ([]*location.Location, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*location.Location
	for _, l := range s.locations {
		if filter.Region == "" || l.Region == filter.Region {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubService) Get(_ context.Context, id string) (*location.Location, error) {
	for _, l := range s.locations {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, internal.NewNotFoundError("location "+id+" not found", internal.ErrCodeLocationNotFound)
}

func (s *stubService) Regions(context.Context) ([]string, error) {
	return []string{"Analamanga"}, s.err
}

func (s *stubService) Create(_ context.Context, dto location.CreateLocationDTO) (*location.Location, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	s.created = dto
	return &location.Location{ID: "L001", Name: dto.Name, Region: dto.Region}, nil
}

func (s *stubService) Update(_ context.Context, id string, dto location.UpdateLocationDTO) (*location.Location, error) {
	return &location.Location{ID: id, Name: dto.Name, Region: dto.Region}, s.err
}

func (s *stubService) Delete(_ context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = id
	return nil
}

var _ = Describe("Location Handler", func() {
	var (
		stub   *stubService
		router *chi.Mux
	)

	BeforeEach(func() {
		stub = &stubService{locations: []*location.Location{
			{ID: "L1", Name: "Antananarivo", Region: "Analamanga"},
			{ID: "L2", Name: "Toamasina", Region: "Atsinanana"},
		}}
		handler := location.NewHandler(transport.NewBaseHandler(logger.Discard()), stub)
		router = chi.NewRouter()
		router.Route("/locations", handler.Routes)
	})

	serve := func(method, target string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("lists locations filtered by region", func() {
		w := serve(http.MethodGet, "/locations?region=Analamanga", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp location.LocationsResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Locations).To(HaveLen(1))
		Expect(resp.Locations[0].ID).To(Equal("L1"))
	})

	It("returns regions from the dedicated route", func() {
		w := serve(http.MethodGet, "/locations/regions", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("Analamanga"))
	})

	It("maps not found to 404 with the error envelope", func() {
		w := serve(http.MethodGet, "/locations/L404", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))

		var resp map[string]map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp["error"]["type"]).To(Equal("NOT_FOUND"))
		Expect(resp["error"]["code"]).To(Equal("LOCATION_NOT_FOUND"))
	})

	It("creates a location and answers 201", func() {
		body, _ := json.Marshal(location.CreateLocationDTO{Name: "Mahajanga", Region: "Boeny"})
		w := serve(http.MethodPost, "/locations", body)
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(stub.created.Name).To(Equal("Mahajanga"))
	})

	It("answers 400 with field details on validation failure", func() {
		body, _ := json.Marshal(location.CreateLocationDTO{Name: "", Region: "Boeny"})
		w := serve(http.MethodPost, "/locations", body)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring(`"field":"name"`))
	})

	It("answers 400 on malformed JSON", func() {
		w := serve(http.MethodPost, "/locations", []byte("{not json"))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("maps referential integrity failures to 409", func() {
		stub.err = internal.NewReferentialIntegrityError("in use", internal.ErrCodeLocationInUse)
		w := serve(http.MethodDelete, "/locations/L1", nil)
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("answers 204 on delete", func() {
		w := serve(http.MethodDelete, "/locations/L2", nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(stub.deleted).To(Equal("L2"))
	})
})
