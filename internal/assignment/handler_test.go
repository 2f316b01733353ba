package assignment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/assignment-tracker/internal/assignment"
	"github.com/frahmantamala/assignment-tracker/internal/assignment/sqlstore"
	"github.com/frahmantamala/assignment-tracker/internal/core/idgen"
	"github.com/frahmantamala/assignment-tracker/internal/storage"
	"github.com/frahmantamala/assignment-tracker/internal/storage/storagetest"
	"github.com/frahmantamala/assignment-tracker/internal/transport"
	"github.com/frahmantamala/assignment-tracker/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Assignment Handler Integration", func() {
	var (
		db     *gorm.DB
		router *chi.Mux
	)

	BeforeEach(func() {
		var err error
		db, err = storagetest.NewSeeded(context.Background())
		Expect(err).NotTo(HaveOccurred())

		service := assignment.NewService(sqlstore.NewAssignmentRepository(db), idgen.Sequential{}, nil, logger.Discard()).WithClock(fixedClock)
		handler := assignment.NewHandler(transport.NewBaseHandler(logger.Discard()), service)
		router = chi.NewRouter()
		router.Route("/assignments", handler.Routes)
		router.Route("/employees", handler.EmployeeRoutes)
	})

	AfterEach(func() {
		Expect(storage.Close(db)).To(Succeed())
	})

	serve := func(method, target string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, target, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeList := func(w *httptest.ResponseRecorder) assignment.AssignmentsResponse {
		var resp assignment.AssignmentsResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		return resp
	}

	It("creates an assignment and lists it in the employee history", func() {
		w := serve(http.MethodPost, "/assignments", assignment.CreateAssignmentDTO{
			EmployeeID:            "E001",
			OriginLocationID:      "L2",
			DestinationLocationID: "L5",
			AssignmentDate:        "2024-01-01",
			ServiceStartDate:      "2024-01-08",
		})
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created assignment.AssignmentResponse
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.ID).To(Equal("A011"))
		Expect(created.AssignmentDate).To(Equal("2024-01-01"))

		w = serve(http.MethodGet, "/employees/E001/assignments?recent=true", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		resp := decodeList(w)
		Expect(resp.Total).To(Equal(2))
		Expect(resp.Assignments[0].ID).To(Equal("A011"))
	})

	It("answers 400 for identical origin and destination", func() {
		w := serve(http.MethodPost, "/assignments", assignment.CreateAssignmentDTO{
			EmployeeID:            "E001",
			OriginLocationID:      "L2",
			DestinationLocationID: "L2",
			AssignmentDate:        "2024-01-01",
			ServiceStartDate:      "2024-01-08",
		})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("SAME_LOCATION"))
	})

	It("filters by date range", func() {
		w := serve(http.MethodGet, "/assignments?from=2023-06-01&to=2023-08-31", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		resp := decodeList(w)
		Expect(resp.Total).To(Equal(3))
		Expect(resp.Assignments[0].ID).To(Equal("A006"))
	})

	It("answers 400 for a negative limit", func() {
		w := serve(http.MethodGet, "/assignments?limit=-1", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("answers 404 for unknown assignments and employees", func() {
		Expect(serve(http.MethodGet, "/assignments/A404", nil).Code).To(Equal(http.StatusNotFound))
		Expect(serve(http.MethodGet, "/employees/E404/assignments", nil).Code).To(Equal(http.StatusNotFound))
	})

	It("deletes an assignment", func() {
		Expect(serve(http.MethodDelete, "/assignments/A001", nil).Code).To(Equal(http.StatusNoContent))

		w := serve(http.MethodGet, "/employees/E001/assignments", nil)
		Expect(decodeList(w).Total).To(Equal(0))
	})

	It("relocates an employee from their current location", func() {
		w := serve(http.MethodPost, "/employees/E001/relocate", assignment.RelocateDTO{
			DestinationLocationID: "L3",
			AssignmentDate:        "2024-01-01",
		})
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created assignment.AssignmentResponse
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.OriginLocationID).To(Equal("L2"))
		Expect(created.ServiceStartDate).To(Equal("2024-01-01"))
	})

	It("audits the seeded data without drift", func() {
		w := serve(http.MethodGet, "/assignments/audit", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp assignment.DriftResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Total).To(Equal(0))
		Expect(resp.Applied).To(BeFalse())
	})
})
