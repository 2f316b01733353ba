package employee_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/assignment-tracker/internal/core/idgen"
	"github.com/frahmantamala/assignment-tracker/internal/employee"
	"github.com/frahmantamala/assignment-tracker/internal/employee/sqlstore"
	"github.com/frahmantamala/assignment-tracker/internal/storage"
	"github.com/frahmantamala/assignment-tracker/internal/storage/storagetest"
	"github.com/frahmantamala/assignment-tracker/internal/transport"
	"github.com/frahmantamala/assignment-tracker/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Employee Handler Integration", func() {
	var (
		db     *gorm.DB
		router *chi.Mux
	)

	BeforeEach(func() {
		var err error
		db, err = storagetest.NewSeeded(context.Background())
		Expect(err).NotTo(HaveOccurred())

		service := employee.NewService(sqlstore.NewEmployeeRepository(db), idgen.Sequential{}, logger.Discard())
		handler := employee.NewHandler(transport.NewBaseHandler(logger.Discard()), service)
		router = chi.NewRouter()
		router.Route("/employees", handler.Routes)
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

	It("searches with query parameters", func() {
		w := serve(http.MethodGet, "/employees?q=rako&region=Toamasina", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp employee.EmployeesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Total).To(Equal(2))
		Expect(ids(resp.Employees)).To(ConsistOf("E001", "E007"))
	})

	It("creates an employee and returns it with its issued identifier", func() {
		w := serve(http.MethodPost, "/employees", newHire("zoe@example.com"))
		Expect(w.Code).To(Equal(http.StatusCreated))

		var e employee.Employee
		Expect(json.NewDecoder(w.Body).Decode(&e)).To(Succeed())
		Expect(e.ID).To(Equal("E011"))
	})

	It("answers 409 for a duplicate email", func() {
		w := serve(http.MethodPost, "/employees", newHire("jean.rakoto@example.com"))
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring("DUPLICATE_EMAIL"))
	})

	It("answers 409 when deleting an employee with history", func() {
		w := serve(http.MethodDelete, "/employees/E001", nil)
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring("REFERENTIAL_INTEGRITY"))
	})

	It("answers 404 for unknown employees", func() {
		w := serve(http.MethodGet, "/employees/E404", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("rejects unknown JSON fields", func() {
		w := serve(http.MethodPost, "/employees", map[string]string{"salary": "lots"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
