package report_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/assignment-tracker/internal/report"
	"github.com/frahmantamala/assignment-tracker/internal/storage"
	"github.com/frahmantamala/assignment-tracker/internal/storage/storagetest"
	"github.com/frahmantamala/assignment-tracker/internal/transport"
	"github.com/frahmantamala/assignment-tracker/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var _ = Describe("Report Handler Integration", func() {
	var (
		db     *gorm.DB
		router *chi.Mux
	)

	BeforeEach(func() {
		var err error
		db, err = storagetest.NewSeeded(context.Background())
		Expect(err).NotTo(HaveOccurred())
		sx, err := storage.SQLX(db)
		Expect(err).NotTo(HaveOccurred())

		service := report.NewService(sx, logger.Discard()).WithClock(july2023)
		handler := report.NewHandler(transport.NewBaseHandler(logger.Discard()), service)
		router = chi.NewRouter()
		router.Route("/reports", handler.Routes)
	})

	AfterEach(func() {
		Expect(storage.Close(db)).To(Succeed())
	})

	get := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w
	}

	It("lists the available reports", func() {
		w := get("/reports")
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp report.KindsResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Kinds).To(Equal(report.Kinds))
	})

	It("serves JSON by default", func() {
		w := get("/reports/placements?region=Toamasina")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))

		var resp struct {
			Kind string                `json:"kind"`
			Data []report.PlacementRow `json:"data"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Kind).To(Equal("placements"))
		Expect(resp.Data).To(HaveLen(2))
		Expect(resp.Data[1].EmployeeName).To(Equal("M. RAKOTO Jean"))
	})

	It("downloads CSV", func() {
		w := get("/reports/history?format=csv&from=2023-06-01&to=2023-08-31")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(HavePrefix("text/csv"))
		Expect(w.Header().Get("Content-Disposition")).To(ContainSubstring(`filename="history.csv"`))

		records, err := csv.NewReader(w.Body).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(4))
		Expect(records[1][0]).To(Equal("A006"))
	})

	It("downloads XLSX", func() {
		w := get("/reports/headcount?format=xlsx")
		Expect(w.Code).To(Equal(http.StatusOK))

		f, err := excelize.OpenReader(w.Body)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		rows, err := f.GetRows("Headcount per location")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(11))
		Expect(rows[1][1]).To(Equal("Ambalavao"))
	})

	It("answers 400 for bad input", func() {
		Expect(get("/reports/payroll").Code).To(Equal(http.StatusBadRequest))
		Expect(get("/reports/history?format=pdf").Code).To(Equal(http.StatusBadRequest))
		Expect(get("/reports/history?from=2023-08-31&to=2023-06-01").Code).To(Equal(http.StatusBadRequest))
	})
})
