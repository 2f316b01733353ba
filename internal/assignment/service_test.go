package assignment_test

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/frahmantamala/assignment-tracker/internal"
	"github.com/frahmantamala/assignment-tracker/internal/assignment"
	"github.com/frahmantamala/assignment-tracker/internal/assignment/sqlstore"
	assignmentDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/assignment"
	employeeDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/employee"
	locationDatamodel "github.com/frahmantamala/assignment-tracker/internal/core/datamodel/location"
	"github.com/frahmantamala/assignment-tracker/internal/core/events"
	"github.com/frahmantamala/assignment-tracker/internal/core/idgen"
	"github.com/frahmantamala/assignment-tracker/internal/storage"
	"github.com/frahmantamala/assignment-tracker/internal/storage/storagetest"
	"github.com/frahmantamala/assignment-tracker/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)
}

// detailCodes returns the per-field codes of a validation error.
func detailCodes(err error) map[string]string {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	details, ok := appErr.Details.(internal.ValidationErrors)
	Expect(ok).To(BeTrue(), "expected field details on %v", err)

	codes := make(map[string]string, len(details.Errors))
	for _, fe := range details.Errors {
		codes[fe.Field] = fe.Code
	}
	return codes
}

// seedScenario stores three locations, E1 placed at L1 and E2 placed at L3.
func seedScenario(db *gorm.DB) {
	Expect(db.Create(&[]locationDatamodel.Location{
		{ID: "L1", Name: "HQ", Region: "North"},
		{ID: "L2", Name: "Branch", Region: "South"},
		{ID: "L3", Name: "Annex", Region: "East"},
	}).Error).To(Succeed())
	Expect(db.Create(&[]employeeDatamodel.Employee{
		{ID: "E1", Title: "Mr", LastName: "Rakoto", FirstName: "Jean", Email: "e1@example.com", JobTitle: "Manager", CurrentLocationID: strPtr("L1")},
		{ID: "E2", Title: "Mme", LastName: "Rasoa", FirstName: "Marie", Email: "e2@example.com", JobTitle: "Developer", CurrentLocationID: strPtr("L3")},
		{ID: "E3", Title: "Mlle", LastName: "Ravelo", FirstName: "Zoé", Email: "e3@example.com", JobTitle: "Analyst"},
	}).Error).To(Succeed())
}

// recorder collects the types of delivered events.
type recorder struct {
	mu    sync.Mutex
	types []string
}

func (r *recorder) record(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, event.EventType())
	return nil
}

func (r *recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.types...)
}

// failingPlacements breaks every placement write, inside transactions too.
type failingPlacements struct {
	assignment.RepositoryAPI
}

func (r failingPlacements) Transaction(ctx context.Context, fn func(repo assignment.RepositoryAPI) error) error {
	return r.RepositoryAPI.Transaction(ctx, func(tx assignment.RepositoryAPI) error {
		return fn(failingPlacements{tx})
	})
}

func (failingPlacements) SetEmployeeLocation(context.Context, string, *string) error {
	return internal.NewStorageError("placement write failed", nil)
}

var _ = Describe("Assignment Service", func() {
	var (
		ctx      context.Context
		db       *gorm.DB
		repo     assignment.RepositoryAPI
		bus      *events.EventBus
		received *recorder
		service  *assignment.Service
	)

	placement := func(employeeID string) *string {
		var emp employeeDatamodel.Employee
		Expect(db.Select("id", "current_location_id").Where("id = ?", employeeID).Take(&emp).Error).To(Succeed())
		return emp.CurrentLocationID
	}

	history := func(employeeID string) []*assignmentDatamodel.Assignment {
		var rows []*assignmentDatamodel.Assignment
		Expect(db.Where("employee_id = ?", employeeID).Find(&rows).Error).To(Succeed())
		return rows
	}

	move := func(id, employeeID, origin, dest, assigned, started string) assignment.CreateAssignmentDTO {
		return assignment.CreateAssignmentDTO{
			ID:                    id,
			EmployeeID:            employeeID,
			OriginLocationID:      origin,
			DestinationLocationID: dest,
			AssignmentDate:        assigned,
			ServiceStartDate:      started,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		db, err = storagetest.NewMemory(ctx)
		Expect(err).NotTo(HaveOccurred())
		seedScenario(db)

		received = &recorder{}
		bus = events.NewEventBus(logger.Discard())
		for _, t := range append(events.AssignmentEventTypes, events.EventTypeEmployeeRelocated) {
			bus.Subscribe(t, received.record)
		}

		repo = sqlstore.NewAssignmentRepository(db)
		service = assignment.NewService(repo, idgen.Sequential{}, bus, logger.Discard()).WithClock(fixedClock)
	})

	AfterEach(func() {
		Expect(storage.Close(db)).To(Succeed())
	})

	It("follows the employee through create and delete", func() {
		_, err := service.Create(ctx, move("A1", "E1", "L1", "L2", "2024-01-10", "2024-01-15"))
		Expect(err).NotTo(HaveOccurred())
		Expect(placement("E1")).To(HaveValue(Equal("L2")))

		_, err = service.Create(ctx, move("A2", "E1", "L2", "L1", "2024-02-01", "2024-02-05"))
		Expect(err).NotTo(HaveOccurred())
		Expect(placement("E1")).To(HaveValue(Equal("L1")))

		Expect(service.Delete(ctx, "A2")).To(Succeed())
		Expect(placement("E1")).To(HaveValue(Equal("L2")))

		Expect(received.Types()).To(Equal([]string{
			events.EventTypeAssignmentCreated, events.EventTypeEmployeeRelocated,
			events.EventTypeAssignmentCreated, events.EventTypeEmployeeRelocated,
			events.EventTypeAssignmentDeleted, events.EventTypeEmployeeRelocated,
		}))
	})

	Describe("Create", func() {
		It("returns the stored assignment with calendar dates", func() {
			a, err := service.Create(ctx, move("A1", "E1", "L1", "L2", "2024-01-10", "2024-01-15"))
			Expect(err).NotTo(HaveOccurred())

			got, err := service.Get(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ToResponse().AssignmentDate).To(Equal("2024-01-10"))
			Expect(got.ToResponse().ServiceStartDate).To(Equal("2024-01-15"))
			Expect(got.DestinationLocationID).To(Equal("L2"))
		})

		It("issues sequential identifiers when none is given", func() {
			first, err := service.Create(ctx, move("", "E1", "L1", "L2", "2024-01-10", "2024-01-15"))
			Expect(err).NotTo(HaveOccurred())
			second, err := service.Create(ctx, move("", "E1", "L2", "L3", "2024-02-10", "2024-02-15"))
			Expect(err).NotTo(HaveOccurred())

			Expect(first.ID).To(Equal("A001"))
			Expect(second.ID).To(Equal("A002"))
		})

		It("rejects identical origin and destination and writes nothing", func() {
			_, err := service.Create(ctx, move("A1", "E1", "L1", "L1", "2024-01-10", "2024-01-15"))
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
			Expect(detailCodes(err)).To(HaveKeyWithValue("destination_location_id", string(internal.ErrCodeSameLocation)))

			Expect(history("E1")).To(BeEmpty())
			Expect(placement("E1")).To(HaveValue(Equal("L1")))
		})

		It("rejects a service start before the assignment date", func() {
			_, err := service.Create(ctx, move("A1", "E1", "L1", "L2", "2024-01-10", "2024-01-09"))
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
			Expect(detailCodes(err)).To(HaveKeyWithValue("service_start_date", string(internal.ErrCodeInvalidDate)))
		})

		It("accepts a service start on the assignment date", func() {
			_, err := service.Create(ctx, move("A1", "E1", "L1", "L2", "2024-01-10", "2024-01-10"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects assignment dates in the future", func() {
			_, err := service.Create(ctx, move("A1", "E1", "L1", "L2", "2024-06-02", "2024-06-03"))
			Expect(detailCodes(err)).To(HaveKeyWithValue("assignment_date", string(internal.ErrCodeInvalidDate)))

			_, err = service.Create(ctx, move("A1", "E1", "L1", "L2", "2024-06-01", "2024-06-03"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects malformed dates and missing fields", func() {
			_, err := service.Create(ctx, assignment.CreateAssignmentDTO{AssignmentDate: "10/01/2024"})
			codes := detailCodes(err)
			Expect(codes).To(HaveKeyWithValue("employee_id", string(internal.ErrCodeRequired)))
			Expect(codes).To(HaveKeyWithValue("origin_location_id", string(internal.ErrCodeRequired)))
			Expect(codes).To(HaveKeyWithValue("destination_location_id", string(internal.ErrCodeRequired)))
			Expect(codes).To(HaveKeyWithValue("assignment_date", string(internal.ErrCodeInvalidDate)))
			Expect(codes).To(HaveKeyWithValue("service_start_date", string(internal.ErrCodeRequired)))
		})

		It("requires the origin to be the employee's current location", func() {
			_, err := service.Create(ctx, move("A1", "E1", "L2", "L3", "2024-01-10", "2024-01-15"))
			Expect(detailCodes(err)).To(HaveKeyWithValue("origin_location_id", string(internal.ErrCodeOriginMismatch)))
			Expect(history("E1")).To(BeEmpty())
		})

		It("places an unassigned employee from any existing origin", func() {
			_, err := service.Create(ctx, move("A1", "E3", "L2", "L3", "2024-01-10", "2024-01-15"))
			Expect(err).NotTo(HaveOccurred())
			Expect(placement("E3")).To(HaveValue(Equal("L3")))
		})

		It("rejects unknown employees and locations", func() {
			_, err := service.Create(ctx, move("A1", "E9", "L1", "L2", "2024-01-10", "2024-01-15"))
			Expect(detailCodes(err)).To(HaveKeyWithValue("employee_id", string(internal.ErrCodeUnknownReference)))

			_, err = service.Create(ctx, move("A1", "E1", "L1", "L9", "2024-01-10", "2024-01-15"))
			Expect(detailCodes(err)).To(HaveKeyWithValue("destination_location_id", string(internal.ErrCodeUnknownReference)))
		})

		It("reports a duplicate identifier as a conflict", func() {
			_, err := service.Create(ctx, move("A1", "E1", "L1", "L2", "2024-01-10", "2024-01-15"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, move("A1", "E1", "L2", "L3", "2024-02-10", "2024-02-15"))
			Expect(internal.IsType(err, internal.ErrorTypeConflict)).To(BeTrue())
			Expect(placement("E1")).To(HaveValue(Equal("L2")))
		})

		It("keeps the later placement when a back-dated assignment is inserted", func() {
			_, err := service.Create(ctx, move("A1", "E1", "L1", "L2", "2024-01-10", "2024-01-15"))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Create(ctx, move("A2", "E1", "L2", "L3", "2024-03-01", "2024-03-05"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, move("A3", "E1", "L3", "L1", "2023-12-01", "2023-12-05"))
			Expect(err).NotTo(HaveOccurred())
			Expect(placement("E1")).To(HaveValue(Equal("L3")))
		})

		It("rolls the insert back when the placement cannot be written", func() {
			broken := assignment.NewService(failingPlacements{repo}, idgen.Sequential{}, bus, logger.Discard()).WithClock(fixedClock)

			_, err := broken.Create(ctx, move("A1", "E1", "L1", "L2", "2024-01-10", "2024-01-15"))
			Expect(internal.IsType(err, internal.ErrorTypeStorage)).To(BeTrue())

			Expect(history("E1")).To(BeEmpty())
			Expect(placement("E1")).To(HaveValue(Equal("L1")))
			Expect(received.Types()).To(BeEmpty())
		})

		It("keeps a committed assignment when a subscriber fails", func() {
			bus.Subscribe(events.EventTypeAssignmentCreated, func(context.Context, events.Event) error {
				return internal.NewStorageError("audit sink unavailable", nil)
			})

			_, err := service.Create(ctx, move("A1", "E1", "L1", "L2", "2024-01-10", "2024-01-15"))
			Expect(err).NotTo(HaveOccurred())
			Expect(history("E1")).To(HaveLen(1))
			Expect(placement("E1")).To(HaveValue(Equal("L2")))
		})
	})

	Describe("Update", func() {
		BeforeEach(func() {
			_, err := service.Create(ctx, move("A1", "E1", "L1", "L2", "2024-01-10", "2024-01-15"))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Create(ctx, move("A2", "E1", "L2", "L3", "2024-02-10", "2024-02-15"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("recomputes when the dates reorder the history", func() {
			Expect(placement("E1")).To(HaveValue(Equal("L3")))

			_, err := service.Update(ctx, "A2", assignment.UpdateAssignmentDTO{
				EmployeeID:            "E1",
				OriginLocationID:      "L2",
				DestinationLocationID: "L3",
				AssignmentDate:        "2023-12-01",
				ServiceStartDate:      "2023-12-02",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(placement("E1")).To(HaveValue(Equal("L2")))
		})

		It("recomputes both employees when a row changes hands", func() {
			_, err := service.Update(ctx, "A2", assignment.UpdateAssignmentDTO{
				EmployeeID:            "E2",
				OriginLocationID:      "L3",
				DestinationLocationID: "L1",
				AssignmentDate:        "2024-02-10",
				ServiceStartDate:      "2024-02-15",
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(placement("E1")).To(HaveValue(Equal("L2")))
			Expect(placement("E2")).To(HaveValue(Equal("L1")))
		})

		It("clears the placement of an employee left without history", func() {
			Expect(service.Delete(ctx, "A2")).To(Succeed())

			_, err := service.Update(ctx, "A1", assignment.UpdateAssignmentDTO{
				EmployeeID:            "E3",
				OriginLocationID:      "L1",
				DestinationLocationID: "L2",
				AssignmentDate:        "2024-01-10",
				ServiceStartDate:      "2024-01-15",
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(placement("E1")).To(BeNil())
			Expect(placement("E3")).To(HaveValue(Equal("L2")))
		})

		It("returns not found for unknown assignments", func() {
			_, err := service.Update(ctx, "A404", assignment.UpdateAssignmentDTO{
				EmployeeID:            "E1",
				OriginLocationID:      "L1",
				DestinationLocationID: "L2",
				AssignmentDate:        "2024-01-10",
				ServiceStartDate:      "2024-01-15",
			})
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})

		It("validates like create", func() {
			_, err := service.Update(ctx, "A1", assignment.UpdateAssignmentDTO{
				EmployeeID:            "E1",
				OriginLocationID:      "L1",
				DestinationLocationID: "L1",
				AssignmentDate:        "2024-01-10",
				ServiceStartDate:      "2024-01-15",
			})
			Expect(detailCodes(err)).To(HaveKeyWithValue("destination_location_id", string(internal.ErrCodeSameLocation)))

			got, err := service.Get(ctx, "A1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.DestinationLocationID).To(Equal("L2"))
		})
	})

	Describe("Delete", func() {
		It("clears the placement once no history remains", func() {
			_, err := service.Create(ctx, move("A1", "E1", "L1", "L2", "2024-01-10", "2024-01-15"))
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Delete(ctx, "A1")).To(Succeed())
			Expect(placement("E1")).To(BeNil())
		})

		It("returns not found for unknown assignments", func() {
			err := service.Delete(ctx, "A404")
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})
	})

	It("keeps every placement consistent across a random sequence of mutations", func() {
		rng := rand.New(rand.NewSource(7))
		locations := []string{"L1", "L2", "L3"}
		base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

		pickOther := func(not string) string {
			for {
				l := locations[rng.Intn(len(locations))]
				if l != not {
					return l
				}
			}
		}
		dates := func() (string, string) {
			assigned := base.AddDate(0, 0, rng.Intn(120))
			started := assigned.AddDate(0, 0, rng.Intn(5))
			return assigned.Format("2006-01-02"), started.Format("2006-01-02")
		}

		for i := 0; i < 60; i++ {
			rows := history("E1")
			op := rng.Intn(3)

			switch {
			case op == 0 || len(rows) == 0:
				origin := "L1"
				if current := placement("E1"); current != nil {
					origin = *current
				}
				assigned, started := dates()
				_, err := service.Create(ctx, move("", "E1", origin, pickOther(origin), assigned, started))
				Expect(err).NotTo(HaveOccurred())
			case op == 1:
				target := rows[rng.Intn(len(rows))]
				assigned, started := dates()
				_, err := service.Update(ctx, target.ID, assignment.UpdateAssignmentDTO{
					EmployeeID:            "E1",
					OriginLocationID:      target.OriginLocationID,
					DestinationLocationID: pickOther(target.OriginLocationID),
					AssignmentDate:        assigned,
					ServiceStartDate:      started,
				})
				Expect(err).NotTo(HaveOccurred())
			default:
				target := rows[rng.Intn(len(rows))]
				Expect(service.Delete(ctx, target.ID)).To(Succeed())
			}

			expected := assignment.CurrentLocation(history("E1"))
			if expected == nil {
				Expect(placement("E1")).To(BeNil(), "after step %d", i)
			} else {
				Expect(placement("E1")).To(HaveValue(Equal(*expected)), "after step %d", i)
			}

			newest, err := service.List(ctx, assignment.ListFilter{EmployeeID: "E1", Recent: true, Limit: 1})
			Expect(err).NotTo(HaveOccurred())
			if len(newest) == 1 {
				Expect(placement("E1")).To(HaveValue(Equal(newest[0].DestinationLocationID)))
			}
		}
	})

	Describe("Relocate", func() {
		It("moves the employee from their current location", func() {
			a, err := service.Relocate(ctx, "E1", assignment.RelocateDTO{
				DestinationLocationID: "L3",
				AssignmentDate:        "2024-05-01",
				ServiceStartDate:      "2024-05-10",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(a.OriginLocationID).To(Equal("L1"))
			Expect(placement("E1")).To(HaveValue(Equal("L3")))
		})

		It("dates the move today when no date is given", func() {
			a, err := service.Relocate(ctx, "E1", assignment.RelocateDTO{DestinationLocationID: "L2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(a.ToResponse().AssignmentDate).To(Equal("2024-06-01"))
			Expect(a.ToResponse().ServiceStartDate).To(Equal("2024-06-01"))
		})

		It("needs an origin for an unassigned employee", func() {
			_, err := service.Relocate(ctx, "E3", assignment.RelocateDTO{DestinationLocationID: "L2"})
			Expect(detailCodes(err)).To(HaveKeyWithValue("origin_location_id", string(internal.ErrCodeRequired)))

			_, err = service.Relocate(ctx, "E3", assignment.RelocateDTO{OriginLocationID: "L1", DestinationLocationID: "L2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(placement("E3")).To(HaveValue(Equal("L2")))
		})

		It("returns not found for unknown employees", func() {
			_, err := service.Relocate(ctx, "E9", assignment.RelocateDTO{DestinationLocationID: "L2"})
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			for _, dto := range []assignment.CreateAssignmentDTO{
				move("A1", "E1", "L1", "L2", "2024-01-10", "2024-01-15"),
				move("A2", "E1", "L2", "L3", "2024-03-10", "2024-03-15"),
				move("A3", "E2", "L3", "L1", "2024-02-10", "2024-02-15"),
			} {
				_, err := service.Create(ctx, dto)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		assignmentIDs := func(list []*assignment.Assignment) []string {
			out := make([]string, 0, len(list))
			for _, a := range list {
				out = append(out, a.ID)
			}
			return out
		}

		It("orders chronologically by default", func() {
			list, err := service.List(ctx, assignment.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(assignmentIDs(list)).To(Equal([]string{"A1", "A3", "A2"}))
		})

		It("filters an inclusive date range", func() {
			list, err := service.List(ctx, assignment.ListFilter{From: "2024-02-10", To: "2024-03-10"})
			Expect(err).NotTo(HaveOccurred())
			Expect(assignmentIDs(list)).To(Equal([]string{"A3", "A2"}))
		})

		It("returns the most recent first with a limit", func() {
			list, err := service.List(ctx, assignment.ListFilter{Recent: true, Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(assignmentIDs(list)).To(Equal([]string{"A2", "A3"}))
		})

		It("rejects an inverted range", func() {
			_, err := service.List(ctx, assignment.ListFilter{From: "2024-03-01", To: "2024-01-01"})
			Expect(detailCodes(err)).To(HaveKeyWithValue("to", string(internal.ErrCodeInvalidDate)))
		})

		It("lists one employee's history and rejects unknown employees", func() {
			list, err := service.ListForEmployee(ctx, "E1", assignment.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(assignmentIDs(list)).To(Equal([]string{"A1", "A2"}))

			_, err = service.ListForEmployee(ctx, "E9", assignment.ListFilter{})
			Expect(internal.IsType(err, internal.ErrorTypeNotFound)).To(BeTrue())
		})
	})

	Describe("Audit and Reconcile", func() {
		BeforeEach(func() {
			_, err := service.Create(ctx, move("A1", "E1", "L1", "L2", "2024-01-10", "2024-01-15"))
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Model(&employeeDatamodel.Employee{}).Where("id = ?", "E1").
				Update("current_location_id", "L3").Error).To(Succeed())
		})

		It("reports drift only for employees with history", func() {
			drifts, err := service.Audit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(drifts).To(HaveLen(1))
			Expect(drifts[0].EmployeeID).To(Equal("E1"))
			Expect(drifts[0].Stored).To(HaveValue(Equal("L3")))
			Expect(drifts[0].Expected).To(HaveValue(Equal("L2")))
		})

		It("corrects the drift and leaves nothing to audit", func() {
			fixed, err := service.Reconcile(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(fixed).To(HaveLen(1))
			Expect(placement("E1")).To(HaveValue(Equal("L2")))
			Expect(placement("E2")).To(HaveValue(Equal("L3")))

			drifts, err := service.Audit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(drifts).To(BeEmpty())
		})
	})
})
