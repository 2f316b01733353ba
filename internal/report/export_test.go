package report_test

import (
	"bytes"
	"encoding/csv"

	"github.com/frahmantamala/assignment-tracker/internal"
	"github.com/frahmantamala/assignment-tracker/internal/report"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
)

var _ = Describe("Export", func() {
	table := &report.Table{
		Title:   "Headcount per location",
		Headers: []string{"Location ID", "Location", "Region", "Headcount"},
		Rows: [][]string{
			{"L9", "Ambalavao", "Fianarantsoa", "1"},
			{"L1", "Antananarivo, centre", "Antananarivo", "1"},
		},
	}

	Describe("ParseFormat", func() {
		It("defaults to JSON and ignores case", func() {
			Expect(report.ParseFormat("")).To(Equal(report.FormatJSON))
			Expect(report.ParseFormat("CSV")).To(Equal(report.FormatCSV))
			Expect(report.ParseFormat(" xlsx ")).To(Equal(report.FormatXLSX))
		})

		It("rejects unknown formats", func() {
			_, err := report.ParseFormat("pdf")
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("names downloads after the report", func() {
			Expect(report.FormatCSV.Filename(report.KindHeadcount)).To(Equal("headcount.csv"))
			Expect(report.FormatXLSX.ContentType()).To(ContainSubstring("spreadsheetml"))
		})
	})

	It("writes CSV with a header row and quoted cells", func() {
		var buf bytes.Buffer
		Expect(report.WriteCSV(&buf, table)).To(Succeed())

		records, err := csv.NewReader(&buf).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(3))
		Expect(records[0]).To(Equal(table.Headers))
		Expect(records[2][1]).To(Equal("Antananarivo, centre"))
	})

	It("writes a single-sheet workbook", func() {
		var buf bytes.Buffer
		Expect(report.WriteXLSX(&buf, table)).To(Succeed())

		f, err := excelize.OpenReader(&buf)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		Expect(f.GetSheetList()).To(Equal([]string{"Headcount per location"}))
		rows, err := f.GetRows("Headcount per location")
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(3))
		Expect(rows[0]).To(Equal(table.Headers))
		Expect(rows[1]).To(Equal([]string{"L9", "Ambalavao", "Fianarantsoa", "1"}))
	})

	It("truncates sheet names to the workbook limit", func() {
		var buf bytes.Buffer
		long := &report.Table{Title: "Assignments across every region: 2023/2024", Headers: []string{"A"}}
		Expect(report.WriteXLSX(&buf, long)).To(Succeed())

		f, err := excelize.OpenReader(&buf)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		sheets := f.GetSheetList()
		Expect(sheets).To(HaveLen(1))
		Expect(len(sheets[0])).To(BeNumerically("<=", 31))
		Expect(sheets[0]).NotTo(ContainSubstring("/"))
	})
})
