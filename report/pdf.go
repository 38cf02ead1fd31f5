package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"umrahcheck/planner"
	"umrahcheck/services"
)

// Quote is everything printed on the customer's PDF.
type Quote struct {
	Result       *planner.SearchResult
	CustomerName string
	Summary      string
	GeneratedAt  time.Time
}

// RenderPDF lays out a quote on A4 and returns the raw bytes.
func RenderPDF(q Quote) ([]byte, error) {
	if q.Result == nil {
		return nil, fmt.Errorf("render pdf: no result")
	}
	r := q.Result

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	// core fonts are cp1252; this maps € and ± correctly
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// ── Header Bar ───────────────────────────────────────────
	pdf.SetFillColor(14, 59, 46)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(100, 10, "UmrahCheck", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(212, 168, 67)
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, "Umrah package quote", "", 1, "L", false, 0, "")

	pdf.SetY(35)

	// ── Disclaimer ───────────────────────────────────────────
	pdf.SetFillColor(255, 248, 225)
	pdf.SetDrawColor(212, 168, 67)
	pdf.SetTextColor(130, 90, 20)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetLineWidth(0.4)
	y := pdf.GetY()
	pdf.Rect(20, y, 170, 12, "FD")
	pdf.SetXY(23, y+2)
	disclaimer := fmt.Sprintf("This is NOT a booking confirmation. Prices are indicative and valid until %s. Please verify with the providers before booking.",
		r.ValidUntil.UTC().Format("02 Jan 2006, 15:04 UTC"))
	pdf.MultiCell(164, 4, tr(disclaimer), "", "C", false)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.Ln(6)

	// ── Section Helper ───────────────────────────────────────
	sectionHeader := func(title string) {
		pdf.SetFillColor(14, 59, 46)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+tr(title), "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(55, 7, tr(label), "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(115, 7, tr(value), "", 1, "L", false, 0, "")
	}

	// ── Traveller Info ────────────────────────────────────────
	a := r.Assumptions
	alloc := a.BudgetAllocation
	sectionHeader("Traveller Information")
	name := q.CustomerName
	if name == "" {
		name = "Guest"
	}
	row("Name", name)
	row("Reference", r.LeadToken)
	row("Generated", q.GeneratedAt.UTC().Format("02 Jan 2006, 15:04 UTC"))
	pdf.Ln(4)

	// ── Trip Overview ─────────────────────────────────────────
	sectionHeader("Trip Overview")
	row("Departure", fmtDateReadable(a.DepartureDate))
	row("Return", fmtDateReadable(a.ReturnDate)+" ("+a.DateFlexibility+")")
	row("Nights", fmt.Sprintf("%d Makkah, %d Madinah", a.NightsMakkah, a.NightsMadinah))
	row("Travellers", fmt.Sprintf("%d", alloc.Persons))
	row("Rooms", a.RoomCalculation)
	row("Budget", fmt.Sprintf("%s per person (flights %d%%, hotels %d%%, reserve %d%%)",
		euro(alloc.AveragePerPerson), alloc.FlightPercent, alloc.HotelPercent, alloc.ContingencyPercent))
	pdf.Ln(4)

	// ── Options ───────────────────────────────────────────────
	for _, opt := range r.Options {
		sectionHeader(fmt.Sprintf("%s package  ·  score %.1f", opt.Label, opt.Score))
		row("Outbound", flightLine(opt.FlightOutbound))
		row("Return", flightLine(opt.FlightReturn))
		if opt.HotelMakkah != nil {
			row("Makkah", hotelLine(opt.HotelMakkah))
		}
		if opt.HotelMadinah != nil {
			row("Madinah", hotelLine(opt.HotelMadinah))
		}
		row("Per person", euro(opt.TotalPerPerson))
		row("Group total", euro(opt.TotalGroup))
		if opt.SavingsAmount > 0 {
			row("Under budget by", euro(opt.SavingsAmount))
		}

		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.MultiCell(170, 5, tr(opt.Recommendation.WhyRecommended), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(4)
	}

	// ── Advisory summary ──────────────────────────────────────
	if q.Summary != "" {
		sectionHeader("Our Recommendation")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(40, 40, 40)
		pdf.MultiCell(170, 5, tr(q.Summary), "", "L", false)
		pdf.Ln(4)
	}

	// ── Footer ────────────────────────────────────────────────
	pdf.SetY(-22)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.3)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 8,
		tr("UmrahCheck · Not a booking confirmation · Prices subject to change · "+r.LeadToken),
		"", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}

func fmtDateReadable(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02 Jan 2006 (Mon)")
}

func euro(v float64) string {
	return fmt.Sprintf("€%.2f", v)
}

func flightLine(f services.FlightCandidate) string {
	stops := "direct"
	if f.Stops > 0 {
		stops = fmt.Sprintf("%d stop(s)", f.Stops)
	}
	parts := []string{f.Airline}
	if len(f.FlightNumbers) > 0 {
		parts = append(parts, strings.Join(f.FlightNumbers, "/"))
	}
	line := strings.Join(parts, " ") + ", " + stops
	if f.DurationMinutes > 0 {
		line += ", " + services.FormatDuration(f.DurationMinutes)
	}
	return line + ", " + euro(f.PricePerPerson) + " pp"
}

func hotelLine(h *services.HotelCandidate) string {
	return fmt.Sprintf("%s (%.0f*), %s, %d nights, %s",
		h.Name, h.Stars, h.DistanceDescription, h.Nights, euro(h.PriceTotal))
}
