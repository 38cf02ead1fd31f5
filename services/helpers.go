package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

func normalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// formatMeters renders 350 as "350m" and 1240 as "1.2km".
func formatMeters(m int) string {
	if m < 1000 {
		return fmt.Sprintf("%dm", m)
	}
	return strconv.FormatFloat(float64(m)/1000, 'f', 1, 64) + "km"
}

// parseDurationMinutes converts an ISO 8601 duration (PT5H30M) to minutes.
func parseDurationMinutes(iso string) int {
	iso = strings.TrimPrefix(iso, "PT")
	if iso == "" {
		return 0
	}
	total := 0
	if hIdx := strings.Index(iso, "H"); hIdx >= 0 {
		h, _ := strconv.Atoi(iso[:hIdx])
		total += h * 60
		iso = iso[hIdx+1:]
	}
	if mIdx := strings.Index(iso, "M"); mIdx >= 0 {
		m, _ := strconv.Atoi(iso[:mIdx])
		total += m
	}
	return total
}

// FormatDuration renders minutes as "5h 30m".
func FormatDuration(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}

func parsePrice(s string) float64 {
	price, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return price
}

func parseRating(s string) float64 {
	r := parsePrice(s)
	if r <= 0 {
		return 3
	}
	// Amadeus returns star ratings 1-5
	if r > 5 {
		r = 5
	}
	return r
}

var priceNumber = regexp.MustCompile(`[0-9]{1,3}(?:[. ][0-9]{3})+(?:,[0-9]{1,2})?|[0-9]+(?:,[0-9]{1,2})?`)

// parseEuropeanPrice reads prices like "€ 1.234,50", "1 234 €" or "EUR 980".
// Dots and spaces are thousands separators, a comma is the decimal mark.
func parseEuropeanPrice(text string) (float64, string, bool) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\u00a0", " "))
	raw := priceNumber.FindString(text)
	if raw == "" {
		return 0, "", false
	}
	raw = strings.NewReplacer(".", "", " ", "").Replace(raw)
	raw = strings.Replace(raw, ",", ".", 1)

	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || amount <= 0 {
		return 0, "", false
	}

	currency := "EUR"
	switch {
	case strings.Contains(text, "€"), strings.Contains(text, "EUR"):
	case strings.Contains(text, "SAR"):
		currency = "SAR"
	case strings.Contains(text, "$"), strings.Contains(text, "USD"):
		currency = "USD"
	}
	return amount, currency, true
}

var distanceValue = regexp.MustCompile(`([0-9]+(?:[.,][0-9]+)?)\s*(km|m)\b`)

// parseDistanceMeters reads "350 m", "1,2 km" or "1.5 km from centre".
func parseDistanceMeters(text string) (int, bool) {
	match := distanceValue.FindStringSubmatch(strings.ToLower(text))
	if match == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(match[1], ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	if match[2] == "km" {
		v *= 1000
	}
	return int(v + 0.5), true
}

// airlineName returns full airline name from IATA code
func airlineName(code string) string {
	names := map[string]string{
		"SV": "Saudia",
		"XY": "flynas",
		"F3": "flyadeal",
		"TK": "Turkish Airlines",
		"PC": "Pegasus Airlines",
		"LH": "Lufthansa",
		"EW": "Eurowings",
		"AF": "Air France",
		"BA": "British Airways",
		"EK": "Emirates",
		"QR": "Qatar Airways",
		"EY": "Etihad Airways",
		"MS": "EgyptAir",
		"RJ": "Royal Jordanian",
		"GF": "Gulf Air",
		"WY": "Oman Air",
		"KU": "Kuwait Airways",
		"FZ": "FlyDubai",
		"G9": "Air Arabia",
		"OS": "Austrian Airlines",
		"LX": "Swiss International Air Lines",
		"KL": "KLM",
	}
	if name, ok := names[code]; ok {
		return name
	}
	if code != "" {
		return code + " Airlines"
	}
	return "Unknown Airline"
}
