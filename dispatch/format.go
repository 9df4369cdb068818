package dispatch

import (
	"fmt"
	"html"
	"strings"

	"immo-scouter/models"
	"immo-scouter/normalize"
)

// FormatMessage renders one listing as a Telegram HTML message. Lines
// for absent fields are omitted rather than filled with placeholders.
func FormatMessage(l *models.Listing) string {
	var lines []string

	header := "🏠 <b>" + html.EscapeString(headline(l)) + "</b>"
	if l.PriceTotal != nil {
		header += fmt.Sprintf(" - %s", euro(*l.PriceTotal))
	}
	lines = append(lines, header)

	if l.MonthlyRate != nil {
		lines = append(lines, fmt.Sprintf("💰 Rate: %s", euro(*l.MonthlyRate)))
	}
	if l.Betriebskosten != nil {
		lines = append(lines, fmt.Sprintf("📄 Betriebskosten: %s", euro(*l.Betriebskosten)))
	}
	if l.TotalMonthlyCost != nil {
		lines = append(lines, fmt.Sprintf("💳 Gesamt/Monat: %s", euro(*l.TotalMonthlyCost)))
	}
	if l.Bezirk != nil {
		lines = append(lines, fmt.Sprintf("📍 %s %s", *l.Bezirk, normalize.DistrictName(*l.Bezirk)))
	}
	if l.AreaM2 != nil && l.PricePerM2 != nil {
		lines = append(lines, fmt.Sprintf("📐 %.0fm² - %s/m²", *l.AreaM2, euro(*l.PricePerM2)))
	}
	if l.Rooms != nil {
		lines = append(lines, fmt.Sprintf("🛏️ %.0f Zimmer", *l.Rooms))
	}
	if l.Score != nil {
		lines = append(lines, fmt.Sprintf("🔥 <b>Score: %.1f</b>", *l.Score))
	}
	if l.UBahnWalkMinutes != nil {
		lines = append(lines, fmt.Sprintf("🚇 U-Bahn: %d min", *l.UBahnWalkMinutes))
	}
	if l.SchoolWalkMinutes != nil {
		lines = append(lines, fmt.Sprintf("🏫 Schule: %d min", *l.SchoolWalkMinutes))
	}
	if l.YearBuilt != nil {
		lines = append(lines, fmt.Sprintf("🏗️ Baujahr: %d", *l.YearBuilt))
	}
	if l.Condition != nil {
		lines = append(lines, fmt.Sprintf("🔧 Zustand: %s", html.EscapeString(*l.Condition)))
	}
	if l.EnergyClass != nil {
		lines = append(lines, fmt.Sprintf("⚡ Energieklasse: %s", *l.EnergyClass))
	}
	lines = append(lines, fmt.Sprintf(`🔗 <a href="%s">Zum Inserat</a>`, l.URL))

	return strings.Join(lines, "\n")
}

func headline(l *models.Listing) string {
	if l.Address != nil {
		return *l.Address
	}
	if l.Title != nil {
		return *l.Title
	}
	return l.URL
}

// euro formats an amount as a rounded euro figure with thousands
// separators the Austrian way.
func euro(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return "€" + b.String()
}
