package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"immo-scouter/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer exports scored listings to a Google Sheets spreadsheet.
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewWriter creates a Writer for the given spreadsheet. Credentials are read
// from credentialsPath, or from the GOOGLE_SHEETS_CREDENTIALS environment
// variable when the path is empty.
func NewWriter(spreadsheetID string, credentialsPath string) (*Writer, error) {
	ctx := context.Background()

	var credsJSON []byte
	var err error

	if credentialsPath != "" {
		credsJSON, err = os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	} else {
		credsEnv := strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS"))
		if credsEnv == "" {
			return nil, fmt.Errorf("credentials not found: GOOGLE_SHEETS_CREDENTIALS environment variable is empty or not set")
		}
		slog.Info("reading sheets credentials from environment", "bytes", len(credsEnv))
		credsJSON = []byte(credsEnv)
	}

	var creds map[string]interface{}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON: %w", err)
	}
	if creds["type"] != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %v", creds["type"])
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

var header = []interface{}{
	"Score", "Titel", "Bezirk", "Preis", "Fläche m²", "€/m²", "Zimmer",
	"Rate/Monat", "Betriebskosten", "Gesamt/Monat", "Baujahr", "Zustand",
	"Energieklasse", "HWB", "U-Bahn min", "Schule min", "Balkon/Terrasse",
	"Quelle", "Link", "Verarbeitet",
}

func listingRow(l models.Listing) []interface{} {
	return []interface{}{
		fnum(l.Score), sval(l.Title), sval(l.Bezirk), fnum(l.PriceTotal),
		fnum(l.AreaM2), fnum(l.PricePerM2), fnum(l.Rooms),
		fnum(l.MonthlyRate), fnum(l.Betriebskosten), fnum(l.TotalMonthlyCost),
		inum(l.YearBuilt), sval(l.Condition), sval(l.EnergyClass),
		fnum(l.HWBValue), inum(l.UBahnWalkMinutes), inum(l.SchoolWalkMinutes),
		boolMark(l.BalconyTerrace), string(l.Source), l.URL,
		l.ProcessedAt.Format("2006-01-02 15:04"),
	}
}

func sval(p *string) interface{} {
	if p == nil {
		return ""
	}
	return *p
}

func fnum(p *float64) interface{} {
	if p == nil {
		return ""
	}
	return *p
}

func inum(p *int) interface{} {
	if p == nil {
		return ""
	}
	return *p
}

func boolMark(p *bool) interface{} {
	if p == nil {
		return ""
	}
	if *p {
		return "ja"
	}
	return "nein"
}

// WriteListings writes listings ordered by score to Sheet1, optionally
// clearing existing data first.
func (w *Writer) WriteListings(listings []models.Listing, clearFirst bool) error {
	if len(listings) == 0 {
		slog.Info("no listings to write to sheets")
		return nil
	}

	values := [][]interface{}{header}
	for _, l := range byScoreDesc(listings) {
		values = append(values, listingRow(l))
	}

	range_ := "Sheet1!A1"

	if clearFirst {
		clearReq := &sheets.ClearValuesRequest{}
		_, err := w.service.Spreadsheets.Values.Clear(w.spreadsheetID, range_, clearReq).Do()
		if err != nil {
			slog.Warn("failed to clear existing sheet data", "error", err)
		}
	}

	valueRange := &sheets.ValueRange{Values: values}
	_, err := w.service.Spreadsheets.Values.Update(w.spreadsheetID, range_, valueRange).
		ValueInputOption("RAW").
		Do()
	if err != nil {
		return fmt.Errorf("failed to write to sheets: %w", err)
	}

	slog.Info("wrote listings to sheets", "count", len(listings))
	return nil
}

// AppendListings appends listings below the existing data on Sheet1.
func (w *Writer) AppendListings(listings []models.Listing) error {
	if len(listings) == 0 {
		slog.Info("no listings to append to sheets")
		return nil
	}

	resp, err := w.service.Spreadsheets.Values.Get(w.spreadsheetID, "Sheet1!A:A").Do()
	if err != nil {
		return fmt.Errorf("failed to read existing data: %w", err)
	}

	nextRow := 1
	if len(resp.Values) > 0 {
		nextRow = len(resp.Values) + 1
	}

	var values [][]interface{}
	for _, l := range byScoreDesc(listings) {
		values = append(values, listingRow(l))
	}

	updateRange := fmt.Sprintf("Sheet1!A%d", nextRow)
	valueRange := &sheets.ValueRange{Values: values}
	_, err = w.service.Spreadsheets.Values.Update(w.spreadsheetID, updateRange, valueRange).
		ValueInputOption("RAW").
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to sheets: %w", err)
	}

	slog.Info("appended listings to sheets", "count", len(listings), "row", nextRow)
	return nil
}

// WriteRunReport creates a new sheet named after the run and writes the
// scored listings to it. The sheet is inserted at the front of the
// spreadsheet so the latest run is always the first tab. Returns the sheet
// name and sheet ID.
func (w *Writer) WriteRunReport(profile string, listings []models.Listing) (string, int64, error) {
	sheetName := sanitizeSheetName(fmt.Sprintf("%s %s", time.Now().Format("2006-01-02 15:04"), profile))
	if len(sheetName) > 100 {
		sheetName = sheetName[:100]
	}

	addSheetRequest := &sheets.AddSheetRequest{
		Properties: &sheets.SheetProperties{
			Title: sheetName,
			Index: 0,
		},
	}
	batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: addSheetRequest},
		},
	}

	batchUpdateResp, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, batchUpdateRequest).Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to create sheet: %w", err)
	}

	var sheetID int64
	if len(batchUpdateResp.Replies) > 0 && batchUpdateResp.Replies[0].AddSheet != nil {
		sheetID = batchUpdateResp.Replies[0].AddSheet.Properties.SheetId
	}

	values := [][]interface{}{
		{"Profil", profile, "Anzahl", len(listings)},
		header,
	}
	for _, l := range byScoreDesc(listings) {
		values = append(values, listingRow(l))
	}

	range_ := fmt.Sprintf("%s!A1", sheetName)
	valueRange := &sheets.ValueRange{Values: values}
	_, err = w.service.Spreadsheets.Values.Update(w.spreadsheetID, range_, valueRange).
		ValueInputOption("RAW").
		Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to write to sheet: %w", err)
	}

	slog.Info("wrote run report", "sheet", sheetName, "listings", len(listings))
	return sheetName, sheetID, nil
}

// byScoreDesc returns a copy of listings sorted by score, best first.
// Listings without a score sort last.
func byScoreDesc(listings []models.Listing) []models.Listing {
	out := make([]models.Listing, len(listings))
	copy(out, listings)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := -1.0, -1.0
		if out[i].Score != nil {
			si = *out[i].Score
		}
		if out[j].Score != nil {
			sj = *out[j].Score
		}
		return si > sj
	})
	return out
}

// sanitizeSheetName replaces characters Google Sheets does not allow in
// sheet names.
func sanitizeSheetName(name string) string {
	invalidChars := []string{"/", "\\", "?", "*", "[", "]"}
	result := name
	for _, char := range invalidChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	if result == "" {
		result = "Report"
	}
	return result
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
// such as https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit.
func ExtractSpreadsheetID(url string) string {
	parts := strings.Split(url, "/d/")
	if len(parts) < 2 {
		return ""
	}
	idPart := parts[1]
	if idx := strings.Index(idPart, "/"); idx != -1 {
		idPart = idPart[:idx]
	}
	if idx := strings.Index(idPart, "?"); idx != -1 {
		idPart = idPart[:idx]
	}
	return strings.TrimSpace(idPart)
}
