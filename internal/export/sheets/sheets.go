package sheets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"saasboard/internal/export"
)

// Writer appends KPI snapshot rows to a Google Sheet.
type Writer struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ export.SnapshotWriter = (*Writer)(nil)

// NewFromEnv creates a Sheets writer using service account credentials from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, spreadsheetID, sheetName string) (*Writer, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if sheetName == "" {
		sheetName = "KPI Snapshots"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Writer{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendSnapshot appends one row to the configured sheet.
func (w *Writer) AppendSnapshot(ctx context.Context, s export.Snapshot) error {
	if w.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row := []any{
		s.GeneratedAt.Format("2006-01-02 15:04:05"),
		s.Month.String(),
		string(s.Range),
		cell(s.Kpis.ARR),
		cell(s.Kpis.ARRGrowth),
		cell(s.Kpis.NRR),
		cell(s.Kpis.GRR),
		cell(s.Kpis.GrossMargin),
		cell(s.Kpis.OpMargin),
		cell(s.Kpis.BurnMultiple),
		cell(s.Kpis.RunwayMonths),
		cell(s.Kpis.NetMonthlyBurn),
		cell(s.Kpis.EndingCashBalance),
	}

	rng := fmt.Sprintf("%s!A:M", w.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	_, err := w.svc.Spreadsheets.Values.Append(w.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", w.sheetName, err)
	}
	return nil
}

// cell maps non-finite metric values onto a readable sheet cell.
func cell(v float64) any {
	if math.IsNaN(v) {
		return "n/a"
	}
	if math.IsInf(v, 1) {
		return "inf"
	}
	if math.IsInf(v, -1) {
		return "-inf"
	}
	return v
}
