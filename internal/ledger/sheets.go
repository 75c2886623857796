package ledger

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"shiftbot-backend/internal/models"
	"shiftbot-backend/internal/workflow"
)

// SheetsLedger persists shifts into a Google Sheets spreadsheet, one
// worksheet per month, one worker block per registered phone. It implements
// workflow.Ledger.
type SheetsLedger struct {
	svc           *sheets.Service
	spreadsheetID string
	loc           *time.Location
	now           func() time.Time

	mu       sync.Mutex
	sheetIDs map[string]int64 // worksheet title -> sheetId
}

// NewSheetsLedger authenticates with service-account credentials JSON, the
// same shape of credentials the original deployment carries in its
// environment.
func NewSheetsLedger(ctx context.Context, spreadsheetID string, credentialsJSON []byte, loc *time.Location) (*SheetsLedger, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsLedger{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		loc:           loc,
		now:           time.Now,
		sheetIDs:      make(map[string]int64),
	}, nil
}

// monthSheet resolves (creating if needed) the worksheet for the current
// month and returns its title and sheetId.
func (l *SheetsLedger) monthSheet() (string, int64, error) {
	title := monthTitle(l.now().In(l.loc))

	l.mu.Lock()
	if id, ok := l.sheetIDs[title]; ok {
		l.mu.Unlock()
		return title, id, nil
	}
	l.mu.Unlock()

	spreadsheet, err := l.svc.Spreadsheets.Get(l.spreadsheetID).Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	for _, sh := range spreadsheet.Sheets {
		if sh.Properties.Title == title {
			l.mu.Lock()
			l.sheetIDs[title] = sh.Properties.SheetId
			l.mu.Unlock()
			return title, sh.Properties.SheetId, nil
		}
	}

	log.Printf("📄 Creating month worksheet %q", title)
	resp, err := l.svc.Spreadsheets.BatchUpdate(l.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title:          title,
					GridProperties: &sheets.GridProperties{RowCount: 1000, ColumnCount: 20},
				},
			},
		}},
	}).Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to add month worksheet %q: %w", title, err)
	}

	sheetID := resp.Replies[0].AddSheet.Properties.SheetId
	l.mu.Lock()
	l.sheetIDs[title] = sheetID
	l.mu.Unlock()
	return title, sheetID, nil
}

// FindOpenBlock locates the worker's block in the current month worksheet by
// the phone cell (column C) and returns its header row.
func (l *SheetsLedger) FindOpenBlock(phone string) (int64, error) {
	title, _, err := l.monthSheet()
	if err != nil {
		return 0, err
	}

	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, fmt.Sprintf("%s!C1:C1000", title)).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to scan phone column: %w", err)
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if cell, ok := row[0].(string); ok && cell == phone {
			// The phone sits in the first data row; the header is right
			// above it.
			return int64(i+1) - 1, nil
		}
	}
	return 0, workflow.ErrBlockNotFound
}

// CreateBlock appends a new worker block to the month worksheet: a header
// row, one row per day of the month with the date column prefilled, merged
// name/phone cells and block formatting.
func (l *SheetsLedger) CreateBlock(w models.Worker) (int64, error) {
	title, sheetID, err := l.monthSheet()
	if err != nil {
		return 0, err
	}

	existing, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, fmt.Sprintf("%s!B1:M1000", title)).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to read worksheet extent: %w", err)
	}

	now := l.now().In(l.loc)
	days := daysInMonth(now)
	headerRow := int64(len(existing.Values)) + 2
	dataStart := headerRow + 1
	dataEnd := headerRow + int64(days)

	header := make([]interface{}, len(headerTitles))
	for i, t := range headerTitles {
		header[i] = t
	}
	dates := make([][]interface{}, days)
	for i := 0; i < days; i++ {
		dates[i] = []interface{}{dayLabel(i+1, now)}
	}

	valueData := []*sheets.ValueRange{
		{
			Range:  fmt.Sprintf("%s!B%d:M%d", title, headerRow, headerRow),
			Values: [][]interface{}{header},
		},
		{
			Range:  fmt.Sprintf("%s!M%d:M%d", title, dataStart, dataEnd),
			Values: dates,
		},
		{
			Range:  fmt.Sprintf("%s!B%d", title, dataStart),
			Values: [][]interface{}{{w.FullName}},
		},
		{
			Range:  fmt.Sprintf("%s!C%d", title, dataStart),
			Values: [][]interface{}{{w.Phone}},
		},
	}
	_, err = l.svc.Spreadsheets.Values.BatchUpdate(l.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             valueData,
	}).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to write block values: %w", err)
	}

	_, err = l.svc.Spreadsheets.BatchUpdate(l.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: blockFormatRequests(sheetID, headerRow, dataStart, dataEnd),
	}).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to format block: %w", err)
	}

	log.Printf("📄 Created worksheet block for %s at row %d", w.Phone, headerRow)
	return headerRow, nil
}

// WriteStart fills the start columns (D..G) of the current day's row.
func (l *SheetsLedger) WriteStart(headerRow int64, rec workflow.StartRecord) error {
	title, _, err := l.monthSheet()
	if err != nil {
		return err
	}

	row := targetRow(headerRow, l.now().In(l.loc))
	values := [][]interface{}{{
		rec.Vehicle,
		rec.StartMileage,
		clockTime(rec.StartTime),
		rec.StartCoords.String(),
	}}
	return l.updateRange(fmt.Sprintf("%s!D%d:G%d", title, row, row), values)
}

// WriteIntermediate fills one of the two intermediate columns (H or I).
func (l *SheetsLedger) WriteIntermediate(headerRow int64, slot int, coords models.Coordinates) error {
	title, _, err := l.monthSheet()
	if err != nil {
		return err
	}

	row := targetRow(headerRow, l.now().In(l.loc))
	col := slotColumn(slot)
	values := [][]interface{}{{coords.String()}}
	return l.updateRange(fmt.Sprintf("%s!%s%d", title, col, row), values)
}

// WriteFinish fills the finish columns (J..L) of the current day's row.
func (l *SheetsLedger) WriteFinish(headerRow int64, rec workflow.FinishRecord) error {
	title, _, err := l.monthSheet()
	if err != nil {
		return err
	}

	row := targetRow(headerRow, l.now().In(l.loc))
	values := [][]interface{}{{
		clockTime(rec.FinishTime),
		rec.FinishCoords.String(),
		rec.FinishMileage,
	}}
	return l.updateRange(fmt.Sprintf("%s!J%d:L%d", title, row, row), values)
}

func (l *SheetsLedger) updateRange(rangeStr string, values [][]interface{}) error {
	_, err := l.svc.Spreadsheets.Values.Update(l.spreadsheetID, rangeStr, &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", rangeStr, err)
	}
	return nil
}
