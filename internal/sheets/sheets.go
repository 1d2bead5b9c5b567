// Package sheets wraps the Google Sheets API as the spreadsheet-backed
// store the relay writes to. Spreadsheets are addressed by title, like
// the rest of the system expects.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

var (
	// ErrUnavailable reports that the sheet store could not be reached.
	ErrUnavailable = errors.New("sheet store unavailable")
	// ErrNotFound reports that no row matched the searched value.
	ErrNotFound = errors.New("value not found")
	// ErrSpreadsheetMissing reports that no spreadsheet carries the title.
	ErrSpreadsheetMissing = errors.New("spreadsheet not found")
)

// Store is the contract the rest of the service depends on. The real
// implementation talks to Google Sheets; tests substitute fakes.
type Store interface {
	AppendRow(ctx context.Context, title string, row []string) error
	FindRow(ctx context.Context, title, value string) ([]string, error)
	HeaderRow(ctx context.Context, title string) ([]string, error)
	EnsureSheet(ctx context.Context, title string, headers []string) error
}

// Client implements Store against the Sheets and Drive APIs.
type Client struct {
	sheets *gsheets.Service
	drive  *drive.Service

	mu  sync.Mutex
	ids map[string]string // spreadsheet title -> id
}

// NewClient authenticates with the service-account credentials file.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	opts := []option.ClientOption{
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope, drive.DriveScope),
	}
	sheetsSvc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: init sheets service: %v", ErrUnavailable, err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: init drive service: %v", ErrUnavailable, err)
	}
	return &Client{
		sheets: sheetsSvc,
		drive:  driveSvc,
		ids:    make(map[string]string),
	}, nil
}

// AppendRow appends one row to the first worksheet of the named spreadsheet.
func (c *Client) AppendRow(ctx context.Context, title string, row []string) error {
	id, err := c.spreadsheetID(ctx, title)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(row))
	for i, cell := range row {
		values[i] = cell
	}
	_, err = c.sheets.Spreadsheets.Values.
		Append(id, "A1", &gsheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row to %q: %w", title, err)
	}
	return nil
}

// FindRow returns the first row whose first column equals value.
func (c *Client) FindRow(ctx context.Context, title, value string) ([]string, error) {
	id, err := c.spreadsheetID(ctx, title)
	if err != nil {
		return nil, err
	}
	col, err := c.sheets.Spreadsheets.Values.Get(id, "A:A").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read key column of %q: %w", title, err)
	}
	rowIdx := -1
	for i, cells := range col.Values {
		if len(cells) > 0 && cellString(cells[0]) == value {
			rowIdx = i + 1 // sheet rows are 1-based
			break
		}
	}
	if rowIdx < 0 {
		return nil, ErrNotFound
	}
	rng := fmt.Sprintf("A%d:Z%d", rowIdx, rowIdx)
	res, err := c.sheets.Spreadsheets.Values.Get(id, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read row %d of %q: %w", rowIdx, title, err)
	}
	if len(res.Values) == 0 {
		return nil, ErrNotFound
	}
	return stringRow(res.Values[0]), nil
}

// HeaderRow reads the first row of the named spreadsheet.
func (c *Client) HeaderRow(ctx context.Context, title string) ([]string, error) {
	id, err := c.spreadsheetID(ctx, title)
	if err != nil {
		return nil, err
	}
	res, err := c.sheets.Spreadsheets.Values.Get(id, "1:1").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read header of %q: %w", title, err)
	}
	if len(res.Values) == 0 {
		return nil, nil
	}
	return stringRow(res.Values[0]), nil
}

// EnsureSheet creates the spreadsheet when missing and writes the header
// row when the first row is still empty.
func (c *Client) EnsureSheet(ctx context.Context, title string, headers []string) error {
	_, err := c.spreadsheetID(ctx, title)
	if err != nil && !errors.Is(err, ErrSpreadsheetMissing) {
		return err
	}
	if err != nil {
		created, err := c.sheets.Spreadsheets.Create(&gsheets.Spreadsheet{
			Properties: &gsheets.SpreadsheetProperties{Title: title},
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("create spreadsheet %q: %w", title, err)
		}
		c.mu.Lock()
		c.ids[title] = created.SpreadsheetId
		c.mu.Unlock()
	}
	existing, err := c.HeaderRow(ctx, title)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return c.AppendRow(ctx, title, headers)
}

// spreadsheetID resolves a spreadsheet title to its id via the Drive API,
// caching the result.
func (c *Client) spreadsheetID(ctx context.Context, title string) (string, error) {
	c.mu.Lock()
	if id, ok := c.ids[title]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	query := fmt.Sprintf(
		"name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		strings.ReplaceAll(title, "'", `\'`),
	)
	list, err := c.drive.Files.List().Q(query).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: resolve spreadsheet %q: %v", ErrUnavailable, title, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: %q", ErrSpreadsheetMissing, title)
	}
	id := list.Files[0].Id
	c.mu.Lock()
	c.ids[title] = id
	c.mu.Unlock()
	return id, nil
}

func stringRow(cells []interface{}) []string {
	row := make([]string, len(cells))
	for i, cell := range cells {
		row[i] = cellString(cell)
	}
	return row
}

func cellString(cell interface{}) string {
	if s, ok := cell.(string); ok {
		return s
	}
	return fmt.Sprint(cell)
}
