package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"paytrack/internal/core"
	"paytrack/internal/log"
	"paytrack/internal/reports"
	ports "paytrack/internal/sheets"
)

// recordIDColumn trails the report columns so mirrored rows can be traced back.
const recordIDColumn = "record_id"

type Config struct {
	SpreadsheetID string
	// Service account key, inline or as a file path. Inline wins.
	CredentialsJSON string
	CredentialsFile string
	SchedulesSheet  string
	ExpensesSheet   string
}

type Client struct {
	svc            *gsheet.Service
	spreadsheetID  string
	schedulesSheet string
	expensesSheet  string

	mu         sync.Mutex
	headerDone map[string]bool
}

var _ ports.RowAppender = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg), nil
}

// NewWithService wraps an existing service; tests point it at a fake endpoint.
func NewWithService(svc *gsheet.Service, cfg Config) *Client {
	c := &Client{
		svc:            svc,
		spreadsheetID:  cfg.SpreadsheetID,
		schedulesSheet: cfg.SchedulesSheet,
		expensesSheet:  cfg.ExpensesSheet,
		headerDone:     make(map[string]bool),
	}
	if c.schedulesSheet == "" {
		c.schedulesSheet = ports.SchedulesTab
	}
	if c.expensesSheet == "" {
		c.expensesSheet = ports.ExpensesTab
	}
	return c
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentSheets)

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		logger.InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		logger.InfoContext(ctx, "Reading service account credentials", "path", cfg.CredentialsFile)
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	svc, err := gsheet.NewService(ctx, goption.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func (c *Client) AppendSchedule(ctx context.Context, s core.Schedule) (string, error) {
	return c.appendRow(ctx, c.schedulesSheet, reports.ScheduleColumns, reports.ScheduleRow(s), s.ID)
}

func (c *Client) AppendExpense(ctx context.Context, e core.Expense) (string, error) {
	return c.appendRow(ctx, c.expensesSheet, reports.ExpenseColumns, reports.ExpenseRow(e), e.ID)
}

func (c *Client) appendRow(ctx context.Context, sheet string, columns []string, cells []any, id string) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := c.ensureHeader(ctx, sheet, columns); err != nil {
		return "", err
	}

	row := make([]any, 0, len(cells)+1)
	for _, v := range cells {
		row = append(row, reports.SheetValue(v))
	}
	row = append(row, id)

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A:A", &gsheet.ValueRange{Values: [][]any{row}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return sheet, nil
}

// ensureHeader writes the column names into row 1 of an empty tab. It checks
// each tab once per client.
func (c *Client) ensureHeader(ctx context.Context, sheet string, columns []string) error {
	c.mu.Lock()
	done := c.headerDone[sheet]
	c.mu.Unlock()
	if done {
		return nil
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!1:1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of sheet %s: %w", sheet, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		header := make([]any, 0, len(columns)+1)
		for _, col := range columns {
			header = append(header, col)
		}
		header = append(header, recordIDColumn)
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, sheet+"!A1", &gsheet.ValueRange{Values: [][]any{header}}).
			ValueInputOption("RAW").
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write header of sheet %s: %w", sheet, err)
		}
	}

	c.mu.Lock()
	c.headerDone[sheet] = true
	c.mu.Unlock()
	return nil
}
