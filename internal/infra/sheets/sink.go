package sheets

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sirupsen/logrus"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/quickmailhq/leadsync/internal/infra/drive"
	"github.com/quickmailhq/leadsync/internal/usecase"
)

// NewService builds a Sheets client from the same service account key the
// Drive client uses.
func NewService(ctx context.Context, serviceAccountB64 string) (*sheets.Service, error) {
	creds, err := base64.StdEncoding.DecodeString(serviceAccountB64)
	if err != nil {
		return nil, fmt.Errorf("decode service account key: %w", err)
	}
	return sheets.NewService(ctx, option.WithCredentialsJSON(creds), option.WithScopes(sheets.SpreadsheetsScope))
}

// Sink writes dispatched batches into the weekly output spreadsheet. One
// spreadsheet per ISO week, one worksheet per source file; the Drive client
// is needed to find spreadsheets by name and to park new ones in the output
// folder.
type Sink struct {
	Sheets *sheets.Service
	Drive  *gdrive.Service

	OutputFolderID string
	Log            *logrus.Logger
}

func NewSink(sheetsSvc *sheets.Service, driveSvc *gdrive.Service, outputFolderID string, log *logrus.Logger) *Sink {
	return &Sink{Sheets: sheetsSvc, Drive: driveSvc, OutputFolderID: outputFolderID, Log: log}
}

// Publish appends the batch under the named worksheet of the named
// spreadsheet, creating either as needed. The header row is written only
// when the worksheet is created; re-dispatches into an existing worksheet
// append rows without repeating it.
func (s *Sink) Publish(ctx context.Context, batch usecase.SheetBatch, spreadsheetName, worksheet string) (string, error) {
	spreadsheetID, err := s.findSpreadsheet(ctx, spreadsheetName)
	if err != nil {
		return "", err
	}
	if spreadsheetID == "" {
		spreadsheetID, err = s.createSpreadsheet(ctx, spreadsheetName)
		if err != nil {
			return "", err
		}
	}

	created, err := s.ensureWorksheet(ctx, spreadsheetID, worksheet)
	if err != nil {
		return "", err
	}

	values := make([][]interface{}, 0, len(batch.Rows)+1)
	if created {
		values = append(values, toInterfaceRow(batch.Header))
	}
	for _, row := range batch.Rows {
		values = append(values, toInterfaceRow(row))
	}

	_, err = s.Sheets.Spreadsheets.Values.Append(spreadsheetID, fmt.Sprintf("'%s'!A1", worksheet), &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s/%s: %w", spreadsheetName, worksheet, err)
	}

	s.Log.WithFields(logrus.Fields{
		"spreadsheet": spreadsheetName,
		"worksheet":   worksheet,
		"rows":        len(batch.Rows),
	}).Info("batch published to output sheet")

	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", spreadsheetID), nil
}

// findSpreadsheet looks the weekly spreadsheet up by exact name inside the
// output folder. Empty ID means not created yet.
func (s *Sink) findSpreadsheet(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf(
		"'%s' in parents and trashed = false and mimeType = '%s' and name = '%s'",
		s.OutputFolderID, drive.MimeTypeGoogleSheet, name,
	)
	list, err := s.Drive.Files.List().Q(q).Fields("files(id)").
		SupportsAllDrives(true).IncludeItemsFromAllDrives(true).PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("find spreadsheet %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

// createSpreadsheet creates the weekly document and moves it into the
// output folder (Sheets creates into the service account's root).
func (s *Sink) createSpreadsheet(ctx context.Context, name string) (string, error) {
	created, err := s.Sheets.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: name},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create spreadsheet %q: %w", name, err)
	}

	_, err = s.Drive.Files.Update(created.SpreadsheetId, nil).
		AddParents(s.OutputFolderID).RemoveParents("root").
		SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("move spreadsheet %q to output folder: %w", name, err)
	}

	s.Log.WithField("spreadsheet", name).Info("weekly output spreadsheet created")
	return created.SpreadsheetId, nil
}

// ensureWorksheet adds the per-file tab if it does not exist yet. Returns
// whether it was created on this call.
func (s *Sink) ensureWorksheet(ctx context.Context, spreadsheetID, title string) (bool, error) {
	doc, err := s.Sheets.Spreadsheets.Get(spreadsheetID).Fields("sheets(properties(title))").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("get spreadsheet %s: %w", spreadsheetID, err)
	}
	for _, sh := range doc.Sheets {
		if sh.Properties.Title == title {
			return false, nil
		}
	}

	_, err = s.Sheets.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("add worksheet %q: %w", title, err)
	}
	return true, nil
}

func toInterfaceRow(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
