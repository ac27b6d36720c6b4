package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"

	"github.com/quickmailhq/leadsync/internal/entity"
	"github.com/quickmailhq/leadsync/internal/infra/drive"
)

// ConfigSource reads the QuickMail config sheet: one row per source file,
// maintained by hand by the sales team. It implements
// usecase.ConfigProvider.
type ConfigSource struct {
	Sheets *sheets.Service
	Drive  *gdrive.Service

	FolderID  string
	SheetName string
	Log       *logrus.Logger
}

func NewConfigSource(sheetsSvc *sheets.Service, driveSvc *gdrive.Service, folderID, sheetName string, log *logrus.Logger) *ConfigSource {
	return &ConfigSource{Sheets: sheetsSvc, Drive: driveSvc, FolderID: folderID, SheetName: sheetName, Log: log}
}

// FetchConfigs reads every data row of the config sheet. Rows are returned
// as-is; validation happens in the use case, so one bad row never blocks
// the rest of the sheet.
func (c *ConfigSource) FetchConfigs(ctx context.Context) ([]*entity.FileConfig, error) {
	spreadsheetID, err := c.resolveSpreadsheet(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.Sheets.Spreadsheets.Values.Get(spreadsheetID, "A1:D").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read config sheet: %w", err)
	}
	if len(resp.Values) < 2 {
		c.Log.Warn("config sheet has no data rows")
		return nil, nil
	}

	index := columnIndex(resp.Values[0])
	configs := make([]*entity.FileConfig, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		row := toStringRow(raw)
		cfg := entity.NewFileConfig(
			cell(row, index, "file_name"),
			cell(row, index, "hubspot_owner"),
			cell(row, index, "search_label"),
			entity.FileType(cell(row, index, "file_type")),
		)
		if cfg.FileName == "" {
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (c *ConfigSource) resolveSpreadsheet(ctx context.Context) (string, error) {
	q := fmt.Sprintf(
		"'%s' in parents and trashed = false and mimeType = '%s' and name = '%s'",
		c.FolderID, drive.MimeTypeGoogleSheet, c.SheetName,
	)
	list, err := c.Drive.Files.List().Q(q).Fields("files(id)").
		SupportsAllDrives(true).IncludeItemsFromAllDrives(true).PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("find config sheet %q: %w", c.SheetName, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("config sheet %q not found in folder %s", c.SheetName, c.FolderID)
	}
	return list.Files[0].Id, nil
}

func columnIndex(header []interface{}) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(fmt.Sprint(h))), " ", "_")
		if _, exists := index[key]; !exists && key != "" {
			index[key] = i
		}
	}
	return index
}

func toStringRow(raw []interface{}) []string {
	row := make([]string, len(raw))
	for i, v := range raw {
		row[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return row
}

func cell(row []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
