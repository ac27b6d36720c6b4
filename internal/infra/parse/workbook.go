package parse

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/quickmailhq/leadsync/internal/entity"
)

// WorkbookParser turns raw XLSX/CSV bytes into normalized leads. Source
// files come from several export tools with inconsistent column naming,
// so headers are canonicalized before mapping.
type WorkbookParser struct {
	Log *logrus.Logger
}

func NewWorkbookParser(log *logrus.Logger) *WorkbookParser {
	return &WorkbookParser{Log: log}
}

var ErrEmptyFile = errors.New("file contains no rows")

// columnAliases maps each lead field to the header names seen in the wild,
// in priority order. For multi-valued fields (phone) the first alias with a
// non-empty cell wins.
var columnAliases = map[string][]string{
	"email":        {"email", "email_address", "e_mail"},
	"first_name":   {"first_name", "firstname"},
	"last_name":    {"last_name", "lastname"},
	"job_title":    {"title", "job_title"},
	"job_function": {"role", "job_function"},
	"company":      {"company", "company_name", "account_name"},
	"phone":        {"direct_phone_number", "phone", "phone_1", "mobile_phone", "company_phone"},
	"linkedin":     {"linkedin_contact_profile_url", "linkedin", "person_linkedin_url", "linkedin_url"},
	"website":      {"website", "company_website", "url"},
}

// ParseLeads reads the file into the lead shape for its source table. Rows
// without an email are kept; the dispatch selection excludes them later,
// and keeping them preserves the raw file contents in the warehouse.
func (p *WorkbookParser) ParseLeads(data []byte, file *entity.FileRecord) ([]entity.Lead, error) {
	rows, err := tabulate(data, file.FileExtension)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file.Name, err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptyFile
	}

	index := headerIndex(rows[0])
	if _, ok := lookup(index, columnAliases["email"]); !ok {
		return nil, fmt.Errorf("%s: no email column among %v", file.Name, rows[0])
	}

	source := file.FileType.LeadSource()
	leads := make([]entity.Lead, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		l := entity.NewLead(file.UUID, source)
		l.Email = cellFor(row, index, "email")
		l.FirstName = cellFor(row, index, "first_name")
		l.LastName = cellFor(row, index, "last_name")
		l.JobTitle = cellFor(row, index, "job_title")
		l.JobFunction = cellFor(row, index, "job_function")
		l.Company = cellFor(row, index, "company")
		l.Phone = cellFor(row, index, "phone")
		l.LinkedIn = cellFor(row, index, "linkedin")
		l.Website = cellFor(row, index, "website")
		leads = append(leads, l)
	}

	if len(leads) == 0 {
		return nil, ErrEmptyFile
	}
	return leads, nil
}

// tabulate reads the raw bytes as either XLSX (first sheet) or CSV. XLSX is
// recognized by extension or the zip signature, since Drive extensions are
// user-controlled.
func tabulate(data []byte, extension string) ([][]string, error) {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))
	if ext == "xlsx" || ext == "xls" || bytes.HasPrefix(data, []byte("PK")) {
		return readWorkbook(data)
	}
	return readCSV(data)
}

func readWorkbook(data []byte) ([][]string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// headerIndex maps canonical header names to their column positions. The
// first occurrence of a name wins.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := canonicalizeHeader(h)
		if key == "" {
			continue
		}
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}
	return index
}

// canonicalizeHeader folds "E-Mail Address", "email  address" and
// "email_address" into one key: lowercase, punctuation and spaces become
// single underscores, edges trimmed.
func canonicalizeHeader(h string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}

func lookup(index map[string]int, aliases []string) (int, bool) {
	for _, a := range aliases {
		if i, ok := index[a]; ok {
			return i, true
		}
	}
	return 0, false
}

// cellFor resolves a lead field through its alias chain, returning the
// first non-empty cell.
func cellFor(row []string, index map[string]int, field string) string {
	for _, alias := range columnAliases[field] {
		i, ok := index[alias]
		if !ok || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			return v
		}
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
