package drive

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/quickmailhq/leadsync/internal/usecase"
)

const (
	MimeTypeFolder      = "application/vnd.google-apps.folder"
	MimeTypeGoogleSheet = "application/vnd.google-apps.spreadsheet"
	ExportMimeCSV       = "text/csv"

	// MaxDownloadSize caps a single source file at 20MB. Lead exports are
	// a few thousand rows; anything bigger is not a lead file.
	MaxDownloadSize = 20 * 1024 * 1024
)

// NewService builds a Drive client from the base64-encoded service account
// key the deployment carries in its environment.
func NewService(ctx context.Context, serviceAccountB64 string) (*drive.Service, error) {
	creds, err := base64.StdEncoding.DecodeString(serviceAccountB64)
	if err != nil {
		return nil, fmt.Errorf("decode service account key: %w", err)
	}
	return drive.NewService(ctx, option.WithCredentialsJSON(creds), option.WithScopes(drive.DriveScope))
}

// Source reads the shared lead-drop folder tree. It implements
// usecase.FileSource. All calls set SupportsAllDrives; the folder lives on
// a shared drive.
type Source struct {
	Svc *drive.Service
	Log *logrus.Logger
}

func NewSource(svc *drive.Service, log *logrus.Logger) *Source {
	return &Source{Svc: svc, Log: log}
}

// ListModified returns the files under the parent folder's subfolders
// modified after since. The tree is one level deep by convention: the
// parent holds one subfolder per file type.
func (s *Source) ListModified(ctx context.Context, folderID string, since time.Time) ([]usecase.FileDescriptor, error) {
	folders, err := s.subfolders(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var out []usecase.FileDescriptor
	for _, folder := range folders {
		q := fmt.Sprintf(
			"'%s' in parents and trashed = false and mimeType != '%s' and modifiedTime > '%s'",
			folder, MimeTypeFolder, since.UTC().Format(time.RFC3339),
		)
		files, err := s.listAll(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("list folder %s: %w", folder, err)
		}
		for _, f := range files {
			out = append(out, toDescriptor(f))
		}
	}
	return out, nil
}

func (s *Source) subfolders(ctx context.Context, folderID string) ([]string, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false and mimeType = '%s'", folderID, MimeTypeFolder)
	folders, err := s.listAll(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list subfolders of %s: %w", folderID, err)
	}

	ids := make([]string, 0, len(folders))
	for _, f := range folders {
		ids = append(ids, f.Id)
	}
	return ids, nil
}

func (s *Source) listAll(ctx context.Context, query string) ([]*drive.File, error) {
	var files []*drive.File
	pageToken := ""
	for {
		call := s.Svc.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType, fileExtension, parents, owners(emailAddress), createdTime, modifiedTime)").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			PageSize(200).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			return nil, err
		}
		files = append(files, page.Files...)
		if page.NextPageToken == "" {
			return files, nil
		}
		pageToken = page.NextPageToken
	}
}

// Download fetches a file's bytes. Native Google Sheets are exported as
// CSV; everything else is downloaded as-is.
func (s *Source) Download(ctx context.Context, fileID string) ([]byte, error) {
	meta, err := s.Svc.Files.Get(fileID).Fields("mimeType").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("stat file %s: %w", fileID, err)
	}

	var body io.ReadCloser
	if meta.MimeType == MimeTypeGoogleSheet {
		resp, err := s.Svc.Files.Export(fileID, ExportMimeCSV).Context(ctx).Download()
		if err != nil {
			return nil, fmt.Errorf("export file %s: %w", fileID, err)
		}
		body = resp.Body
	} else {
		resp, err := s.Svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
		if err != nil {
			return nil, fmt.Errorf("download file %s: %w", fileID, err)
		}
		body = resp.Body
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, MaxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", fileID, err)
	}
	return data, nil
}

// ParentFolderName resolves the name of a file's containing folder, which
// encodes the file type.
func (s *Source) ParentFolderName(ctx context.Context, fileID string) (string, error) {
	f, err := s.Svc.Files.Get(fileID).Fields("parents").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("stat file %s: %w", fileID, err)
	}
	if len(f.Parents) == 0 {
		return "", fmt.Errorf("file %s has no parent folder", fileID)
	}

	parent, err := s.Svc.Files.Get(f.Parents[0]).Fields("name").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("stat folder %s: %w", f.Parents[0], err)
	}
	return parent.Name, nil
}

func toDescriptor(f *drive.File) usecase.FileDescriptor {
	owner := ""
	if len(f.Owners) > 0 {
		owner = f.Owners[0].EmailAddress
	}

	ext := f.FileExtension
	if ext == "" {
		if f.MimeType == MimeTypeGoogleSheet {
			ext = "gsheet"
		} else {
			ext = strings.TrimPrefix(filepath.Ext(f.Name), ".")
		}
	}

	created, _ := time.Parse(time.RFC3339, f.CreatedTime)
	modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)

	return usecase.FileDescriptor{
		ID:            f.Id,
		Name:          f.Name,
		FileExtension: ext,
		OwnerEmail:    owner,
		Parents:       f.Parents,
		CreatedTime:   created,
		ModifiedTime:  modified,
	}
}
