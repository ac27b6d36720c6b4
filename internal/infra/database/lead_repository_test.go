package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickmailhq/leadsync/internal/entity"
)

func newLeadMock(t *testing.T) (*LeadRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewLeadRepository(db), mock
}

func TestInsertBatchRoutesBySource(t *testing.T) {
	repo, mock := newLeadMock(t)
	now := time.Now()

	zi := entity.Lead{
		UUID: "z1", FileUUID: "file-1", Source: entity.LeadSourceZiSearch,
		Email: "a@x.com", FirstName: "Ana", JobTitle: "CTO", CreatedAt: now,
	}
	city := entity.Lead{
		UUID: "c1", FileUUID: "file-2", Source: entity.LeadSourceCitySearch,
		Email: "b@x.com", Website: "https://b.example", CreatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO sales_leads.leads`).
		WithArgs("z1", "file-1", "a@x.com", "Ana", nil, "CTO", nil, nil, nil, nil, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO sales_leads.city_search_enriched`).
		WithArgs("c1", "file-2", "b@x.com", nil, nil, nil, nil, "https://b.example", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.InsertBatch(context.Background(), []entity.Lead{zi, city})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatchEmptyIsNoop(t *testing.T) {
	repo, mock := newLeadMock(t)

	assert.NoError(t, repo.InsertBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatchRollsBackOnError(t *testing.T) {
	repo, mock := newLeadMock(t)
	now := time.Now()

	bad := entity.Lead{UUID: "x1", FileUUID: "file-1", Source: entity.LeadSource("mystery"), CreatedAt: now}

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.InsertBatch(context.Background(), []entity.Lead{bad})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchForFileZiSearch(t *testing.T) {
	repo, mock := newLeadMock(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"uuid", "drive_metadata_uuid", "email_address", "first_name", "last_name",
		"job_title", "job_function", "company_name", "direct_phone_number",
		"linkedin_contact_profile_url", "created_at",
	}).AddRow("z1", "file-1", "a@x.com", "Ana", "Silva", "CTO", "Engineering", "Acme", nil, nil, now)

	mock.ExpectQuery(`FROM sales_leads.leads\s+WHERE drive_metadata_uuid = \$1`).
		WithArgs("file-1").
		WillReturnRows(rows)

	leads, err := repo.BatchForFile(context.Background(), "file-1", entity.LeadSourceZiSearch)

	assert.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "CTO", leads[0].JobTitle)
	assert.Equal(t, "Engineering", leads[0].JobFunction)
	assert.Equal(t, "Acme", leads[0].Company)
}

func TestBatchForFileCitySearch(t *testing.T) {
	repo, mock := newLeadMock(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"uuid", "drive_metadata_uuid", "email_address", "first_name", "last_name",
		"company_name", "phone_1", "website", "created_at",
	}).AddRow("c1", "file-2", "b@x.com", nil, nil, "Bakery Inc", "555-0100", nil, now)

	mock.ExpectQuery(`FROM sales_leads.city_search_enriched\s+WHERE drive_metadata_uuid = \$1`).
		WithArgs("file-2").
		WillReturnRows(rows)

	leads, err := repo.BatchForFile(context.Background(), "file-2", entity.LeadSourceCitySearch)

	assert.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, entity.LeadSourceCitySearch, leads[0].Source)
	assert.Equal(t, "Bakery Inc", leads[0].Company)
	assert.Equal(t, "555-0100", leads[0].Phone)
}

func TestCountForFile(t *testing.T) {
	repo, mock := newLeadMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sales_leads.leads`).
		WithArgs("file-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := repo.CountForFile(context.Background(), "file-1", entity.LeadSourceZiSearch)

	assert.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestCountForFileUnknownSource(t *testing.T) {
	repo, _ := newLeadMock(t)

	_, err := repo.CountForFile(context.Background(), "file-1", entity.LeadSource("mystery"))
	assert.Error(t, err)
}
