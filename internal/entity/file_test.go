package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFileType(t *testing.T) {
	cases := []struct {
		folder string
		want   FileType
		ok     bool
	}{
		{"ZI Search", FileTypeZiSearch, true},
		{"zi_search", FileTypeZiSearch, true},
		{"City Search", FileTypeCitySearch, true},
		{"  city search enriched ", FileTypeCitySearchEnriched, true},
		{"Archive", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseFileType(tc.folder)
		assert.Equal(t, tc.ok, ok, tc.folder)
		assert.Equal(t, tc.want, got, tc.folder)
	}
}

func TestNewFileRecordRequiresIdentity(t *testing.T) {
	now := time.Now()

	_, err := NewFileRecord("", "name.xlsx", "xlsx", "", now, now)
	assert.Error(t, err)

	_, err = NewFileRecord("drive-1", "", "xlsx", "", now, now)
	assert.Error(t, err)

	f, err := NewFileRecord("drive-1", "name.xlsx", "xlsx", "sal@corp.com", now, now)
	assert.NoError(t, err)
	assert.NotEmpty(t, f.UUID)
	assert.False(t, f.Classified())
	assert.False(t, f.Configured())
}

func TestFileRecordDispatchable(t *testing.T) {
	cfg := "cfg-1"

	f := &FileRecord{}
	assert.False(t, f.Dispatchable())

	f.FileType = FileTypeZiSearch
	assert.False(t, f.Dispatchable())

	f.ConfigUUID = &cfg
	assert.True(t, f.Dispatchable())

	f.Processed = true
	assert.False(t, f.Dispatchable())
}

func TestFileTypeLeadSource(t *testing.T) {
	assert.Equal(t, LeadSourceZiSearch, FileTypeZiSearch.LeadSource())
	assert.Equal(t, LeadSourceCitySearch, FileTypeCitySearch.LeadSource())
	assert.Equal(t, LeadSourceCitySearch, FileTypeCitySearchEnriched.LeadSource())
}
