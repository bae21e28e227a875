package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentdesk/internal/consent"
)

func rec(id int64, doc, host string, access time.Time, status consent.Status) consent.ConsentRecord {
	return consent.ConsentRecord{
		ID:            id,
		DocumentName:  doc,
		DataAccessed:  "some data",
		HostUserName:  host,
		GuestUserName: "Guest User",
		AccessDate:    access,
		ExpiryDate:    access.AddDate(0, 1, 0),
		Status:        status,
	}
}

func TestFilterSearch_MatchesAcrossFieldsCaseInsensitively(t *testing.T) {
	now := time.Now()
	records := []consent.ConsentRecord{
		rec(1, "Contract_Template.docx", "Emma Rodriguez", now, consent.StatusActive),
		rec(2, "Budget.pdf", "David CONTRACTOR Kim", now, consent.StatusActive),
		rec(3, "Roadmap.pptx", "Alex Johnson", now, consent.StatusActive),
	}

	out := FilterSearch(records, "contract")
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].ID)
	assert.Equal(t, int64(2), out[1].ID)
}

func TestFilterStatus_AllPassesThrough(t *testing.T) {
	now := time.Now()
	records := []consent.ConsentRecord{
		rec(1, "a.pdf", "h", now, consent.StatusActive),
		rec(2, "b.pdf", "h", now, consent.StatusExpired),
	}

	assert.Len(t, FilterStatus(records, "all"), 2)
	assert.Len(t, FilterStatus(records, ""), 2)

	expired := FilterStatus(records, "expired")
	require.Len(t, expired, 1)
	assert.Equal(t, int64(2), expired[0].ID)
}

func TestFilterWindow_SevenDays(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	records := []consent.ConsentRecord{
		rec(1, "recent.pdf", "h", now.AddDate(0, 0, -3), consent.StatusActive),
		rec(2, "old.pdf", "h", now.AddDate(0, 0, -10), consent.StatusActive),
	}

	out := FilterWindow(records, 7, now)
	require.Len(t, out, 1)
	assert.Equal(t, "recent.pdf", out[0].DocumentName)

	assert.Len(t, FilterWindow(records, 0, now), 2, "zero window means all time")
}

func TestSort_ByStringFieldCaseInsensitive(t *testing.T) {
	now := time.Now()
	records := []consent.ConsentRecord{
		rec(1, "zebra.pdf", "h", now, consent.StatusActive),
		rec(2, "Apple.pdf", "h", now, consent.StatusActive),
		rec(3, "mango.pdf", "h", now, consent.StatusActive),
	}

	Sort(records, "documentName", true)
	assert.Equal(t, "Apple.pdf", records[0].DocumentName)
	assert.Equal(t, "mango.pdf", records[1].DocumentName)
	assert.Equal(t, "zebra.pdf", records[2].DocumentName)

	Sort(records, "documentName", false)
	assert.Equal(t, "zebra.pdf", records[0].DocumentName)
}

func TestSort_ByDateField(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []consent.ConsentRecord{
		rec(1, "a.pdf", "h", base.AddDate(0, 0, 5), consent.StatusActive),
		rec(2, "b.pdf", "h", base, consent.StatusActive),
	}

	Sort(records, "accessDate", true)
	assert.Equal(t, int64(2), records[0].ID)
}

func TestPaginate_ClampsAndSlices(t *testing.T) {
	now := time.Now()
	var records []consent.ConsentRecord
	for i := int64(1); i <= 25; i++ {
		records = append(records, rec(i, "doc.pdf", "h", now, consent.StatusActive))
	}

	p := Paginate(records, 1, 10)
	assert.Len(t, p.Records, 10)
	assert.Equal(t, 25, p.TotalCount)
	assert.Equal(t, 3, p.TotalPages)

	p = Paginate(records, 3, 10)
	assert.Len(t, p.Records, 5)

	p = Paginate(records, 99, 10)
	assert.Equal(t, 3, p.Page, "out-of-range page clamps to the last")
	assert.Len(t, p.Records, 5)

	p = Paginate(nil, 1, 10)
	assert.Empty(t, p.Records)
	assert.Equal(t, 1, p.TotalPages)
}

func TestApply_CombinesFilters(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	records := []consent.ConsentRecord{
		rec(1, "Contract_A.pdf", "h", now.AddDate(0, 0, -2), consent.StatusActive),
		rec(2, "Contract_B.pdf", "h", now.AddDate(0, 0, -60), consent.StatusActive),
		rec(3, "Contract_C.pdf", "h", now.AddDate(0, 0, -1), consent.StatusExpired),
		rec(4, "Budget.pdf", "h", now.AddDate(0, 0, -1), consent.StatusActive),
	}

	out := Apply(records, Query{Search: "contract", Status: "active", WindowDays: 7}, now)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].ID)
}
