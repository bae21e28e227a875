// Package dashboard shapes record sets for display: free-text search, status
// and date-window filters, column sorting, pagination, and CSV export. All
// functions are pure over the slice the store returned.
package dashboard

import (
	"sort"
	"strings"
	"time"

	"consentdesk/internal/consent"
)

// DefaultPageSize is the dashboard table page size.
const DefaultPageSize = 10

// WindowDays lists the supported "last N days" filter presets.
var WindowDays = []int{7, 30, 90, 365}

// Query captures the table controls. Zero values mean "no constraint".
type Query struct {
	Search     string
	Status     string // "", "all", or a status value
	WindowDays int    // 0 = all time
	SortField  string // "" = leave store order
	SortAsc    bool
	Page       int // 1-based; 0 = no pagination
	PageSize   int
}

// Apply filters and sorts records. Pagination is separate so callers can
// report the total matching count.
func Apply(records []consent.ConsentRecord, q Query, now time.Time) []consent.ConsentRecord {
	out := FilterSearch(records, q.Search)
	out = FilterStatus(out, q.Status)
	out = FilterWindow(out, q.WindowDays, now)
	if q.SortField != "" {
		Sort(out, q.SortField, q.SortAsc)
	}
	return out
}

// FilterSearch keeps records where the query is a case-insensitive substring
// of document name, data accessed, host user name, or guest user name.
func FilterSearch(records []consent.ConsentRecord, query string) []consent.ConsentRecord {
	if query == "" {
		return records
	}
	needle := strings.ToLower(query)
	var out []consent.ConsentRecord
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.DocumentName), needle) ||
			strings.Contains(strings.ToLower(rec.DataAccessed), needle) ||
			strings.Contains(strings.ToLower(rec.HostUserName), needle) ||
			strings.Contains(strings.ToLower(rec.GuestUserName), needle) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterStatus keeps records with exactly the given status; "" and "all"
// pass everything through.
func FilterStatus(records []consent.ConsentRecord, status string) []consent.ConsentRecord {
	if status == "" || status == "all" {
		return records
	}
	var out []consent.ConsentRecord
	for _, rec := range records {
		if string(rec.Status) == status {
			out = append(out, rec)
		}
	}
	return out
}

// FilterWindow keeps records whose access date falls within the last N days
// of now (accessDate >= now - N days). N <= 0 passes everything through.
func FilterWindow(records []consent.ConsentRecord, days int, now time.Time) []consent.ConsentRecord {
	if days <= 0 {
		return records
	}
	cutoff := now.AddDate(0, 0, -days)
	var out []consent.ConsentRecord
	for _, rec := range records {
		if !rec.AccessDate.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out
}

// Sort orders records in place by the named field. Dates compare as
// instants, strings case-insensitively, ids numerically. Equal keys have no
// guaranteed order. Unknown fields sort by access date.
func Sort(records []consent.ConsentRecord, field string, asc bool) {
	sort.Slice(records, func(i, j int) bool {
		less := lessByField(records[i], records[j], field)
		if asc {
			return less
		}
		return lessByField(records[j], records[i], field)
	})
}

func lessByField(a, b consent.ConsentRecord, field string) bool {
	switch field {
	case "id":
		return a.ID < b.ID
	case "documentName":
		return lessString(a.DocumentName, b.DocumentName)
	case "dataAccessed":
		return lessString(a.DataAccessed, b.DataAccessed)
	case "hostUserName":
		return lessString(a.HostUserName, b.HostUserName)
	case "guestUserName":
		return lessString(a.GuestUserName, b.GuestUserName)
	case "status":
		return lessString(string(a.Status), string(b.Status))
	case "accessLevel":
		return lessString(a.AccessLevel, b.AccessLevel)
	case "purpose":
		return lessString(a.Purpose, b.Purpose)
	case "documentSize":
		return lessString(a.DocumentSize, b.DocumentSize)
	case "documentType":
		return lessString(a.DocumentType, b.DocumentType)
	case "expiryDate":
		return a.ExpiryDate.Before(b.ExpiryDate)
	case "createdAt":
		return a.CreatedAt.Before(b.CreatedAt)
	default: // accessDate
		return a.AccessDate.Before(b.AccessDate)
	}
}

func lessString(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

// Page is one slice of the filtered set plus the numbers the table footer
// needs.
type Page struct {
	Records    []consent.ConsentRecord `json:"records"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"pageSize"`
	TotalCount int                     `json:"totalCount"`
	TotalPages int                     `json:"totalPages"`
}

// Paginate slices records into a 1-based page, clamping out-of-range pages
// to the nearest valid one.
func Paginate(records []consent.ConsentRecord, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(records)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Records:    records[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}
}
