package dashboard

import (
	"encoding/csv"
	"fmt"
	"io"

	"consentdesk/internal/consent"
)

// ExportFilename is the attachment name the browser sees.
const ExportFilename = "consent-records.csv"

// csvHeader is the fixed export column row.
var csvHeader = []string{
	"Document Name", "Data Accessed", "Host User", "Guest User",
	"Access Date", "Expiry Date", "Status",
}

const exportDateLayout = "2006-01-02"

// WriteCSV writes the record set as RFC 4180 CSV. Fields containing commas
// or quotes are properly quoted; a document named `Q1,Q2 Report.pdf` must
// survive a round trip.
func WriteCSV(w io.Writer, records []consent.ConsentRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.DocumentName,
			rec.DataAccessed,
			rec.HostUserName,
			rec.GuestUserName,
			rec.AccessDate.Format(exportDateLayout),
			rec.ExpiryDate.Format(exportDateLayout),
			string(rec.Status),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
