// Package seed loads the demo data set used when the server runs without a
// database: ten users and a spread of consent records across all three
// lifecycle statuses.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"consentdesk/internal/consent"
	"consentdesk/internal/user"
)

var demoUsernames = []string{
	"sarah.wilson",
	"michael.chen",
	"emma.rodriguez",
	"david.kim",
	"john.doe",
	"lisa.thompson",
	"alex.johnson",
	"maria.garcia",
	"robert.brown",
	"jennifer.davis",
}

// demoPassword is shared by every demo user.
const demoPassword = "password123"

type demoRecord struct {
	doc, data             string
	host, guest           int64
	hostName, guestName   string
	access, expiry        string // RFC 3339
	status                consent.Status
	purpose, size, format string
}

var demoRecords = []demoRecord{
	{"Financial_Report_2023.pdf", "Revenue data, Q4 metrics", 1, 2, "Sarah Wilson", "Michael Chen",
		"2024-01-15T14:30:00Z", "2024-02-15T14:30:00Z", consent.StatusActive, "Financial audit verification", "2.4 MB", "pdf"},
	{"Contract_Template_v2.docx", "Terms and conditions", 3, 4, "Emma Rodriguez", "David Kim",
		"2024-01-10T10:00:00Z", "2024-01-20T10:00:00Z", consent.StatusExpiring, "Contract review", "1.2 MB", "docx"},
	{"Employee_Database.xlsx", "Contact information", 5, 6, "John Doe", "Lisa Thompson",
		"2023-11-28T09:00:00Z", "2023-12-28T09:00:00Z", consent.StatusExpired, "HR verification", "3.1 MB", "xlsx"},
	{"Product_Roadmap_2024.pptx", "Strategic initiatives, timeline", 2, 7, "Michael Chen", "Alex Johnson",
		"2024-01-20T16:15:00Z", "2024-03-20T16:15:00Z", consent.StatusActive, "Product strategy alignment", "4.8 MB", "pptx"},
	{"Legal_Compliance_Checklist.pdf", "Regulatory requirements", 4, 8, "David Kim", "Maria Garcia",
		"2024-01-12T11:20:00Z", "2024-02-12T11:20:00Z", consent.StatusActive, "Compliance review", "890 KB", "pdf"},
	{"Marketing_Campaign_Data.xlsx", "Customer metrics, conversion rates", 6, 9, "Lisa Thompson", "Robert Brown",
		"2024-01-08T13:45:00Z", "2024-01-18T13:45:00Z", consent.StatusExpiring, "Marketing analysis", "2.1 MB", "xlsx"},
	{"IT_Security_Policy.docx", "Access control protocols", 7, 10, "Alex Johnson", "Jennifer Davis",
		"2023-12-01T08:30:00Z", "2023-12-31T08:30:00Z", consent.StatusExpired, "Security audit", "1.5 MB", "docx"},
	{"Budget_Proposal_2024.pdf", "Department allocations", 8, 1, "Maria Garcia", "Sarah Wilson",
		"2024-01-18T15:00:00Z", "2024-04-18T15:00:00Z", consent.StatusActive, "Budget planning", "3.7 MB", "pdf"},
	{"Training_Materials.zip", "Employee onboarding content", 9, 3, "Robert Brown", "Emma Rodriguez",
		"2024-01-05T09:15:00Z", "2024-01-15T09:15:00Z", consent.StatusExpiring, "HR training coordination", "15.2 MB", "zip"},
	{"Client_Feedback_Survey.xlsx", "Customer satisfaction scores", 10, 5, "Jennifer Davis", "John Doe",
		"2023-11-15T14:20:00Z", "2023-12-15T14:20:00Z", consent.StatusExpired, "Customer experience analysis", "2.8 MB", "xlsx"},
	{"Company_Handbook_2024.pdf", "HR policies, benefits information", 1, 3, "Sarah Wilson", "Emma Rodriguez",
		"2024-01-22T09:30:00Z", "2024-02-22T09:30:00Z", consent.StatusActive, "Employee orientation", "5.7 MB", "pdf"},
	{"Vendor_Contracts_2024.docx", "Payment terms, deliverables", 2, 4, "Michael Chen", "David Kim",
		"2024-01-14T11:45:00Z", "2024-01-24T11:45:00Z", consent.StatusExpiring, "Procurement review", "3.3 MB", "docx"},
	{"Sales_Performance_Q1.xlsx", "Revenue metrics, team performance", 3, 5, "Emma Rodriguez", "John Doe",
		"2024-01-16T14:00:00Z", "2024-02-16T14:00:00Z", consent.StatusActive, "Sales strategy planning", "2.9 MB", "xlsx"},
	{"Technical_Architecture_Doc.pdf", "System specifications, API docs", 4, 6, "David Kim", "Lisa Thompson",
		"2023-12-20T13:15:00Z", "2024-01-20T13:15:00Z", consent.StatusExpired, "Development planning", "8.2 MB", "pdf"},
	{"Customer_Support_Tickets.csv", "Issue tracking, resolution times", 5, 7, "John Doe", "Alex Johnson",
		"2024-01-19T10:20:00Z", "2024-02-19T10:20:00Z", consent.StatusActive, "Support analysis", "1.8 MB", "csv"},
}

// Demo populates the stores with the demo users and records. It assumes
// empty stores; ids in the record set refer to the users by insertion order.
func Demo(ctx context.Context, users user.Store, records consent.Store, logger *slog.Logger) error {
	// One hash shared across users keeps startup fast.
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed demo users: %w", err)
	}
	for _, name := range demoUsernames {
		if _, err := users.Create(ctx, name, string(hash)); err != nil {
			return fmt.Errorf("seed demo user %s: %w", name, err)
		}
	}

	for _, d := range demoRecords {
		access, err := time.Parse(time.RFC3339, d.access)
		if err != nil {
			return fmt.Errorf("seed demo record %s: %w", d.doc, err)
		}
		expiry, err := time.Parse(time.RFC3339, d.expiry)
		if err != nil {
			return fmt.Errorf("seed demo record %s: %w", d.doc, err)
		}

		_, err = records.Create(ctx, consent.NewRecord{
			DocumentName:  d.doc,
			DataAccessed:  d.data,
			DocumentSize:  d.size,
			DocumentType:  d.format,
			HostUserID:    d.host,
			HostUserName:  d.hostName,
			GuestUserID:   d.guest,
			GuestUserName: d.guestName,
			AccessDate:    access,
			ExpiryDate:    expiry,
			Status:        d.status,
			AccessLevel:   "read",
			Purpose:       d.purpose,
		})
		if err != nil {
			return fmt.Errorf("seed demo record %s: %w", d.doc, err)
		}
	}

	logger.InfoContext(ctx, "demo data seeded", "users", len(demoUsernames), "records", len(demoRecords))
	return nil
}
