package consent

import "time"

// Status classifies where a grant sits in its lifecycle. It is a stored field:
// the status sweep transitions it as time passes, and callers may also set it
// directly through a partial update.
type Status string

const (
	StatusActive   Status = "active"
	StatusExpiring Status = "expiring"
	StatusExpired  Status = "expired"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusExpiring, StatusExpired:
		return true
	}
	return false
}

// ConsentRecord is one time-bounded grant of document read access from a host
// user to a guest user.
//
// HostUserName and GuestUserName are snapshots taken at grant time so the
// dashboard can render names without a join. They are intentionally stale:
// renaming a user does not rewrite existing records.
type ConsentRecord struct {
	ID            int64     `json:"id"`
	DocumentName  string    `json:"documentName"`
	DataAccessed  string    `json:"dataAccessed"`
	DocumentSize  string    `json:"documentSize"`
	DocumentType  string    `json:"documentType"`
	HostUserID    int64     `json:"hostUserId"`
	HostUserName  string    `json:"hostUserName"`
	GuestUserID   int64     `json:"guestUserId"`
	GuestUserName string    `json:"guestUserName"`
	AccessDate    time.Time `json:"accessDate"`
	ExpiryDate    time.Time `json:"expiryDate"`
	Status        Status    `json:"status"`
	AccessLevel   string    `json:"accessLevel"`
	Purpose       string    `json:"purpose"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewRecord is the creation payload. The store assigns ID and CreatedAt and
// fills defaults: Status "active" and AccessLevel "read" when omitted.
type NewRecord struct {
	DocumentName  string    `json:"documentName"`
	DataAccessed  string    `json:"dataAccessed"`
	DocumentSize  string    `json:"documentSize"`
	DocumentType  string    `json:"documentType"`
	HostUserID    int64     `json:"hostUserId"`
	HostUserName  string    `json:"hostUserName"`
	GuestUserID   int64     `json:"guestUserId"`
	GuestUserName string    `json:"guestUserName"`
	AccessDate    time.Time `json:"accessDate"`
	ExpiryDate    time.Time `json:"expiryDate"`
	Status        Status    `json:"status"`
	AccessLevel   string    `json:"accessLevel"`
	Purpose       string    `json:"purpose"`
}

// RecordPatch is a field-level merge: nil fields leave the stored value
// untouched.
type RecordPatch struct {
	DocumentName  *string    `json:"documentName"`
	DataAccessed  *string    `json:"dataAccessed"`
	DocumentSize  *string    `json:"documentSize"`
	DocumentType  *string    `json:"documentType"`
	HostUserName  *string    `json:"hostUserName"`
	GuestUserName *string    `json:"guestUserName"`
	AccessDate    *time.Time `json:"accessDate"`
	ExpiryDate    *time.Time `json:"expiryDate"`
	Status        *Status    `json:"status"`
	AccessLevel   *string    `json:"accessLevel"`
	Purpose       *string    `json:"purpose"`
}

// Apply merges the patch onto a copy of rec and returns it.
func (p RecordPatch) Apply(rec ConsentRecord) ConsentRecord {
	if p.DocumentName != nil {
		rec.DocumentName = *p.DocumentName
	}
	if p.DataAccessed != nil {
		rec.DataAccessed = *p.DataAccessed
	}
	if p.DocumentSize != nil {
		rec.DocumentSize = *p.DocumentSize
	}
	if p.DocumentType != nil {
		rec.DocumentType = *p.DocumentType
	}
	if p.HostUserName != nil {
		rec.HostUserName = *p.HostUserName
	}
	if p.GuestUserName != nil {
		rec.GuestUserName = *p.GuestUserName
	}
	if p.AccessDate != nil {
		rec.AccessDate = *p.AccessDate
	}
	if p.ExpiryDate != nil {
		rec.ExpiryDate = *p.ExpiryDate
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.AccessLevel != nil {
		rec.AccessLevel = *p.AccessLevel
	}
	if p.Purpose != nil {
		rec.Purpose = *p.Purpose
	}
	return rec
}

// NextStatus returns the lifecycle transition due for rec at now, given how
// close to expiry a grant may get before it counts as expiring. The second
// return is false when no transition applies.
//
// active --(within expiringWindow of expiry)--> expiring --(past expiry)--> expired
func NextStatus(rec ConsentRecord, now time.Time, expiringWindow time.Duration) (Status, bool) {
	if rec.ExpiryDate.IsZero() {
		return "", false
	}
	switch rec.Status {
	case StatusActive:
		if !now.Before(rec.ExpiryDate) {
			return StatusExpired, true
		}
		if !rec.ExpiryDate.Add(-expiringWindow).After(now) {
			return StatusExpiring, true
		}
	case StatusExpiring:
		if !now.Before(rec.ExpiryDate) {
			return StatusExpired, true
		}
	}
	return "", false
}

// Stats is the dashboard header tally. Total counts every record regardless
// of status value, so total == active+expiring+expired only holds when the
// set contains no unknown statuses.
type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Expiring int `json:"expiring"`
	Expired  int `json:"expired"`
}

// TallyStats counts records by status in one pass.
func TallyStats(records []ConsentRecord) Stats {
	var s Stats
	for _, rec := range records {
		s.Total++
		switch rec.Status {
		case StatusActive:
			s.Active++
		case StatusExpiring:
			s.Expiring++
		case StatusExpired:
			s.Expired++
		}
	}
	return s
}
