package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage format of calendar dates
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in UTC
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

// Value implements driver.Valuer
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// MonthDay returns the MM-DD key used for birthday matching
func (d Date) MonthDay() string {
	return d.Format("01-02")
}

// Contact represents an entry in a user's address book
type Contact struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"-"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Birthday       Date      `json:"birthday" swaggertype:"string" example:"1990-05-17"`
	AdditionalInfo *string   `json:"additional_info,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateContactRequest represents the request to create a contact
type CreateContactRequest struct {
	FirstName      string  `json:"first_name" binding:"required,max=50,nospaces" example:"Bob"`
	LastName       string  `json:"last_name" binding:"required,max=50,nospaces" example:"Builder"`
	Email          string  `json:"email" binding:"required,email,max=100" example:"bob@example.com"`
	Phone          string  `json:"phone" binding:"required,phone" example:"+380501234567"`
	Birthday       Date    `json:"birthday" swaggertype:"string" example:"1990-05-17"`
	AdditionalInfo *string `json:"additional_info,omitempty"`
}

// UpdateContactRequest represents a partial contact update
type UpdateContactRequest struct {
	FirstName      *string `json:"first_name,omitempty" binding:"omitempty,max=50,nospaces"`
	LastName       *string `json:"last_name,omitempty" binding:"omitempty,max=50,nospaces"`
	Email          *string `json:"email,omitempty" binding:"omitempty,email,max=100"`
	Phone          *string `json:"phone,omitempty" binding:"omitempty,phone"`
	Birthday       *Date   `json:"birthday,omitempty" swaggertype:"string"`
	AdditionalInfo *string `json:"additional_info,omitempty"`
}

// Apply copies the set fields of the request onto c
func (r *UpdateContactRequest) Apply(c *Contact) {
	if r.FirstName != nil {
		c.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		c.LastName = *r.LastName
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Phone != nil {
		c.Phone = *r.Phone
	}
	if r.Birthday != nil {
		c.Birthday = *r.Birthday
	}
	if r.AdditionalInfo != nil {
		c.AdditionalInfo = r.AdditionalInfo
	}
}

// UpcomingBirthdayKeys returns the MM-DD keys of today and the following days
// days, wrapping over the year boundary.
func UpcomingBirthdayKeys(today time.Time, days int) []string {
	if days < 0 {
		days = 0
	}
	if days > 365 {
		days = 365
	}
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	seen := make(map[string]struct{}, days+1)
	keys := make([]string, 0, days+1)
	for i := 0; i <= days; i++ {
		k := start.AddDate(0, 0, i).Format("01-02")
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
