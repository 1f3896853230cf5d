package ledger

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FinancialYear is an accounting year identified by the calendar year it starts in.
// FinancialYear(2024) with an April start covers 2024-04-01 through 2025-03-31
// and is written "2024-25".
type FinancialYear int

// FinancialYearOf returns the financial year containing t.
func FinancialYearOf(t time.Time, startMonth time.Month) FinancialYear {
	if t.Month() < startMonth {
		return FinancialYear(t.Year() - 1)
	}
	return FinancialYear(t.Year())
}

// ParseFinancialYear accepts "2024-25", "2024-2025" or "2024".
func ParseFinancialYear(s string) (FinancialYear, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty financial year")
	}

	head, tail, hasTail := strings.Cut(s, "-")
	start, err := strconv.Atoi(head)
	if err != nil || len(head) != 4 {
		return 0, fmt.Errorf("invalid financial year %q", s)
	}
	if !hasTail {
		return FinancialYear(start), nil
	}

	end, err := strconv.Atoi(tail)
	if err != nil {
		return 0, fmt.Errorf("invalid financial year %q", s)
	}
	switch len(tail) {
	case 2:
		if end != (start+1)%100 {
			return 0, fmt.Errorf("financial year %q does not span consecutive years", s)
		}
	case 4:
		if end != start+1 {
			return 0, fmt.Errorf("financial year %q does not span consecutive years", s)
		}
	default:
		return 0, fmt.Errorf("invalid financial year %q", s)
	}
	return FinancialYear(start), nil
}

func (fy FinancialYear) String() string {
	return fmt.Sprintf("%04d-%02d", int(fy), (int(fy)+1)%100)
}

func (fy FinancialYear) IsZero() bool { return fy == 0 }

func (fy FinancialYear) Previous() FinancialYear { return fy - 1 }

func (fy FinancialYear) Next() FinancialYear { return fy + 1 }

// Start is the first day of the year, in UTC.
func (fy FinancialYear) Start(startMonth time.Month) time.Time {
	return time.Date(int(fy), startMonth, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the year, in UTC.
func (fy FinancialYear) End(startMonth time.Month) time.Time {
	return fy.Next().Start(startMonth).AddDate(0, 0, -1)
}

// Contains reports whether t falls inside the year.
func (fy FinancialYear) Contains(t time.Time, startMonth time.Month) bool {
	return FinancialYearOf(t, startMonth) == fy
}

func (fy FinancialYear) MarshalText() ([]byte, error) {
	return []byte(fy.String()), nil
}

func (fy *FinancialYear) UnmarshalText(b []byte) error {
	parsed, err := ParseFinancialYear(string(b))
	if err != nil {
		return err
	}
	*fy = parsed
	return nil
}

// Value stores the year as its "2024-25" label, and the zero year as NULL.
func (fy FinancialYear) Value() (driver.Value, error) {
	if fy.IsZero() {
		return nil, nil
	}
	return fy.String(), nil
}

func (fy *FinancialYear) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return fy.UnmarshalText([]byte(v))
	case []byte:
		return fy.UnmarshalText(v)
	case nil:
		*fy = 0
		return nil
	default:
		return fmt.Errorf("cannot scan %T into FinancialYear", src)
	}
}
