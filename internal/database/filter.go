package database

import "strings"

// BookingFilter enumerates the recognized booking list filters. Filters
// compile to parameterized WHERE clauses only; values never reach the SQL
// text.
type BookingFilter struct {
	Status      string
	DateFrom    string // YYYY-MM-DD, inclusive
	DateTo      string // YYYY-MM-DD, inclusive
	TherapistID int64
	HotelID     int64
	Limit       int
	Offset      int
}

// compile renders the WHERE clause and its arguments. An empty filter yields
// an empty clause.
func (f BookingFilter) compile() (string, []any) {
	var clauses []string
	var args []any

	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.DateFrom != "" {
		clauses = append(clauses, "date >= ?")
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		clauses = append(clauses, "date <= ?")
		args = append(args, f.DateTo)
	}
	if f.TherapistID > 0 {
		clauses = append(clauses, "therapist_id = ?")
		args = append(args, f.TherapistID)
	}
	if f.HotelID > 0 {
		clauses = append(clauses, "hotel_id = ?")
		args = append(args, f.HotelID)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}
