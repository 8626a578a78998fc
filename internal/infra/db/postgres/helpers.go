package postgres

import "strings"

// stringOrDash keeps NOT NULL columns readable when a field is blank.
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
