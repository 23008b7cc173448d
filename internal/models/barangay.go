package models

import "strings"

// AllBarangays is the scope sentinel meaning no barangay restriction.
const AllBarangays = "All Barangays"

// Canonical display forms of the barangays the system serves. The set is
// open: unknown names pass through trimmed rather than being rejected.
var barangayCanon = []string{
	"Carig Sur",
	"Carig Norte",
	"Linao East",
	"Linao West",
	"Linao Norte",
}

// NormalizeBarangay maps case-insensitive prefixes of the known barangay
// names to their canonical display form. "all" and "all barangays" map to
// the AllBarangays sentinel.
func NormalizeBarangay(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "all" || s == "all barangays" {
		return AllBarangays
	}
	for _, canon := range barangayCanon {
		if strings.HasPrefix(s, strings.ToLower(canon)) {
			return canon
		}
	}
	return strings.TrimSpace(name)
}
