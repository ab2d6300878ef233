package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Inspection numbers follow CI-YYYY-NNNNNN, serialized per shop and year.

func inspectionNumberPrefix(year int) string {
	return fmt.Sprintf("CI-%04d-", year)
}

// FormatInspectionNumber renders a serial into the canonical form.
func FormatInspectionNumber(year, serial int) string {
	return fmt.Sprintf("CI-%04d-%06d", year, serial)
}

func parseInspectionSerial(number, prefix string) (int, bool) {
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
	if err != nil {
		return 0, false
	}
	return n, true
}
