// internal/domain/user/validation.go
package user

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrInvalidGSTIN      = errors.New("invalid GSTIN")
	ErrInvalidPostalCode = errors.New("invalid PIN code")
	ErrInvalidCountry    = errors.New("only addresses in India are supported")
)

// 2-digit state code, PAN, entity number, 'Z', checksum
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

var pinPattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// ValidateGSTIN checks the shape of a 15-character GST identification number
func ValidateGSTIN(gstin string) error {
	if !gstinPattern.MatchString(strings.ToUpper(strings.TrimSpace(gstin))) {
		return fmt.Errorf("%w: %s", ErrInvalidGSTIN, gstin)
	}
	return nil
}

// ValidatePostalCode checks a 6-digit Indian PIN code
func ValidatePostalCode(pin string) error {
	if !pinPattern.MatchString(strings.TrimSpace(pin)) {
		return fmt.Errorf("%w: %s", ErrInvalidPostalCode, pin)
	}
	return nil
}

func validateCountry(country string) error {
	if country != "" && !strings.EqualFold(country, "IN") {
		return fmt.Errorf("%w: %s", ErrInvalidCountry, country)
	}
	return nil
}
