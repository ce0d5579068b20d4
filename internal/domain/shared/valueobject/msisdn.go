package valueobject

import (
	"fmt"
	"regexp"
)

// msisdnPattern matches a South African mobile number in international
// format: +27 followed by exactly nine digits.
var msisdnPattern = regexp.MustCompile(`^\+27\d{9}$`)

// MSISDN is the natural key of a subscriber: a mobile number in
// +27XXXXXXXXX format. It is immutable once constructed.
type MSISDN struct {
	value string
}

// NewMSISDN validates and constructs an MSISDN
func NewMSISDN(value string) (MSISDN, error) {
	if !msisdnPattern.MatchString(value) {
		return MSISDN{}, fmt.Errorf("invalid MSISDN %q: must be +27 followed by 9 digits", value)
	}
	return MSISDN{value: value}, nil
}

// IsValidMSISDN reports whether value is a well-formed MSISDN
func IsValidMSISDN(value string) bool {
	return msisdnPattern.MatchString(value)
}

// String returns the MSISDN in +27XXXXXXXXX form
func (m MSISDN) String() string {
	return m.value
}

// IsZero returns true for the zero-value MSISDN
func (m MSISDN) IsZero() bool {
	return m.value == ""
}

// Equals compares two MSISDNs
func (m MSISDN) Equals(other MSISDN) bool {
	return m.value == other.value
}
