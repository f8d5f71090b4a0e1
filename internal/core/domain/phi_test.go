package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIdentifier(t *testing.T) {
	assert.Equal(t, IDTypeSSN, ClassifyIdentifier(OIDSocialSecurity))
	assert.Equal(t, IDTypeMedicare, ClassifyIdentifier(OIDMedicare))
	assert.Equal(t, IDTypeMRN, ClassifyIdentifier("1.2.3.MRN"))
	assert.Equal(t, IDTypeUnknown, ClassifyIdentifier("1.2.3"))
}

func TestClassifyTelecom(t *testing.T) {
	kind, value := ClassifyTelecom("tel:+1-555-0100")
	assert.Equal(t, TelecomPhone, kind)
	assert.Equal(t, "+1-555-0100", value)

	kind, value = ClassifyTelecom("mailto:jane@example.org")
	assert.Equal(t, TelecomEmail, kind)
	assert.Equal(t, "jane@example.org", value)

	kind, value = ClassifyTelecom("fax:123")
	assert.Equal(t, TelecomUnknown, kind)
	assert.Equal(t, "fax:123", value)
}

func TestPHIName_FormatName(t *testing.T) {
	n := PHIName{Prefix: []string{"Dr."}, Given: []string{"Jane", "Q"}, Family: []string{"Doe"}, Suffix: []string{"MD"}}
	assert.Equal(t, "Dr. Jane Q Doe MD", n.FormatName())
	assert.Empty(t, PHIName{}.FormatName())
}

func TestPHIAddress_FormatAddress(t *testing.T) {
	a := PHIAddress{
		StreetLines: []string{"1 Main St", "Apt 2"},
		City:        "Springfield",
		State:       "IL",
		PostalCode:  "62701",
		Country:     "US",
	}
	assert.Equal(t, "1 Main St, Apt 2, Springfield, IL, 62701, US", a.FormatAddress())

	// State without city is dropped.
	assert.Equal(t, "62701", PHIAddress{State: "IL", PostalCode: "62701"}.FormatAddress())
}

func TestNormalizeHL7Date(t *testing.T) {
	assert.Equal(t, "1980-01-31", NormalizeHL7Date("19800131"))
	assert.Equal(t, "1980-01-31", NormalizeHL7Date("19800131120000-0500"))
	assert.Equal(t, "1980", NormalizeHL7Date("1980"))
	assert.Equal(t, "1980-1-31", NormalizeHL7Date("1980-1-31"))
	assert.Empty(t, NormalizeHL7Date(""))
}
