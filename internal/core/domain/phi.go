package domain

import "strings"

// Identifier type OIDs.
const (
	OIDSocialSecurity = "2.16.840.1.113883.4.1"
	OIDMedicare       = "2.16.840.1.113883.4.572"
)

// Identifier types.
const (
	IDTypeSSN      = "SSN"
	IDTypeMedicare = "Medicare"
	IDTypeMRN      = "MRN"
	IDTypeUnknown  = "unknown"
)

// Telecom types.
const (
	TelecomPhone   = "phone"
	TelecomEmail   = "email"
	TelecomUnknown = "unknown"
)

// ClassifyIdentifier derives the identifier type from its root OID.
func ClassifyIdentifier(root string) string {
	switch {
	case root == OIDSocialSecurity:
		return IDTypeSSN
	case root == OIDMedicare:
		return IDTypeMedicare
	case strings.Contains(root, "MR"):
		return IDTypeMRN
	default:
		return IDTypeUnknown
	}
}

// ClassifyTelecom splits a telecom URI into its type and bare value.
func ClassifyTelecom(value string) (kind, bare string) {
	switch {
	case strings.HasPrefix(value, "tel:"):
		return TelecomPhone, strings.TrimPrefix(value, "tel:")
	case strings.HasPrefix(value, "mailto:"):
		return TelecomEmail, strings.TrimPrefix(value, "mailto:")
	default:
		return TelecomUnknown, value
	}
}

// PHIIdentifier is an identifier such as an MRN or SSN.
type PHIIdentifier struct {
	Type      string `json:"type"`
	Root      string `json:"root"`
	Extension string `json:"extension"`
	Path      string `json:"xpath"`
}

// PHIAddress is a postal address.
type PHIAddress struct {
	Use         string   `json:"use"`
	StreetLines []string `json:"street_lines"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	PostalCode  string   `json:"postal_code"`
	Country     string   `json:"country"`
	Formatted   string   `json:"formatted"`
	Path        string   `json:"xpath"`
}

// FormatAddress joins street lines, "city, state", postal code and country.
func (a PHIAddress) FormatAddress() string {
	var parts []string
	parts = append(parts, a.StreetLines...)
	if a.City != "" {
		cityState := a.City
		if a.State != "" {
			cityState += ", " + a.State
		}
		parts = append(parts, cityState)
	}
	if a.PostalCode != "" {
		parts = append(parts, a.PostalCode)
	}
	if a.Country != "" {
		parts = append(parts, a.Country)
	}
	return strings.Join(parts, ", ")
}

// PHITelecom is a phone number or email address.
type PHITelecom struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Use   string `json:"use"`
	Path  string `json:"xpath"`
}

// PHIName is a person name.
type PHIName struct {
	Use       string   `json:"use"`
	Prefix    []string `json:"prefix"`
	Given     []string `json:"given"`
	Family    []string `json:"family"`
	Suffix    []string `json:"suffix"`
	Formatted string   `json:"formatted"`
	Path      string   `json:"xpath"`
}

// FormatName joins prefix, given, family and suffix parts.
func (n PHIName) FormatName() string {
	var parts []string
	parts = append(parts, n.Prefix...)
	parts = append(parts, n.Given...)
	parts = append(parts, n.Family...)
	parts = append(parts, n.Suffix...)
	return strings.Join(parts, " ")
}

// PHICodedValue is a coded demographic such as gender or race.
type PHICodedValue struct {
	Type           string `json:"type"`
	Code           string `json:"code"`
	DisplayName    string `json:"display_name"`
	CodeSystem     string `json:"code_system"`
	CodeSystemName string `json:"code_system_name"`
	Path           string `json:"xpath"`
}

// PHIValue is a bare attribute value with its source path.
type PHIValue struct {
	Value string `json:"value"`
	Path  string `json:"xpath"`
}

// PHIGuardian holds a guardian's contact details.
type PHIGuardian struct {
	Addresses []PHIAddress `json:"addresses"`
	Telecoms  []PHITelecom `json:"telecoms"`
	Names     []PHIName    `json:"names"`
}

// PHIOrganization is the patient's provider organization.
type PHIOrganization struct {
	Name      string          `json:"name,omitempty"`
	IDs       []PHIIdentifier `json:"ids"`
	Addresses []PHIAddress    `json:"addresses"`
	Telecoms  []PHITelecom    `json:"telecoms"`
}

// PHIData is everything extracted from recordTarget/patientRole.
type PHIData struct {
	IDs           []PHIIdentifier  `json:"ids"`
	Addresses     []PHIAddress     `json:"addresses"`
	Telecoms      []PHITelecom     `json:"telecoms"`
	Names         []PHIName        `json:"names"`
	BirthTime     *PHIValue        `json:"birthtime,omitempty"`
	Gender        *PHICodedValue   `json:"gender,omitempty"`
	MaritalStatus *PHICodedValue   `json:"marital_status,omitempty"`
	Race          *PHICodedValue   `json:"race,omitempty"`
	Ethnicity     *PHICodedValue   `json:"ethnicity,omitempty"`
	Language      *PHICodedValue   `json:"language,omitempty"`
	Guardian      *PHIGuardian     `json:"guardian,omitempty"`
	Provider      *PHIOrganization `json:"provider_organization,omitempty"`
}

// PHIRecord is the PHI extracted from one document.
type PHIRecord struct {
	FileName string   `json:"file_name"`
	Data     *PHIData `json:"phi_data,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// TokenizedName is a name normalised for tokenization.
type TokenizedName struct {
	Name   string `json:"name"`
	Prefix string `json:"name_prefix"`
	Given  string `json:"name_given"`
	Family string `json:"name_family"`
	Suffix string `json:"name_suffix"`
}

// TokenizedAddress is an address normalised for tokenization.
type TokenizedAddress struct {
	Address string `json:"address"`
	Street  string `json:"address_street"`
	City    string `json:"address_city"`
	State   string `json:"address_state"`
	Zip     string `json:"address_zip"`
	Country string `json:"address_country"`
}

// PHIToken pairs a distinct PHI value with its surrogate.
type PHIToken struct {
	Value     string `json:"value"`
	Surrogate string `json:"surrogate"`
}

// TokenizationData is one document's PHI normalised into flat fields.
type TokenizationData struct {
	Names        []TokenizedName    `json:"names"`
	Addresses    []TokenizedAddress `json:"addresses"`
	Contacts     []string           `json:"contacts"`
	Dates        []string           `json:"dates"`
	Identifiers  []string           `json:"identifiers"`
	Demographics map[string]string  `json:"demographics"`
	Tokens       []PHIToken         `json:"all_tokens"`
}

// TokenizationRecord is the tokenization output for one document.
type TokenizationRecord struct {
	FileName string            `json:"file_name"`
	Data     *TokenizationData `json:"tokenization_data,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// NormalizeHL7Date turns YYYYMMDD[...] into YYYY-MM-DD. Other lengths are
// returned unchanged.
func NormalizeHL7Date(value string) string {
	if len(value) < 8 {
		return value
	}
	for _, r := range value[:8] {
		if r < '0' || r > '9' {
			return value
		}
	}
	return value[0:4] + "-" + value[4:6] + "-" + value[6:8]
}
