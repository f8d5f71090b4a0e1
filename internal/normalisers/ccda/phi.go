package ccda

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// Ensure PHIParser implements the interface.
var _ driven.PHIParser = (*PHIParser)(nil)

// PHIParser decodes the patient header of a C-CDA document.
type PHIParser struct{}

// NewPHIParser creates a new PHI parser.
func NewPHIParser() *PHIParser {
	return &PHIParser{}
}

// Paths keep this many trailing segments, language codes one more.
const (
	pathSegments         = 4
	languagePathSegments = 5
)

const patientRolePath = "/ClinicalDocument/recordTarget/patientRole"

type xmlII struct {
	Root      string `xml:"root,attr"`
	Extension string `xml:"extension,attr"`
}

type xmlAddr struct {
	Use         string   `xml:"use,attr"`
	StreetLines []string `xml:"streetAddressLine"`
	City        []string `xml:"city"`
	State       []string `xml:"state"`
	PostalCode  []string `xml:"postalCode"`
	Country     []string `xml:"country"`
}

type xmlTelecom struct {
	Value string `xml:"value,attr"`
	Use   string `xml:"use,attr"`
}

type xmlName struct {
	Use    string   `xml:"use,attr"`
	Prefix []string `xml:"prefix"`
	Given  []string `xml:"given"`
	Family []string `xml:"family"`
	Suffix []string `xml:"suffix"`
}

type xmlCoded struct {
	Code           string `xml:"code,attr"`
	DisplayName    string `xml:"displayName,attr"`
	CodeSystem     string `xml:"codeSystem,attr"`
	CodeSystemName string `xml:"codeSystemName,attr"`
}

type xmlValue struct {
	Value string `xml:"value,attr"`
}

type xmlPatient struct {
	Names         []xmlName `xml:"name"`
	BirthTime     *xmlValue `xml:"birthTime"`
	Gender        *xmlCoded `xml:"administrativeGenderCode"`
	MaritalStatus *xmlCoded `xml:"maritalStatusCode"`
	Race          *xmlCoded `xml:"raceCode"`
	Ethnicity     *xmlCoded `xml:"ethnicGroupCode"`
	Languages     []struct {
		Code *xmlCoded `xml:"languageCode"`
	} `xml:"languageCommunication"`
}

type xmlGuardian struct {
	Addrs    []xmlAddr    `xml:"addr"`
	Telecoms []xmlTelecom `xml:"telecom"`
	Person   *struct {
		Names []xmlName `xml:"name"`
	} `xml:"guardianPerson"`
}

type xmlOrganization struct {
	IDs      []xmlII      `xml:"id"`
	Names    []string     `xml:"name"`
	Addrs    []xmlAddr    `xml:"addr"`
	Telecoms []xmlTelecom `xml:"telecom"`
}

type xmlPatientRole struct {
	IDs      []xmlII          `xml:"id"`
	Addrs    []xmlAddr        `xml:"addr"`
	Telecoms []xmlTelecom     `xml:"telecom"`
	Patient  *xmlPatient      `xml:"patient"`
	Guardian *xmlGuardian     `xml:"guardian"`
	Provider *xmlOrganization `xml:"providerOrganization"`
}

type xmlRecordTarget struct {
	PatientRole *xmlPatientRole `xml:"patientRole"`
}

// ParsePHI decodes the first recordTarget. Tokens after it are not read.
func (p *PHIParser) ParsePHI(r io.Reader) (*domain.PHIData, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, domain.ErrNoPatient
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrParse, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "recordTarget" {
			continue
		}

		var target xmlRecordTarget
		if err := dec.DecodeElement(&target, &start); err != nil {
			return nil, fmt.Errorf("%w: recordTarget: %w", domain.ErrParse, err)
		}
		if target.PatientRole == nil {
			return nil, domain.ErrNoPatient
		}
		return convertPatientRole(target.PatientRole), nil
	}
}

func convertPatientRole(role *xmlPatientRole) *domain.PHIData {
	data := &domain.PHIData{
		IDs:       convertIDs(role.IDs, patientRolePath),
		Addresses: convertAddrs(role.Addrs, patientRolePath),
		Telecoms:  convertTelecoms(role.Telecoms, patientRolePath),
		Names:     []domain.PHIName{},
	}

	if pat := role.Patient; pat != nil {
		base := patientRolePath + "/patient"
		data.Names = convertNames(pat.Names, base)
		if pat.BirthTime != nil {
			data.BirthTime = &domain.PHIValue{
				Value: pat.BirthTime.Value,
				Path:  shortPath(base+"/birthTime", pathSegments),
			}
		}
		data.Gender = convertCoded(pat.Gender, "gender", base+"/administrativeGenderCode")
		data.MaritalStatus = convertCoded(pat.MaritalStatus, "marital_status", base+"/maritalStatusCode")
		data.Race = convertCoded(pat.Race, "race", base+"/raceCode")
		data.Ethnicity = convertCoded(pat.Ethnicity, "ethnicity", base+"/ethnicGroupCode")
		for i, lang := range pat.Languages {
			if lang.Code == nil {
				continue
			}
			full := indexed(base+"/languageCommunication", i, len(pat.Languages)) + "/languageCode"
			data.Language = &domain.PHICodedValue{
				Type: "language",
				Code: lang.Code.Code,
				Path: shortPath(full, languagePathSegments),
			}
			break
		}
	}

	if g := role.Guardian; g != nil {
		base := patientRolePath + "/guardian"
		data.Guardian = &domain.PHIGuardian{
			Addresses: convertAddrs(g.Addrs, base),
			Telecoms:  convertTelecoms(g.Telecoms, base),
			Names:     []domain.PHIName{},
		}
		if g.Person != nil {
			data.Guardian.Names = convertNames(g.Person.Names, base+"/guardianPerson")
		}
	}

	if org := role.Provider; org != nil {
		base := patientRolePath + "/providerOrganization"
		data.Provider = &domain.PHIOrganization{
			IDs:       convertIDs(org.IDs, base),
			Addresses: convertAddrs(org.Addrs, base),
			Telecoms:  convertTelecoms(org.Telecoms, base),
		}
		if len(org.Names) > 0 {
			data.Provider.Name = strings.TrimSpace(org.Names[0])
		}
	}

	return data
}

func convertIDs(ids []xmlII, parent string) []domain.PHIIdentifier {
	out := make([]domain.PHIIdentifier, 0, len(ids))
	for i, id := range ids {
		out = append(out, domain.PHIIdentifier{
			Type:      domain.ClassifyIdentifier(id.Root),
			Root:      id.Root,
			Extension: id.Extension,
			Path:      shortPath(indexed(parent+"/id", i, len(ids)), pathSegments),
		})
	}
	return out
}

func convertAddrs(addrs []xmlAddr, parent string) []domain.PHIAddress {
	out := make([]domain.PHIAddress, 0, len(addrs))
	for i, a := range addrs {
		addr := domain.PHIAddress{
			Use:         a.Use,
			StreetLines: nonEmpty(a.StreetLines),
			City:        first(a.City),
			State:       first(a.State),
			PostalCode:  first(a.PostalCode),
			Country:     first(a.Country),
			Path:        shortPath(indexed(parent+"/addr", i, len(addrs)), pathSegments),
		}
		addr.Formatted = addr.FormatAddress()
		out = append(out, addr)
	}
	return out
}

func convertTelecoms(telecoms []xmlTelecom, parent string) []domain.PHITelecom {
	out := make([]domain.PHITelecom, 0, len(telecoms))
	for i, t := range telecoms {
		kind, value := domain.ClassifyTelecom(t.Value)
		out = append(out, domain.PHITelecom{
			Type:  kind,
			Value: value,
			Use:   t.Use,
			Path:  shortPath(indexed(parent+"/telecom", i, len(telecoms)), pathSegments),
		})
	}
	return out
}

func convertNames(names []xmlName, parent string) []domain.PHIName {
	out := make([]domain.PHIName, 0, len(names))
	for i, n := range names {
		name := domain.PHIName{
			Use:    n.Use,
			Prefix: nonEmpty(n.Prefix),
			Given:  nonEmpty(n.Given),
			Family: nonEmpty(n.Family),
			Suffix: nonEmpty(n.Suffix),
			Path:   shortPath(indexed(parent+"/name", i, len(names)), pathSegments),
		}
		name.Formatted = name.FormatName()
		out = append(out, name)
	}
	return out
}

func convertCoded(c *xmlCoded, kind, path string) *domain.PHICodedValue {
	if c == nil {
		return nil
	}
	return &domain.PHICodedValue{
		Type:           kind,
		Code:           c.Code,
		DisplayName:    c.DisplayName,
		CodeSystem:     c.CodeSystem,
		CodeSystemName: c.CodeSystemName,
		Path:           shortPath(path, pathSegments),
	}
}

// indexed appends a 1-based position predicate when an element repeats.
func indexed(path string, i, count int) string {
	if count < 2 {
		return path
	}
	return path + "[" + strconv.Itoa(i+1) + "]"
}

// shortPath keeps the last n segments of an absolute element path.
func shortPath(path string, n int) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) > n {
		parts = parts[len(parts)-n:]
	}
	return strings.Join(parts, "/")
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func first(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
