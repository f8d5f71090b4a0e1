package domain

// Section template identifiers (HL7 C-CDA R2.1).
const (
	TemplateResults        = "2.16.840.1.113883.10.20.22.2.3.1"
	TemplateProblems       = "2.16.840.1.113883.10.20.22.2.5.1"
	TemplateMedications    = "2.16.840.1.113883.10.20.22.2.1.1"
	TemplateAllergies      = "2.16.840.1.113883.10.20.22.2.6"
	TemplateAllergiesCoded = "2.16.840.1.113883.10.20.22.2.6.1"
	TemplateVitalSigns     = "2.16.840.1.113883.10.20.22.2.4.1"
	TemplateEncounters     = "2.16.840.1.113883.10.20.22.2.22.1"
	TemplateProcedures     = "2.16.840.1.113883.10.20.22.2.7.1"
	TemplateNotes          = "2.16.840.1.113883.10.20.22.2.65"
	TemplateAssessmentPlan = "2.16.840.1.113883.10.20.22.2.9"
	TemplateHospitalCourse = "1.3.6.1.4.1.19376.1.5.3.1.3.5"
	TemplateHPI            = "1.3.6.1.4.1.19376.1.5.3.1.3.4"
)

// Clinical note type LOINC codes.
const (
	LOINCProgressNote     = "11506-3"
	LOINCConsultNote      = "11488-4"
	LOINCHistoryPhysical  = "34117-2"
	LOINCProcedureNote    = "28570-0"
	LOINCDischargeSummary = "18842-5"
	LOINCNurseNote        = "34746-8"
)

// CodeSystemLOINC is the LOINC code system OID.
const CodeSystemLOINC = "2.16.840.1.113883.6.1"

// Clinical importance bonuses.
const (
	ImportanceNote     = 0.4
	ImportanceCore     = 0.2
	ImportanceModerate = 0.15
)

// clinicalImportance is the static override table of section bonuses.
// Derived note subsections are absent and fall back to their note code.
var clinicalImportance = map[string]float64{
	TemplateNotes:          ImportanceNote,
	TemplateAssessmentPlan: ImportanceNote,
	TemplateHospitalCourse: ImportanceNote,
	TemplateHPI:            ImportanceNote,

	TemplateResults:        ImportanceCore,
	TemplateProblems:       ImportanceCore,
	TemplateMedications:    ImportanceCore,
	TemplateAllergies:      ImportanceCore,
	TemplateAllergiesCoded: ImportanceCore,

	TemplateVitalSigns: ImportanceModerate,
	TemplateEncounters: ImportanceModerate,
	TemplateProcedures: ImportanceModerate,
}

// highValueNoteCodes are note codes that earn the note bonus when a
// section is missing from the override table.
var highValueNoteCodes = map[string]bool{
	LOINCProgressNote:     true,
	LOINCConsultNote:      true,
	LOINCHistoryPhysical:  true,
	LOINCProcedureNote:    true,
	LOINCDischargeSummary: true,
}

// noteTypes maps note codes to the title of the derived subsection
// synthesised for them.
var noteTypes = map[string]string{
	LOINCProgressNote:     "Progress Note",
	LOINCConsultNote:      "Consultation Note",
	LOINCHistoryPhysical:  "History and Physical Note",
	LOINCProcedureNote:    "Procedure Note",
	LOINCDischargeSummary: "Discharge Summary",
	LOINCNurseNote:        "Nurse Note",
}

// ClinicalImportanceBonus returns the importance bonus for a section key.
// Keys missing from the override table get the note bonus when any of
// codes is a high-value note code, and 0 otherwise.
func ClinicalImportanceBonus(key string, codes []CodeRef) float64 {
	if bonus, ok := clinicalImportance[key]; ok {
		return bonus
	}
	for _, c := range codes {
		if highValueNoteCodes[c.Code] {
			return ImportanceNote
		}
	}
	return 0
}

// NoteTypeTitle returns the derived subsection title for a note code.
func NoteTypeTitle(code string) (string, bool) {
	title, ok := noteTypes[code]
	return title, ok
}

// SubsectionKey joins a parent section key and a note code.
func SubsectionKey(parent, code string) string {
	return parent + "." + code
}
