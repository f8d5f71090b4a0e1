// Package ccda reads HL7 C-CDA documents.
//
// It provides three driven adapters:
//
//   - SectionParser: a streaming encoding/xml walk that turns every
//     section element into a domain.SectionObservation
//   - PHIParser: decodes recordTarget/patientRole into domain.PHIData
//   - Reformatter: etree based pretty printing and whitespace-insensitive
//     comparison of a rewrite against its original
//
// Elements are matched by local name so documents that omit the
// urn:hl7-org:v3 default namespace parse the same way.
package ccda
