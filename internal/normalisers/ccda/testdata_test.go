package ccda

// sampleDocument is a trimmed C-CDA with a patient header, a flat
// section, a section with a nested note section and an untyped section.
const sampleDocument = `<?xml version="1.0" encoding="UTF-8"?>
<ClinicalDocument xmlns="urn:hl7-org:v3" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <recordTarget>
    <patientRole>
      <id root="2.16.840.1.113883.4.1" extension="111-22-3333"/>
      <id root="1.2.3.MRN" extension="MRN-42"/>
      <addr use="HP">
        <streetAddressLine>1 Main St</streetAddressLine>
        <city>Springfield</city>
        <state>IL</state>
        <postalCode>62701</postalCode>
        <country>US</country>
      </addr>
      <telecom use="HP" value="tel:+1-555-0100"/>
      <telecom value="mailto:ada@example.org"/>
      <patient>
        <name use="L"><given>Ada</given><given>May</given><family>Lovelace</family></name>
        <administrativeGenderCode code="F" displayName="Female" codeSystem="2.16.840.1.113883.5.1"/>
        <birthTime value="19801231"/>
        <raceCode code="2106-3" displayName="White"/>
        <languageCommunication><languageCode code="en"/></languageCommunication>
      </patient>
      <providerOrganization>
        <id root="2.16.840.1.113883.4.6" extension="999"/>
        <name>General Hospital</name>
      </providerOrganization>
    </patientRole>
  </recordTarget>
  <component>
    <structuredBody>
      <component>
        <section>
          <templateId root="2.16.840.1.113883.10.20.22.2.5.1"/>
          <code code="11450-4" codeSystem="2.16.840.1.113883.6.1"/>
          <title>Problems</title>
          <text>Type 2 diabetes <content>well controlled</content></text>
          <entry><observation><code code="55607006"/><value xsi:type="CD" code="44054006"/></observation></entry>
          <entry><observation><code code="55607006"/></observation></entry>
        </section>
      </component>
      <component>
        <section>
          <code code="10164-2" codeSystem="2.16.840.1.113883.6.1"/>
          <title>History</title>
          <text>Short note.</text>
          <component>
            <section>
              <templateId root="2.16.840.1.113883.10.20.22.2.65"/>
              <code code="11506-3"/>
              <title>Progress</title>
              <text>Patient doing well today</text>
              <entry><act><code code="X"/></act></entry>
            </section>
          </component>
        </section>
      </component>
      <component>
        <section>
          <title>Untyped</title>
        </section>
      </component>
    </structuredBody>
  </component>
</ClinicalDocument>
`
