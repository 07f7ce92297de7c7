// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schema

// kind is the JSON shape a spec accepts.
type kind int

const (
	kindString kind = iota
	kindInteger
	kindNumber
	kindBoolean
	kindEnum
	kindObject
	kindArray
	kindOpenMap
)

// spec declares one node of the document. The same declarations drive
// validation (validate.go) and JSON Schema output (jsonschema.go), so the
// format the model is asked for is the format that gets enforced.
type spec struct {
	kind        kind
	enum        []string
	min, max    *int64
	fields      []field
	items       *spec
	description string
}

type field struct {
	name     string
	spec     *spec
	required bool
}

func str() *spec     { return &spec{kind: kindString} }
func integer() *spec { return &spec{kind: kindInteger} }
func number() *spec  { return &spec{kind: kindNumber} }
func boolean() *spec { return &spec{kind: kindBoolean} }
func openMap() *spec { return &spec{kind: kindOpenMap} }

func intRange(lo, hi int64) *spec {
	return &spec{kind: kindInteger, min: &lo, max: &hi}
}

func enum[T ~string](values ...T) *spec {
	s := &spec{kind: kindEnum}
	for _, v := range values {
		s.enum = append(s.enum, string(v))
	}
	return s
}

func arrayOf(items *spec) *spec { return &spec{kind: kindArray, items: items} }

func object(fields ...field) *spec { return &spec{kind: kindObject, fields: fields} }

func (s *spec) describe(d string) *spec {
	s.description = d
	return s
}

func opt(name string, s *spec) field { return field{name: name, spec: s} }
func req(name string, s *spec) field { return field{name: name, spec: s, required: true} }

var studyMetadataSpec = object(
	opt("pmid", str()),
	opt("title", str()),
	opt("year", integer()),
	opt("journal", str()),
	opt("doi", str()),
	opt("study_design", str().describe("e.g. RCT, Phase II, Observational, Systematic Review")),
	opt("phase", str().describe("Phase I/II/III/IV if applicable")),
	opt("sample_size_total", integer()),
	opt("arms", arrayOf(str())),
	opt("comparator", str().describe("arm_name of the reference arm")),
)

var treatmentSpec = object(
	opt("name", str()),
	opt("category", enum(CategorySurgical, CategoryLocoregional, CategorySystemic, CategoryPalliative, CategoryOther)),
	opt("line_of_therapy", str().describe("first-line, second-line, ...")),
	opt("duration", str()),
	opt("combination", boolean()),
	opt("components", arrayOf(str())),
)

var tumorBurdenSpec = object(
	opt("nodules", enum(NodulesSingle, NodulesTwoToThree, NodulesMoreThan3, NodulesNotReported)),
	opt("largest_nodule_cm", number()),
	opt("vascular_invasion", boolean()),
	opt("extrahepatic_spread", boolean()),
	opt("afp_ng_ml", number()),
	opt("afp_gt_400", boolean()),
)

var childPughSpec = object(
	opt("bilirubin_mg_dl", number()),
	opt("albumin_g_dl", number()),
	opt("inr", number()),
	opt("ascites", enum(AscitesNone, AscitesMildControlled, AscitesModerateSevere)),
	opt("encephalopathy", enum(EncephalopathyNone, EncephalopathyGrade1_2, EncephalopathyGrade3_4)),
	opt("class_letter", enum(ClassA, ClassB, ClassC)),
	opt("score", integer()),
)

var bclcBaselineSpec = object(
	opt("tumor_burden", tumorBurdenSpec),
	opt("child_pugh", childPughSpec),
	opt("performance_status", object(
		opt("ecog", intRange(0, 4)),
	)),
)

var cuseSpec = object(
	opt("mentioned", boolean()),
	opt("cuse_criteria", arrayOf(str())),
	opt("personalized_factors", arrayOf(str())),
	opt("decision_logic", str()),
)

var outcomeMetricSpec = object(
	opt("value", str().describe("verbatim with units, e.g. \"13.6 months\"")),
	opt("ci", str().describe("e.g. \"95% CI, 12.0-15.2\"")),
	opt("p_value", str().describe("e.g. \"p<0.001\"")),
	opt("hr", number()),
	opt("hr_ci", str().describe("e.g. \"0.75-0.95\"")),
	opt("follow_up", str()),
	opt("evidence_section", str().describe("e.g. \"Results - Survival Analysis\"")),
	opt("evidence_page", integer()),
	opt("table_figure", str().describe("e.g. \"Table 2\"")),
	opt("verbatim_excerpt", str()),
)

var resultsSpec = object(
	opt("response_criteria", str().describe("RECIST or mRECIST")),
	opt("os", outcomeMetricSpec),
	opt("pfs", outcomeMetricSpec),
	opt("orr", outcomeMetricSpec),
	opt("dcr", outcomeMetricSpec),
	opt("ttp", outcomeMetricSpec),
	opt("other", openMap()),
)

var adverseEventSpec = object(
	opt("name", str()),
	opt("grade", str().describe("\"3-4\", \"any\", ...")),
	opt("frequency", str().describe("e.g. \"12/100 (12%)\"")),
	opt("notes", str()),
)

var safetySpec = object(
	opt("any_adverse_events_reported", boolean()),
	opt("grade_3_4_events", arrayOf(adverseEventSpec)),
	opt("saes", arrayOf(adverseEventSpec)),
	opt("discontinuation_due_to_toxicity", str()),
	opt("treatment_related_deaths", str()),
	opt("narrative", str()),
)

var experimentArmSpec = object(
	opt("arm_name", str()),
	opt("treatment", treatmentSpec),
	opt("bclc_baseline", bclcBaselineSpec),
	opt("bclc_stage_reported", enum(Stage0, StageA, StageB, StageC, StageD)),
	opt("bclc_2025_cuse", cuseSpec),
	opt("results", resultsSpec),
	opt("safety", safetySpec),
)

var evidenceSpanSpec = object(
	req("field_path", str().describe("locator into this document, e.g. \"experiments[0].results.os.value\"")),
	req("value_json", str().describe("the supported value, JSON-encoded")),
	opt("evidence_section", str()),
	opt("evidence_page", integer()),
	opt("table_figure", str()),
	opt("verbatim_excerpt", str()),
	opt("locator", str()),
)

var extractionOutputSpec = object(
	req("study_metadata", studyMetadataSpec),
	req("experiments", arrayOf(experimentArmSpec)),
	req("evidence_level", enum(EvidenceHigh, EvidenceModerate, EvidenceLow)),
	req("evidence_spans", arrayOf(evidenceSpanSpec)),
)
