// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schema defines the extraction document produced for one article:
// study metadata, one record per treatment arm, and the evidence spans that
// cite the source text. Documents arrive untyped from a text-generation
// backend and are admitted only through Parse or Validate.
package schema

// EvidenceLevel grades the overall strength of the study design.
type EvidenceLevel string

const (
	EvidenceHigh     EvidenceLevel = "high"
	EvidenceModerate EvidenceLevel = "moderate"
	EvidenceLow      EvidenceLevel = "low"
)

// Category classifies a treatment.
type Category string

const (
	CategorySurgical     Category = "Surgical"
	CategoryLocoregional Category = "Locoregional"
	CategorySystemic     Category = "Systemic"
	CategoryPalliative   Category = "Palliative"
	CategoryOther        Category = "Other"
)

// Nodules is the reported nodule count bucket.
type Nodules string

const (
	NodulesSingle      Nodules = "single"
	NodulesTwoToThree  Nodules = "2-3"
	NodulesMoreThan3   Nodules = ">3"
	NodulesNotReported Nodules = "not_reported"
)

// Ascites is the Child-Pugh ascites grade.
type Ascites string

const (
	AscitesNone           Ascites = "none"
	AscitesMildControlled Ascites = "mild_controlled"
	AscitesModerateSevere Ascites = "moderate_severe"
)

// Encephalopathy is the Child-Pugh hepatic encephalopathy grade.
type Encephalopathy string

const (
	EncephalopathyNone     Encephalopathy = "none"
	EncephalopathyGrade1_2 Encephalopathy = "grade_1_2"
	EncephalopathyGrade3_4 Encephalopathy = "grade_3_4"
)

// ClassLetter is the Child-Pugh class.
type ClassLetter string

const (
	ClassA ClassLetter = "A"
	ClassB ClassLetter = "B"
	ClassC ClassLetter = "C"
)

// BCLCStage is the Barcelona Clinic Liver Cancer stage as reported by the article.
type BCLCStage string

const (
	Stage0 BCLCStage = "0"
	StageA BCLCStage = "A"
	StageB BCLCStage = "B"
	StageC BCLCStage = "C"
	StageD BCLCStage = "D"
)

// StudyMetadata identifies the article and describes the trial design.
// PMID and DOI are the deduplication keys used when persisting.
type StudyMetadata struct {
	PMID            *string  `json:"pmid"`
	Title           *string  `json:"title"`
	Year            *int     `json:"year"`
	Journal         *string  `json:"journal"`
	DOI             *string  `json:"doi"`
	StudyDesign     *string  `json:"study_design"`
	Phase           *string  `json:"phase"`
	SampleSizeTotal *int     `json:"sample_size_total"`
	Arms            []string `json:"arms"`

	// Comparator names the reference arm. By convention it matches an
	// ExperimentArm.ArmName, but nothing enforces that.
	Comparator *string `json:"comparator"`
}

type Treatment struct {
	Name          *string   `json:"name"`
	Category      *Category `json:"category"`
	LineOfTherapy *string   `json:"line_of_therapy"`
	Duration      *string   `json:"duration"`
	Combination   *bool     `json:"combination"`
	Components    []string  `json:"components"`
}

type TumorBurden struct {
	Nodules            *Nodules `json:"nodules"`
	LargestNoduleCM    *float64 `json:"largest_nodule_cm"`
	VascularInvasion   *bool    `json:"vascular_invasion"`
	ExtrahepaticSpread *bool    `json:"extrahepatic_spread"`
	AFPNgML            *float64 `json:"afp_ng_ml"`
	AFPGt400           *bool    `json:"afp_gt_400"`
}

type ChildPugh struct {
	BilirubinMgDL  *float64        `json:"bilirubin_mg_dl"`
	AlbuminGDL     *float64        `json:"albumin_g_dl"`
	INR            *float64        `json:"inr"`
	Ascites        *Ascites        `json:"ascites"`
	Encephalopathy *Encephalopathy `json:"encephalopathy"`
	ClassLetter    *ClassLetter    `json:"class_letter"`
	Score          *int            `json:"score"`
}

// PerformanceStatus holds the ECOG score, 0 through 4.
type PerformanceStatus struct {
	ECOG *int `json:"ecog"`
}

type BCLCBaseline struct {
	TumorBurden       TumorBurden       `json:"tumor_burden"`
	ChildPugh         ChildPugh         `json:"child_pugh"`
	PerformanceStatus PerformanceStatus `json:"performance_status"`
}

// BCLC2025CUSE records mentions of the 2025 personalised decision framework.
type BCLC2025CUSE struct {
	Mentioned           bool     `json:"mentioned"`
	CUSECriteria        []string `json:"cuse_criteria"`
	PersonalizedFactors []string `json:"personalized_factors"`
	DecisionLogic       *string  `json:"decision_logic"`
}

// OutcomeMetric keeps the reported value verbatim ("13.6 months"); numeric
// parsing happens only when outcomes are derived for storage.
type OutcomeMetric struct {
	Value    *string  `json:"value"`
	CI       *string  `json:"ci"`
	PValue   *string  `json:"p_value"`
	HR       *float64 `json:"hr"`
	HRCI     *string  `json:"hr_ci"`
	FollowUp *string  `json:"follow_up"`

	EvidenceSection *string `json:"evidence_section"`
	EvidencePage    *int    `json:"evidence_page"`
	TableFigure     *string `json:"table_figure"`
	VerbatimExcerpt *string `json:"verbatim_excerpt"`
}

// Results holds the five named outcome slots plus free-form extras.
type Results struct {
	ResponseCriteria *string        `json:"response_criteria"`
	OS               OutcomeMetric  `json:"os"`
	PFS              OutcomeMetric  `json:"pfs"`
	ORR              OutcomeMetric  `json:"orr"`
	DCR              OutcomeMetric  `json:"dcr"`
	TTP              OutcomeMetric  `json:"ttp"`
	Other            map[string]any `json:"other"`
}

type AdverseEvent struct {
	Name      *string `json:"name"`
	Grade     *string `json:"grade"`
	Frequency *string `json:"frequency"`
	Notes     *string `json:"notes"`
}

type Safety struct {
	AnyAdverseEventsReported     *bool          `json:"any_adverse_events_reported"`
	Grade34Events                []AdverseEvent `json:"grade_3_4_events"`
	SAEs                         []AdverseEvent `json:"saes"`
	DiscontinuationDueToToxicity *string        `json:"discontinuation_due_to_toxicity"`
	TreatmentRelatedDeaths       *string        `json:"treatment_related_deaths"`
	Narrative                    *string        `json:"narrative"`
}

// ExperimentArm is one treatment arm of the study.
type ExperimentArm struct {
	ArmName           *string      `json:"arm_name"`
	Treatment         Treatment    `json:"treatment"`
	BCLCBaseline      BCLCBaseline `json:"bclc_baseline"`
	BCLCStageReported *BCLCStage   `json:"bclc_stage_reported"`
	BCLC2025CUSE      BCLC2025CUSE `json:"bclc_2025_cuse"`
	Results           Results      `json:"results"`
	Safety            Safety       `json:"safety"`
}

// Endpoint names an outcome slot in Results.
type Endpoint string

const (
	EndpointOS  Endpoint = "OS"
	EndpointPFS Endpoint = "PFS"
	EndpointORR Endpoint = "ORR"
	EndpointDCR Endpoint = "DCR"
	EndpointTTP Endpoint = "TTP"
)

// Metric returns the arm's outcome for endpoint, or nil for an unknown endpoint.
func (a *ExperimentArm) Metric(e Endpoint) *OutcomeMetric {
	switch e {
	case EndpointOS:
		return &a.Results.OS
	case EndpointPFS:
		return &a.Results.PFS
	case EndpointORR:
		return &a.Results.ORR
	case EndpointDCR:
		return &a.Results.DCR
	case EndpointTTP:
		return &a.Results.TTP
	}
	return nil
}

// EvidenceSpan points from a field of the document to the text supporting it.
// FieldPath is a locator such as "experiments[0].results.os.value".
type EvidenceSpan struct {
	FieldPath       string  `json:"field_path" yaml:"field_path"`
	ValueJSON       string  `json:"value_json" yaml:"value_json"`
	EvidenceSection *string `json:"evidence_section" yaml:"evidence_section"`
	EvidencePage    *int    `json:"evidence_page" yaml:"evidence_page"`
	TableFigure     *string `json:"table_figure" yaml:"table_figure"`
	VerbatimExcerpt *string `json:"verbatim_excerpt" yaml:"verbatim_excerpt"`
	Locator         *string `json:"locator" yaml:"locator"`
}

// ExtractionOutput is the root of an extraction document.
type ExtractionOutput struct {
	StudyMetadata StudyMetadata   `json:"study_metadata"`
	Experiments   []ExperimentArm `json:"experiments"`
	EvidenceLevel EvidenceLevel   `json:"evidence_level"`
	EvidenceSpans []EvidenceSpan  `json:"evidence_spans"`
}

// Arm returns the first arm whose name equals name exactly.
func (o *ExtractionOutput) Arm(name string) *ExperimentArm {
	for i := range o.Experiments {
		if n := o.Experiments[i].ArmName; n != nil && *n == name {
			return &o.Experiments[i]
		}
	}
	return nil
}
