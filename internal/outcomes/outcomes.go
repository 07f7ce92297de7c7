// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outcomes derives comparative survival rows from an extraction
// document: each non-comparator arm's OS, PFS and TTP medians paired with
// the comparator arm's medians for the same endpoint.
package outcomes

import (
	"github.com/pdiddy/bclc-extractor/internal/schema"
)

// Endpoints are the survival endpoints that produce comparative rows, in
// emission order.
var Endpoints = []schema.Endpoint{schema.EndpointOS, schema.EndpointPFS, schema.EndpointTTP}

// unnamedArm labels group A when an arm has no name.
const unnamedArm = "N/A"

// Survival is one derived comparison of a treatment arm against the comparator.
type Survival struct {
	Endpoint      schema.Endpoint `json:"endpoint" yaml:"endpoint"`
	GroupA        string          `json:"group_a" yaml:"group_a"`
	GroupB        *string         `json:"group_b" yaml:"group_b"`
	MedianAMonths float64         `json:"median_a_months" yaml:"median_a_months"`
	MedianBMonths *float64        `json:"median_b_months" yaml:"median_b_months"`
	PValue        *float64        `json:"p_value" yaml:"p_value"`
	HR            *float64        `json:"hr" yaml:"hr"`
	HRCILow       *float64        `json:"hr_ci_low" yaml:"hr_ci_low"`
	HRCIHigh      *float64        `json:"hr_ci_high" yaml:"hr_ci_high"`

	EvidenceSection *string `json:"evidence_section" yaml:"evidence_section"`
	EvidencePage    *int    `json:"evidence_page" yaml:"evidence_page"`
	TableFigure     *string `json:"table_figure" yaml:"table_figure"`
	VerbatimExcerpt *string `json:"verbatim_excerpt" yaml:"verbatim_excerpt"`
}

// Derive builds the comparative rows for out.
//
// The comparator is the first arm whose name equals
// study_metadata.comparator. When no arm matches, rows still name the
// comparator in GroupB but carry no comparator median. When no comparator
// is declared, every named arm is reported with a nil GroupB; an unnamed
// arm then counts as the comparator and is skipped. An arm produces a
// row for an endpoint only if its own median parses.
func Derive(out *schema.ExtractionOutput) []Survival {
	comparatorName := out.StudyMetadata.Comparator

	var comparator *schema.ExperimentArm
	if comparatorName != nil {
		comparator = out.Arm(*comparatorName)
	}

	var rows []Survival
	for i := range out.Experiments {
		arm := &out.Experiments[i]
		if sameName(arm.ArmName, comparatorName) {
			continue
		}

		groupA := unnamedArm
		if arm.ArmName != nil {
			groupA = *arm.ArmName
		}

		for _, endpoint := range Endpoints {
			a := arm.Metric(endpoint)
			medianA := ParseMonths(a.Value)
			if medianA == nil {
				continue
			}

			var medianB *float64
			if comparator != nil {
				medianB = ParseMonths(comparator.Metric(endpoint).Value)
			}

			low, high := ParseCI(a.HRCI)
			rows = append(rows, Survival{
				Endpoint:        endpoint,
				GroupA:          groupA,
				GroupB:          comparatorName,
				MedianAMonths:   *medianA,
				MedianBMonths:   medianB,
				PValue:          ParsePValue(a.PValue),
				HR:              a.HR,
				HRCILow:         low,
				HRCIHigh:        high,
				EvidenceSection: a.EvidenceSection,
				EvidencePage:    a.EvidencePage,
				TableFigure:     a.TableFigure,
				VerbatimExcerpt: a.VerbatimExcerpt,
			})
		}
	}
	return rows
}

// sameName reports whether an arm name equals the comparator name. Two
// absent names are equal.
func sameName(arm, comparator *string) bool {
	if arm == nil || comparator == nil {
		return arm == nil && comparator == nil
	}
	return *arm == *comparator
}
