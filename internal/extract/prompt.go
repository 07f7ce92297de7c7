// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	"github.com/pdiddy/bclc-extractor/internal/schema"
)

// extractionPromptTmpl instructs the model to return one JSON document
// conforming to the extraction schema for the whole article.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`You are a senior clinical data extraction agent specialized in hepatocellular carcinoma (HCC),
clinical trials, and evidence-based oncology frameworks.

Your task is to analyze the FULL TEXT of a scientific article, provided below,
and extract structured experimental and clinical data focused on treatment efficacy,
safety, and outcomes.

You MUST normalize all extracted information using the BCLC (Barcelona Clinic Liver Cancer) framework.

----------------------------------
IMPORTANT RULES
----------------------------------
- If information is missing or not explicitly stated, use null.
- Do not infer values unless the text clearly supports them.
- Return ONLY a valid, machine-parseable JSON object that strictly adheres to the schema below. Do not include any explanatory text or Markdown formatting before or after the JSON object.
- Preserve numeric units exactly as reported in the text (for example "13.6 months").
- Classify the evidence level from the study design.
- Create a separate object in "experiments" for each treatment arm or experimental group.
- Set study_metadata.comparator to the arm_name of the reference arm, if there is one.
- For every reported outcome, add an evidence_spans entry whose field_path locates the
  value (for example "experiments[0].results.os.value") and whose value_json is the
  value encoded as JSON.

----------------------------------
OUTPUT JSON SCHEMA
----------------------------------
{{.Schema}}

----------------------------------
BEGIN ARTICLE TEXT
----------------------------------
{{.Article}}
`))

var (
	schemaOnce sync.Once
	schemaJSON string
	schemaErr  error
)

func extractionSchema() (string, error) {
	schemaOnce.Do(func() {
		b, err := schema.JSONSchema()
		schemaJSON, schemaErr = string(b), err
	})
	return schemaJSON, schemaErr
}

// BuildPrompt renders the extraction prompt for one article.
func BuildPrompt(articleText string) (string, error) {
	s, err := extractionSchema()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = extractionPromptTmpl.Execute(&buf, struct{ Schema, Article string }{Schema: s, Article: articleText})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// StripCodeFence removes a Markdown code fence (``` or ```json) wrapped
// around a model reply. Text without a leading fence is returned trimmed.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	body := strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		// Info string such as "json".
		body = body[nl+1:]
	} else {
		body = strings.TrimPrefix(strings.TrimLeft(body, " "), "json")
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}
