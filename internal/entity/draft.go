package entity

import "strings"

// DraftRequest is the body of POST /api/drafts/generate.
type DraftRequest struct {
	DocumentType      string            `json:"document_type"`
	CaseType          string            `json:"case_type"`
	Court             string            `json:"court"`
	Title             string            `json:"title"`
	Facts             string            `json:"facts"`
	Parties           map[string]string `json:"parties"`
	Sections          []string          `json:"sections"`
	ReliefSought      *string           `json:"relief_sought"`
	Tone              string            `json:"tone"`
	AdditionalContext *string           `json:"additional_context"`
}

// Draft represents a generated legal draft.
type Draft struct {
	ID           int64               `json:"id"`
	Content      string              `json:"content"`
	DocumentType string              `json:"document_type"`
	CaseType     string              `json:"case_type"`
	Title        string              `json:"title"`
	Citations    []map[string]string `json:"citations"`
	CreatedAt    Timestamp           `json:"created_at"`
	UpdatedAt    Timestamp           `json:"updated_at"`
}

type EditRequest struct {
	DraftID      int64  `json:"draft_id"`
	Action       string `json:"action"`
	SelectedText string `json:"selected_text,omitempty"`
	Context      string `json:"context"`
}

type EditResponse struct {
	Result      string   `json:"result"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Text prefers suggestions, separated by blank lines, over the plain result.
func (r EditResponse) Text() string {
	if len(r.Suggestions) > 0 {
		return strings.Join(r.Suggestions, "\n\n")
	}
	return r.Result
}

type QualityScore struct {
	OverallScore         float64  `json:"overall_score"`
	StructureScore       float64  `json:"structure_score"`
	ToneScore            float64  `json:"tone_score"`
	CompletenessScore    float64  `json:"completeness_score"`
	LegalReferencesScore float64  `json:"legal_references_score"`
	GrammarScore         float64  `json:"grammar_score"`
	Strengths            []string `json:"strengths,omitempty"`
	Suggestions          []string `json:"suggestions,omitempty"`
}

// Grade buckets the overall score (0-10).
func (q QualityScore) Grade() string {
	switch {
	case q.OverallScore >= 8:
		return "Excellent"
	case q.OverallScore >= 6:
		return "Good"
	case q.OverallScore >= 4:
		return "Fair"
	default:
		return "Needs Work"
	}
}

type ValidateDraftRequest struct {
	DocumentType string         `json:"document_type"`
	ProvidedData map[string]any `json:"provided_data"`
}

type MissingField struct {
	Field      string `json:"field"`
	Question   string `json:"question,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Priority   string `json:"priority,omitempty"`
}

type ValidationResult struct {
	ValidationStatus   string         `json:"validation_status"`
	MissingFields      []MissingField `json:"missing_fields,omitempty"`
	InteractivePrompts []string       `json:"interactive_prompts,omitempty"`
}

func (v ValidationResult) Complete() bool { return v.ValidationStatus == "complete" }

type SectionSuggestions struct {
	Suggestions  []string `json:"suggestions"`
	CaseType     string   `json:"case_type"`
	DocumentType string   `json:"document_type"`
}

type ExportRequest struct {
	DraftID          int64  `json:"draft_id"`
	Format           string `json:"format"`
	IncludeWatermark bool   `json:"include_watermark"`
}

type ExportResponse struct {
	FileURL   string    `json:"file_url"`
	Format    string    `json:"format"`
	CreatedAt Timestamp `json:"created_at"`
}
