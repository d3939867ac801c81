package drafting

import (
	"strings"

	"github.com/joseph-ayodele/lawmind/constants"
	"github.com/joseph-ayodele/lawmind/internal/common"
	"github.com/joseph-ayodele/lawmind/internal/entity"
)

// Form is the raw user input for a new draft, as typed at the prompt or on flags.
type Form struct {
	DocumentType      string
	CaseType          string
	Court             string
	Title             string
	Facts             string
	Petitioner        string
	Respondent        string
	Sections          string // comma separated
	ReliefSought      string
	Tone              string
	AdditionalContext string
}

// Build turns the form into a generate request. Enumerations accept display
// spellings ("High Court"); empty parties are omitted and empty optional text
// is sent as null.
func (f Form) Build() (entity.DraftRequest, error) {
	v := common.NewValidator()

	docType, ok := constants.Canonicalize(f.DocumentType, constants.DocumentTypes())
	v.Check(ok, "document_type", "must be one of "+strings.Join(constants.DocumentTypes(), ", "))
	caseType, ok := constants.Canonicalize(f.CaseType, constants.CaseTypes())
	v.Check(ok, "case_type", "must be one of "+strings.Join(constants.CaseTypes(), ", "))
	court, ok := constants.Canonicalize(f.Court, constants.CourtLevels())
	v.Check(ok, "court", "must be one of "+strings.Join(constants.CourtLevels(), ", "))

	tone := string(constants.ToneFormal)
	if strings.TrimSpace(f.Tone) != "" {
		tone, ok = constants.Canonicalize(f.Tone, constants.Tones())
		v.Check(ok, "tone", "must be one of "+strings.Join(constants.Tones(), ", "))
	}
	v.Field("title", f.Title, common.Required, common.MaxLength(300))
	v.Field("facts", f.Facts, common.Required)
	if err := common.ValidateAndReturnError(v); err != nil {
		return entity.DraftRequest{}, err
	}

	parties := map[string]string{}
	if p := strings.TrimSpace(f.Petitioner); p != "" {
		parties["petitioner"] = p
	}
	if r := strings.TrimSpace(f.Respondent); r != "" {
		parties["respondent"] = r
	}

	req := entity.DraftRequest{
		DocumentType:      docType,
		CaseType:          caseType,
		Court:             court,
		Title:             strings.TrimSpace(f.Title),
		Facts:             strings.TrimSpace(f.Facts),
		Parties:           parties,
		Sections:          SplitSections(f.Sections),
		ReliefSought:      optional(f.ReliefSought),
		Tone:              tone,
		AdditionalContext: optional(f.AdditionalContext),
	}
	if err := ValidateDraftRequest(req); err != nil {
		return entity.DraftRequest{}, err
	}
	return req, nil
}

// SplitSections parses "IPC 302, CrPC 439,," into trimmed, non-empty entries.
func SplitSections(raw string) []string {
	out := []string{}
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
