package constants

import (
	"strings"
)

type DocumentType string

const (
	DocPetition    DocumentType = "petition"
	DocNotice      DocumentType = "notice"
	DocAffidavit   DocumentType = "affidavit"
	DocContract    DocumentType = "contract"
	DocAgreement   DocumentType = "agreement"
	DocReply       DocumentType = "reply"
	DocApplication DocumentType = "application"
	DocAppeal      DocumentType = "appeal"
)

var allDocumentTypes = []DocumentType{
	DocPetition, DocNotice, DocAffidavit, DocContract,
	DocAgreement, DocReply, DocApplication, DocAppeal,
}

type CaseType string

const (
	CaseCivil          CaseType = "civil"
	CaseCriminal       CaseType = "criminal"
	CaseCorporate      CaseType = "corporate"
	CaseFamily         CaseType = "family"
	CaseTax            CaseType = "tax"
	CaseProperty       CaseType = "property"
	CaseLabour         CaseType = "labour"
	CaseConstitutional CaseType = "constitutional"
)

var allCaseTypes = []CaseType{
	CaseCivil, CaseCriminal, CaseCorporate, CaseFamily,
	CaseTax, CaseProperty, CaseLabour, CaseConstitutional,
}

type CourtLevel string

const (
	CourtDistrict CourtLevel = "district"
	CourtHigh     CourtLevel = "high_court"
	CourtSupreme  CourtLevel = "supreme_court"
	CourtTribunal CourtLevel = "tribunal"
)

var allCourtLevels = []CourtLevel{CourtDistrict, CourtHigh, CourtSupreme, CourtTribunal}

type Tone string

const (
	ToneFormal       Tone = "formal"
	ToneAssertive    Tone = "assertive"
	ToneConciliatory Tone = "conciliatory"
	ToneTechnical    Tone = "technical"
)

var allTones = []Tone{ToneFormal, ToneAssertive, ToneConciliatory, ToneTechnical}

// EditAction is an AI-assisted editor action on a draft.
type EditAction string

const (
	EditExplain     EditAction = "explain"
	EditSimplify    EditAction = "simplify"
	EditAddCitation EditAction = "add_citation"
	EditRephrase    EditAction = "rephrase"
)

var allEditActions = []EditAction{EditExplain, EditSimplify, EditAddCitation, EditRephrase}

func DocumentTypes() []string { return asStrings(allDocumentTypes) }
func CaseTypes() []string     { return asStrings(allCaseTypes) }
func CourtLevels() []string   { return asStrings(allCourtLevels) }
func Tones() []string         { return asStrings(allTones) }
func EditActions() []string   { return asStrings(allEditActions) }

func asStrings[T ~string](in []T) []string {
	result := make([]string, len(in))
	for i, v := range in {
		result[i] = string(v)
	}
	return result
}

// Canonicalize lowercases input and maps spaces/dashes to underscores so that
// "High Court" and "high-court" both resolve to "high_court". It reports
// whether the result is one of allowed.
func Canonicalize(input string, allowed []string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	for _, a := range allowed {
		if normalized == a {
			return a, true
		}
	}
	return normalized, false
}
