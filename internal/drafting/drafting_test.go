package drafting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/lawmind/internal/common"
	"github.com/joseph-ayodele/lawmind/internal/entity"
)

func validForm() Form {
	return Form{
		DocumentType: "Petition",
		CaseType:     "criminal",
		Court:        "High Court",
		Title:        "State v. Sharma",
		Facts:        "The accused was arrested on 3 March.",
		Petitioner:   " R. Sharma ",
		Sections:     "IPC 302, CrPC 439,, ",
	}
}

func TestFormBuild(t *testing.T) {
	req, err := validForm().Build()
	require.NoError(t, err)

	assert.Equal(t, "petition", req.DocumentType)
	assert.Equal(t, "high_court", req.Court)
	assert.Equal(t, "formal", req.Tone)
	assert.Equal(t, map[string]string{"petitioner": "R. Sharma"}, req.Parties)
	assert.Equal(t, []string{"IPC 302", "CrPC 439"}, req.Sections)
	assert.Nil(t, req.ReliefSought)
	assert.Nil(t, req.AdditionalContext)
}

func TestFormBuildRejectsBadInput(t *testing.T) {
	f := validForm()
	f.Court = "moon court"
	f.Facts = "  "
	_, err := f.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
	msg := common.UserMessage(err)
	assert.Contains(t, msg, "court must be one of")
	assert.Contains(t, msg, "facts is required")

	f = validForm()
	f.Tone = "sarcastic"
	_, err = f.Build()
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestSplitSections(t *testing.T) {
	assert.Equal(t, []string{}, SplitSections(""))
	assert.Equal(t, []string{"a", "b c"}, SplitSections(" a ,, b c ,"))
}

func TestValidateDraftRequestSchema(t *testing.T) {
	relief := "Bail"
	ok := entity.DraftRequest{
		DocumentType: "application", CaseType: "criminal", Court: "district",
		Title: "Bail", Facts: "facts", Parties: map[string]string{}, Sections: []string{},
		ReliefSought: &relief, Tone: "assertive",
	}
	require.NoError(t, ValidateDraftRequest(ok))

	bad := ok
	bad.DocumentType = "memo"
	bad.Sections = []string{""}
	err := ValidateDraftRequest(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
	msg := common.UserMessage(err)
	assert.Contains(t, msg, "document_type")
	assert.Contains(t, msg, "sections.0")
}
