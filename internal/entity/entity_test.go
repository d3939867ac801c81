package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/lawmind/constants"
)

func TestTimestampLayouts(t *testing.T) {
	cases := map[string]time.Time{
		`"2025-03-04T10:11:12Z"`:       time.Date(2025, 3, 4, 10, 11, 12, 0, time.UTC),
		`"2025-03-04T10:11:12.500000"`: time.Date(2025, 3, 4, 10, 11, 12, 500000000, time.UTC),
		`"2025-03-04T15:41:12+05:30"`:  time.Date(2025, 3, 4, 10, 11, 12, 0, time.UTC),
		`"2025-03-04"`:                 time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.True(t, want.Equal(ts.Time), "%s decoded to %v", raw, ts.Time)
	}

	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var resp UploadResponse
	require.NoError(t, json.Unmarshal([]byte(`{"document_id": 42}`), &resp))
	assert.Equal(t, ID("42"), resp.DocumentID)

	require.NoError(t, json.Unmarshal([]byte(`{"document_id": "doc-7"}`), &resp))
	assert.Equal(t, "doc-7", resp.DocumentID.String())

	assert.Error(t, json.Unmarshal([]byte(`{"document_id": {}}`), &resp))
}

func TestUploadedDocumentToJob(t *testing.T) {
	doc := UploadedDocument{ProcessingStatus: "completed", ExtractedData: json.RawMessage(`{"fir_number":"12/2024"}`)}
	job := doc.ToJob("9")
	assert.Equal(t, constants.JobStatusCompleted, job.Status)
	assert.JSONEq(t, `{"fir_number":"12/2024"}`, string(job.Result))

	doc.ProcessingStatus = "processing"
	job = doc.ToJob("9")
	assert.Equal(t, constants.JobStatusPending, job.Status)
	assert.Nil(t, job.Result)
	assert.False(t, job.Terminal())
}

func TestEditResponseText(t *testing.T) {
	assert.Equal(t, "plain", EditResponse{Result: "plain"}.Text())
	assert.Equal(t, "a\n\nb", EditResponse{Result: "x", Suggestions: []string{"a", "b"}}.Text())
}

func TestQualityGrade(t *testing.T) {
	assert.Equal(t, "Excellent", QualityScore{OverallScore: 8}.Grade())
	assert.Equal(t, "Good", QualityScore{OverallScore: 7.9}.Grade())
	assert.Equal(t, "Fair", QualityScore{OverallScore: 4}.Grade())
	assert.Equal(t, "Needs Work", QualityScore{OverallScore: 3.99}.Grade())
}
