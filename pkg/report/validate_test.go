package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReconJSON = `{
  "url": "https://example.com/products",
  "siteName": "Example Store",
  "siteType": "static_html",
  "pages": [
    {
      "url": "https://example.com/products",
      "purpose": "listing",
      "formFields": [],
      "dataElements": [".product-card"],
      "pagination": {"type": "next_link", "nextLinkSelector": ".next", "urlParamName": ""}
    }
  ],
  "apiEndpoints": [],
  "antiBot": {"captcha": false, "cloudflare": false, "rateLimit": false, "requiresAuth": false},
  "suggestedStrategy": "listing",
  "sampleDataJson": "[]"
}`

const validTestReportJSON = `{
  "success": true,
  "exitCode": 0,
  "timedOut": false,
  "recordCount": 5,
  "durationMs": 1200,
  "schemaErrors": [],
  "sampleRecordsJson": "[]",
  "fieldCoverage": {"title": 5, "price": 4},
  "stdout": "ok",
  "stderr": ""
}`

func TestParseReconReportValid(t *testing.T) {
	r, err := ParseReconReport([]byte(validReconJSON))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/products", r.URL)
	assert.Len(t, r.Pages, 1)
}

func TestParseReconReportRecoversFromCodeFence(t *testing.T) {
	wrapped := "Here's my analysis:\n```json\n" + validReconJSON + "\n```\nLet me know if you need anything else."
	r, err := ParseReconReport([]byte(wrapped))
	require.NoError(t, err)
	assert.Equal(t, "Example Store", r.SiteName)
}

func TestParseReconReportRecoversFromSurroundingProse(t *testing.T) {
	wrapped := "Sure, here is the report: " + validReconJSON + " Hope that helps!"
	r, err := ParseReconReport([]byte(wrapped))
	require.NoError(t, err)
	assert.Equal(t, "listing", string(r.SuggestedStrategy))
}

func TestParseReconReportRejectsMissingRequired(t *testing.T) {
	_, err := ParseReconReport([]byte(`{"url": "https://x.com"}`))
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestParseReconReportRejectsGarbage(t *testing.T) {
	_, err := ParseReconReport([]byte("not json at all"))
	assert.Error(t, err)
}

func TestParseTestReportValid(t *testing.T) {
	r, err := ParseTestReport([]byte(validTestReportJSON))
	require.NoError(t, err)
	assert.True(t, r.Success)
	assert.Equal(t, 5, r.RecordCount)
	assert.Equal(t, 5, r.FieldCoverage["title"])
}

func TestParseTestReportRecoversFromCodeFence(t *testing.T) {
	wrapped := "```json\n" + validTestReportJSON + "\n```"
	r, err := ParseTestReport([]byte(wrapped))
	require.NoError(t, err)
	assert.True(t, r.Success)
}

func TestParseTestReportRejectsWrongType(t *testing.T) {
	bad := `{"success": "yes", "exitCode": 0, "timedOut": false, "recordCount": 0, "schemaErrors": [], "sampleRecordsJson": "[]", "fieldCoverage": {}}`
	_, err := ParseTestReport([]byte(bad))
	assert.Error(t, err)
}
