package aigateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcdasilva/passtheplate/internal/pkg/aigateway"
)

var describeShape = aigateway.Shape{
	{Name: "title", Kind: aigateway.String},
	{Name: "description", Kind: aigateway.String},
	{Name: "category", Kind: aigateway.String},
	{Name: "expiry_date", Kind: aigateway.Date},
	{Name: "estimated_value", Kind: aigateway.Number},
}

var moderationShape = aigateway.Shape{
	{Name: "isAcceptable", Kind: aigateway.Bool, Default: true},
	{Name: "reason", Kind: aigateway.String},
}

func TestParseStructured_FencedJSON(t *testing.T) {
	raw := "```json\n{\"title\":\"Bread\",\"description\":\"Fresh loaf\",\"category\":\"Food\",\"expiry_date\":\"2025-01-03\",\"estimated_value\":4}\n```"

	got, strict := aigateway.ParseStructured(raw, describeShape)
	assert.True(t, strict)
	assert.Equal(t, "Bread", got["title"])
	assert.Equal(t, "Food", got["category"])
	assert.Equal(t, "2025-01-03", got["expiry_date"])
	assert.Equal(t, 4.0, got["estimated_value"])
}

func TestParseStructured_MissingFieldsTakeDefaults(t *testing.T) {
	got, strict := aigateway.ParseStructured(`{"title":"Sofa"}`, describeShape)

	assert.True(t, strict)
	assert.Equal(t, map[string]any{
		"title":           "Sofa",
		"description":     "",
		"category":        "",
		"expiry_date":     nil,
		"estimated_value": 0.0,
	}, got)
}

func TestParseStructured_RegexFallback(t *testing.T) {
	got, strict := aigateway.ParseStructured(`The value is "estimated_value": 25 dollars`, describeShape)

	assert.False(t, strict)
	assert.Equal(t, 25.0, got["estimated_value"])
	assert.Equal(t, "", got["title"])
	assert.Nil(t, got["expiry_date"])
}

func TestParseStructured_FallbackExtractsEveryKind(t *testing.T) {
	raw := `broken { "title": "Winter \"coat\"", "expiry_date": "2024-12-25", "estimated_value": "$40.5", trailing`

	got, strict := aigateway.ParseStructured(raw, describeShape)
	assert.False(t, strict)
	assert.Equal(t, `Winter "coat"`, got["title"])
	assert.Equal(t, "2024-12-25", got["expiry_date"])
	assert.Equal(t, 40.5, got["estimated_value"])
}

func TestParseStructured_CoercesWrongTypes(t *testing.T) {
	got, _ := aigateway.ParseStructured(`{"title":12,"estimated_value":"30"}`, describeShape)
	assert.Equal(t, "12", got["title"])
	assert.Equal(t, 30.0, got["estimated_value"])

	got, _ = aigateway.ParseStructured(`{"estimated_value":"priceless","expiry_date":"next week"}`, describeShape)
	assert.Equal(t, 0.0, got["estimated_value"])
	assert.Nil(t, got["expiry_date"])
}

func TestParseStructured_ProseAroundObject(t *testing.T) {
	got, strict := aigateway.ParseStructured("Sure! Here it is: {\"isAcceptable\": false, \"reason\": \"spam\"} Thanks.", moderationShape)

	assert.True(t, strict)
	assert.Equal(t, false, got["isAcceptable"])
	assert.Equal(t, "spam", got["reason"])
}

func TestParseStructured_ModerationDefaultsToAcceptable(t *testing.T) {
	got, _ := aigateway.ParseStructured(`{"reason":""}`, moderationShape)
	assert.Equal(t, true, got["isAcceptable"])

	got, _ = aigateway.ParseStructured(`{"isAcceptable":"FALSE","reason":"troll"}`, moderationShape)
	assert.Equal(t, false, got["isAcceptable"])

	got, strict := aigateway.ParseStructured(`not json at all`, moderationShape)
	assert.False(t, strict)
	assert.Equal(t, true, got["isAcceptable"])
	assert.Equal(t, "", got["reason"])
}

func TestDecode_IntoStruct(t *testing.T) {
	var out struct {
		Title          string  `json:"title"`
		ExpiryDate     *string `json:"expiry_date"`
		EstimatedValue float64 `json:"estimated_value"`
	}

	strict, err := aigateway.Decode(`{"title":"Chair","estimated_value":15}`, describeShape, &out)
	require.NoError(t, err)
	assert.True(t, strict)
	assert.Equal(t, "Chair", out.Title)
	assert.Nil(t, out.ExpiryDate)
	assert.Equal(t, 15.0, out.EstimatedValue)
}

func TestDecode_NonFiniteNumbersBecomeZero(t *testing.T) {
	for _, raw := range []string{
		`{"estimated_value":"NaN"}`,
		`{"estimated_value":"inf"}`,
		`{"estimated_value":"-Infinity"}`,
	} {
		var out struct {
			EstimatedValue float64 `json:"estimated_value"`
		}
		strict, err := aigateway.Decode(raw, describeShape, &out)
		require.NoError(t, err, raw)
		assert.True(t, strict, raw)
		assert.Equal(t, 0.0, out.EstimatedValue, raw)
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Philadelphia, Pennsylvania, USA", aigateway.CleanText("  \"Philadelphia, Pennsylvania, USA\"\n"))
	assert.Equal(t, "Tokyo, Japan", aigateway.CleanText("```\nTokyo, Japan\n```"))
	assert.Equal(t, "Paris, France", aigateway.CleanText("'Paris, France'"))
}
