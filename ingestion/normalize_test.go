package ingestion

import (
	"strings"
	"testing"

	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		def      float64
		expected float64
	}{
		{name: "plain number", input: "4.5", expected: 4.5},
		{name: "surrounding space", input: "  26.9 ", expected: 26.9},
		{name: "negative", input: "-75.8", expected: -75.8},
		{name: "empty", input: "", def: 1, expected: 1},
		{name: "garbage", input: "four", def: 2, expected: 2},
		{name: "nan", input: "NaN", expected: 0},
		{name: "infinity", input: "Inf", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SafeFloat(tt.input, tt.def))
		})
	}
}

func TestNormalizeRow_Full(t *testing.T) {
	row := source.Row{
		source.ColumnHospitalName: " Apollo ",
		source.ColumnAddress:      "1 MI Road",
		source.ColumnCity:         "Jaipur",
		source.ColumnLatitude:     "26.9",
		source.ColumnLongitude:    "75.8",
		source.ColumnSpecialties:  "cardiology| neurology |",
		source.ColumnInsurers:     "StarHealth",
		source.ColumnRating:       "4.5",
		source.ColumnPhone:        "0141-000",
		source.ColumnWebsite:      "https://apollo.example",
	}

	doc := NormalizeRow(row)
	require.NotNil(t, doc)

	assert.Equal(t,
		"Apollo in Jaipur offers services in cardiology, neurology and accepts StarHealth. Address: 1 MI Road.\nTAGS: cardiology, neurology",
		doc.Content)

	assert.Equal(t, map[string]any{
		core.FieldHospitalName: "Apollo",
		core.FieldAddress:      "1 MI Road",
		core.FieldCity:         "Jaipur",
		core.FieldLat:          26.9,
		core.FieldLon:          75.8,
		core.FieldSpecialties:  "cardiology|neurology",
		core.FieldInsurers:     "StarHealth",
		core.FieldRating:       4.5,
		core.FieldPhone:        "0141-000",
		core.FieldWebsite:      "https://apollo.example",
	}, doc.Metadata)

	expected := core.HospitalRecord{Name: "Apollo", City: "Jaipur", Address: "1 MI Road"}
	assert.Equal(t, expected.Key(), doc.ID)
	assert.NoError(t, core.ValidateDocument(doc))
}

// Empty latitude and rating fall back to zero without failing.
func TestNormalizeRow_EmptyNumbers(t *testing.T) {
	doc := NormalizeRow(source.Row{
		source.ColumnHospitalName: "Fortis",
		source.ColumnCity:         "Delhi",
		source.ColumnLatitude:     "",
		source.ColumnRating:       "",
	})

	assert.Equal(t, 0.0, doc.Metadata[core.FieldLat])
	assert.Equal(t, 0.0, doc.Metadata[core.FieldRating])
	assert.Equal(t, 0.0, doc.Metadata[core.FieldLon])
}

func TestNormalizeRow_Defaults(t *testing.T) {
	doc := NormalizeRow(source.Row{})

	assert.Equal(t, " in  offers services in general care and accepts various insurers. Address: .", doc.Content)
	assert.False(t, strings.Contains(doc.Content, "TAGS"))
	assert.Equal(t, "", doc.Metadata[core.FieldSpecialties])
	assert.Equal(t, "", doc.Metadata[core.FieldHospitalName])
	assert.Len(t, doc.Metadata, 10)
}

func TestNormalizeRow_MalformedNumbers(t *testing.T) {
	row := source.Row{
		source.ColumnHospitalName: "Max",
		source.ColumnLatitude:     "north",
		source.ColumnRating:       "4,5",
		source.ColumnLongitude:    "77.2",
	}

	doc := NormalizeRow(row)
	assert.Equal(t, 0.0, doc.Metadata[core.FieldLat])
	assert.Equal(t, 0.0, doc.Metadata[core.FieldRating])
	assert.Equal(t, 77.2, doc.Metadata[core.FieldLon])

	problems := rowProblems(row)
	require.Len(t, problems, 2)
	for _, err := range problems {
		assert.ErrorIs(t, err, core.ErrInvalidRecord)
	}
}

func TestNormalizeRow_MetadataIsStable(t *testing.T) {
	doc := NormalizeRow(source.Row{
		source.ColumnHospitalName: "Apollo",
		source.ColumnSpecialties:  "cardiology|neurology",
	})
	assert.Equal(t, doc.Metadata, core.NormalizeMetadata(doc.Metadata))
}

func TestContent_NoInsurers(t *testing.T) {
	r := core.HospitalRecord{Name: "Rainbow", City: "Delhi", Address: "3 Park St", Specialties: []string{"pediatrics"}}
	assert.Equal(t,
		"Rainbow in Delhi offers services in pediatrics and accepts various insurers. Address: 3 Park St.\nTAGS: pediatrics",
		Content(r))
}
