package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/carefind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTable = `hospital_name,address,city,latitude,longitude,specialties,insurers,rating,phone,website
Apollo,"1 MI Road, Jaipur",Jaipur,26.9,75.8,cardiology|neurology,StarHealth|ICICI,4.5,0141-000,https://apollo.example
Fortis,2 Ring Road,Delhi,,,oncology,,4.1,,
Rainbow,3 Park St, Delhi ,,,pediatrics| cardiology ,StarHealth,,,
`

func writeTable(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hospitals.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestReadFile(t *testing.T) {
	rows, err := ReadFile(writeTable(t, sampleTable), nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Apollo", rows[0].Get(ColumnHospitalName))
	assert.Equal(t, "1 MI Road, Jaipur", rows[0].Get(ColumnAddress))
	assert.Equal(t, "cardiology|neurology", rows[0].Get(ColumnSpecialties))
	assert.Equal(t, "", rows[1].Get(ColumnLatitude))
	assert.Equal(t, "Delhi ", rows[2].Get(ColumnCity))
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"), nil)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRead_ShortAndMissingColumns(t *testing.T) {
	rows, err := Read(strings.NewReader("hospital_name,city,extra\nApollo\nFortis,Delhi,x,y\n"), nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	_, ok := rows[0][ColumnCity]
	assert.False(t, ok)
	assert.Equal(t, "", rows[0].Get(ColumnRating))
	assert.Equal(t, "Delhi", rows[1].Get(ColumnCity))
	assert.Len(t, rows[1], 3)
}

func TestRead_BareQuoteInField(t *testing.T) {
	table := "hospital_name,address,city\n" +
		"Apollo,1 MI Road,Jaipur\n" +
		"Fortis \"Escorts\",2 JLN Marg,Jaipur\n" +
		"Rainbow,3 Park St,Delhi\n"

	rows, err := Read(strings.NewReader(table), nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Apollo", rows[0].Get(ColumnHospitalName))
	assert.Equal(t, `Fortis "Escorts"`, rows[1].Get(ColumnHospitalName))
	assert.Equal(t, "2 JLN Marg", rows[1].Get(ColumnAddress))
	assert.Equal(t, "Rainbow", rows[2].Get(ColumnHospitalName))
}

func TestRead_ByteOrderMark(t *testing.T) {
	rows, err := Read(strings.NewReader("\ufeffhospital_name,city\nApollo,Jaipur\n"), nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Apollo", rows[0].Get(ColumnHospitalName))
}

func TestRead_Empty(t *testing.T) {
	rows, err := Read(strings.NewReader(""), nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	rows, err = Read(strings.NewReader("hospital_name,city\n"), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFacetsFromRows(t *testing.T) {
	rows, err := Read(strings.NewReader(sampleTable), nil)
	require.NoError(t, err)

	facets := FacetsFromRows(rows)
	assert.Equal(t, []string{"Delhi", "Jaipur"}, facets.Cities)
	assert.Equal(t, []string{"cardiology", "neurology", "oncology", "pediatrics"}, facets.Specialties)
	assert.Equal(t, []string{"ICICI", "StarHealth"}, facets.Insurers)
}

func TestLoadFacets_MissingTable(t *testing.T) {
	facets := LoadFacets(filepath.Join(t.TempDir(), "nope.csv"), nil)
	assert.NotNil(t, facets.Cities)
	assert.Empty(t, facets.Cities)
	assert.Empty(t, facets.Specialties)
	assert.Empty(t, facets.Insurers)
}
