package encoder

import (
	"encoding/json"
	"testing"

	"github.com/resistx/platform/pkg/faults"
	"github.com/resistx/platform/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioA is the reference patient: culture positive, HIV negative.
func scenarioA() Observations {
	return Observations{
		CultureResult:   "Positive",
		AFBMicroscopy:   "Negative",
		Age:             45,
		Gender:          "Male",
		HeartRate:       90,
		RespiratoryRate: 22,
		Weight:          65,
		TBHistory:       "No",
		Fever:           "Yes",
		WeightLoss:      "No",
		HIVStatus:       "Negative",
		CD4:             0,
	}
}

func TestEncodeScenarioA(t *testing.T) {
	rec, err := Encode(scenarioA())
	require.NoError(t, err)

	assert.Equal(t, schema.FeatureRecord{
		CultureResult:   1,
		AFBMicroscopy:   0,
		Age:             45,
		Gender:          1,
		HeartRate:       90,
		RespiratoryRate: 22,
		Weight:          65,
		TBHistory:       0,
		Fever:           1,
		WeightLoss:      0,
		HIVStatus:       0,
		CD4:             0,
		HIVCD4Low:       0,
	}, rec)
}

func TestEncodeHIVScenarios(t *testing.T) {
	tests := []struct {
		name    string
		hiv     string
		cd4     int
		wantCD4 int
		wantLow int
	}{
		{"B positive low cd4", "Positive", 150, 150, 1},
		{"C positive normal cd4", "Positive", 250, 250, 0},
		{"positive at threshold", "Positive", 200, 200, 0},
		{"positive zero cd4", "Positive", 0, 0, 1},
		{"negative discards stray cd4", "Negative", 150, 0, 0},
		{"negative discards out of range cd4", "Negative", 9000, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := scenarioA()
			obs.HIVStatus = tt.hiv
			obs.CD4 = tt.cd4

			rec, err := Encode(obs)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCD4, rec.CD4)
			assert.Equal(t, tt.wantLow, rec.HIVCD4Low)
			assert.NoError(t, rec.Validate())
		})
	}
}

func TestEncodeRejectsOutOfDomain(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Observations)
		field  string
	}{
		{"gender given yes", func(o *Observations) { o.Gender = "Yes" }, schema.FieldGender},
		{"fever given male", func(o *Observations) { o.Fever = "Male" }, schema.FieldFever},
		{"tb history given positive", func(o *Observations) { o.TBHistory = "Positive" }, schema.FieldTBHistory},
		{"culture lower case", func(o *Observations) { o.CultureResult = "positive" }, schema.FieldCultureResult},
		{"empty afb", func(o *Observations) { o.AFBMicroscopy = "" }, schema.FieldAFBMicroscopy},
		{"unknown hiv", func(o *Observations) { o.HIVStatus = "Unknown" }, schema.FieldHIVStatus},
		{"age over range", func(o *Observations) { o.Age = 121 }, schema.FieldAge},
		{"weight under range", func(o *Observations) { o.Weight = 19 }, schema.FieldWeight},
		{"resp rate over range", func(o *Observations) { o.RespiratoryRate = 61 }, schema.FieldRespiratoryRate},
		{"heart rate under range", func(o *Observations) { o.HeartRate = 29 }, schema.FieldHeartRate},
		{"cd4 over range when positive", func(o *Observations) { o.HIVStatus, o.CD4 = "Positive", 1501 }, schema.FieldCD4},
		{"cd4 negative when positive", func(o *Observations) { o.HIVStatus, o.CD4 = "Positive", -1 }, schema.FieldCD4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := scenarioA()
			tt.mutate(&obs)

			rec, err := Encode(obs)
			require.Error(t, err)
			assert.Equal(t, schema.FeatureRecord{}, rec, "no partial record is produced")

			var f *faults.Fault
			require.ErrorAs(t, err, &f)
			assert.Equal(t, faults.KindEncoding, f.Kind)
			assert.Equal(t, tt.field, f.Field)
		})
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	first, err := Encode(scenarioA())
	require.NoError(t, err)
	second, err := Encode(scenarioA())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncodeBoundaryValues(t *testing.T) {
	for _, f := range schema.Fields() {
		if f.Kind != schema.KindInteger || f.Name == schema.FieldCD4 {
			continue
		}
		for _, v := range []int{f.Min, f.Max} {
			obs := scenarioA()
			switch f.Name {
			case schema.FieldAge:
				obs.Age = v
			case schema.FieldHeartRate:
				obs.HeartRate = v
			case schema.FieldRespiratoryRate:
				obs.RespiratoryRate = v
			case schema.FieldWeight:
				obs.Weight = v
			}
			rec, err := Encode(obs)
			require.NoError(t, err, "%s=%d", f.Name, v)
			got, _ := rec.Value(f.Name)
			assert.Equal(t, v, got)
		}
	}
}

func TestDefaultObservationsEncode(t *testing.T) {
	rec, err := Encode(DefaultObservations())
	require.NoError(t, err)
	assert.Equal(t, 0, rec.CD4, "default CD4 is ignored while HIV is negative")
	assert.Equal(t, 0, rec.Gender)
}

func formValues() map[string]string {
	return map[string]string{
		schema.FieldCultureResult:   "Positive",
		schema.FieldAFBMicroscopy:   "Negative",
		schema.FieldAge:             "45",
		schema.FieldGender:          "Male",
		schema.FieldHeartRate:       "90",
		schema.FieldRespiratoryRate: "22",
		schema.FieldWeight:          " 65 ",
		schema.FieldTBHistory:       "No",
		schema.FieldFever:           "Yes",
		schema.FieldWeightLoss:      "No",
		schema.FieldHIVStatus:       "Negative",
	}
}

func TestObservationsFromForm(t *testing.T) {
	obs, err := ObservationsFromForm(formValues())
	require.NoError(t, err)
	assert.Equal(t, scenarioA(), obs)

	values := formValues()
	values[schema.FieldHIVStatus] = "Positive"
	values[schema.FieldCD4] = "150"
	obs, err = ObservationsFromForm(values)
	require.NoError(t, err)
	assert.Equal(t, 150, obs.CD4)
}

func TestObservationsFromFormRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
		field  string
	}{
		{"missing weight", func(v map[string]string) { delete(v, schema.FieldWeight) }, schema.FieldWeight},
		{"non numeric age", func(v map[string]string) { v[schema.FieldAge] = "forty" }, schema.FieldAge},
		{"derived supplied", func(v map[string]string) { v[schema.FieldHIVCD4Low] = "1" }, schema.FieldHIVCD4Low},
		{"unknown field", func(v map[string]string) { v["Cough"] = "Yes" }, "Cough"},
		{"positive without cd4", func(v map[string]string) { v[schema.FieldHIVStatus] = "Positive" }, schema.FieldCD4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := formValues()
			tt.mutate(values)
			_, err := ObservationsFromForm(values)
			var f *faults.Fault
			require.ErrorAs(t, err, &f)
			assert.Equal(t, faults.KindEncoding, f.Kind)
			assert.Equal(t, tt.field, f.Field)
		})
	}
}
