// Package encoder turns operator selections into a feature record.
package encoder

import (
	"errors"
	"strconv"
	"strings"

	"github.com/resistx/platform/pkg/faults"
	"github.com/resistx/platform/pkg/schema"
)

// Observations are the raw operator selections for one patient. Categorical
// values are the labels shown on the form; the rest are bounded integers.
type Observations struct {
	CultureResult   string `json:"culture_result"`
	AFBMicroscopy   string `json:"afb_microscopy"`
	Age             int    `json:"age"`
	Gender          string `json:"gender"`
	HeartRate       int    `json:"heart_rate"`
	RespiratoryRate int    `json:"resp_rate"`
	Weight          int    `json:"weight"`
	TBHistory       string `json:"tb_history"`
	Fever           string `json:"fever"`
	WeightLoss      string `json:"weight_loss"`
	HIVStatus       string `json:"hiv_status"`
	CD4             int    `json:"cd4rslt"`
}

// DefaultObservations are the initial values of the input form.
func DefaultObservations() Observations {
	return Observations{
		CultureResult:   schema.LabelNegative,
		AFBMicroscopy:   schema.LabelNegative,
		Age:             30,
		Gender:          schema.LabelFemale,
		HeartRate:       80,
		RespiratoryRate: 20,
		Weight:          60,
		TBHistory:       schema.LabelNo,
		Fever:           schema.LabelNo,
		WeightLoss:      schema.LabelNo,
		HIVStatus:       schema.LabelNegative,
		CD4:             400,
	}
}

// HIVPositive reports whether the HIV status label is Positive.
func (o Observations) HIVPositive() bool {
	return o.HIVStatus == schema.LabelPositive
}

// Encode builds a fully populated record or returns an encoding fault naming
// the first offending field. A CD4 count captured while HIV status is
// Negative is discarded.
func Encode(obs Observations) (schema.FeatureRecord, error) {
	var rec schema.FeatureRecord
	e := &encoding{}

	rec.CultureResult = e.label(schema.FieldCultureResult, obs.CultureResult)
	rec.AFBMicroscopy = e.label(schema.FieldAFBMicroscopy, obs.AFBMicroscopy)
	rec.Age = e.bounded(schema.FieldAge, obs.Age)
	rec.Gender = e.label(schema.FieldGender, obs.Gender)
	rec.HeartRate = e.bounded(schema.FieldHeartRate, obs.HeartRate)
	rec.RespiratoryRate = e.bounded(schema.FieldRespiratoryRate, obs.RespiratoryRate)
	rec.Weight = e.bounded(schema.FieldWeight, obs.Weight)
	rec.TBHistory = e.label(schema.FieldTBHistory, obs.TBHistory)
	rec.Fever = e.label(schema.FieldFever, obs.Fever)
	rec.WeightLoss = e.label(schema.FieldWeightLoss, obs.WeightLoss)
	rec.HIVStatus = e.label(schema.FieldHIVStatus, obs.HIVStatus)
	if rec.HIVStatus == 1 {
		rec.CD4 = e.bounded(schema.FieldCD4, obs.CD4)
	}
	if e.err != nil {
		return schema.FeatureRecord{}, e.err
	}
	rec.HIVCD4Low = schema.DeriveHIVCD4Low(rec.HIVStatus, rec.CD4)

	if err := rec.Validate(); err != nil {
		var f *faults.Fault
		if errors.As(err, &f) {
			return schema.FeatureRecord{}, &faults.Fault{Kind: faults.KindEncoding, Field: f.Field, Message: f.Message, Err: err}
		}
		return schema.FeatureRecord{}, err
	}
	return rec, nil
}

// encoding keeps the first fault so Encode reads as a flat field list.
type encoding struct {
	err error
}

func (e *encoding) label(name, label string) int {
	if e.err != nil {
		return 0
	}
	f, _ := schema.Lookup(name)
	code, ok := f.Code(label)
	if !ok {
		e.err = faults.Encoding(name, "label %q not one of %s", label, strings.Join(f.Labels, ", "))
	}
	return code
}

func (e *encoding) bounded(name string, v int) int {
	if e.err != nil {
		return 0
	}
	f, _ := schema.Lookup(name)
	if v < f.Min || v > f.Max {
		e.err = faults.Encoding(name, "value %d outside [%d, %d]", v, f.Min, f.Max)
	}
	return v
}

// ObservationsFromForm reads observations keyed by schema field name, as a
// form or command line submits them. cd4rslt may be omitted when HIV status
// is Negative. HIV_CD4_Low is derived and may not be supplied.
func ObservationsFromForm(values map[string]string) (Observations, error) {
	for name := range values {
		if name == schema.FieldHIVCD4Low {
			return Observations{}, faults.Encoding(name, "derived field cannot be supplied")
		}
		if _, ok := schema.Lookup(name); !ok {
			return Observations{}, faults.Encoding(name, "unknown field")
		}
	}

	r := formReader{values: values}
	obs := Observations{
		CultureResult:   r.text(schema.FieldCultureResult),
		AFBMicroscopy:   r.text(schema.FieldAFBMicroscopy),
		Age:             r.number(schema.FieldAge),
		Gender:          r.text(schema.FieldGender),
		HeartRate:       r.number(schema.FieldHeartRate),
		RespiratoryRate: r.number(schema.FieldRespiratoryRate),
		Weight:          r.number(schema.FieldWeight),
		TBHistory:       r.text(schema.FieldTBHistory),
		Fever:           r.text(schema.FieldFever),
		WeightLoss:      r.text(schema.FieldWeightLoss),
		HIVStatus:       r.text(schema.FieldHIVStatus),
	}
	if _, ok := values[schema.FieldCD4]; ok || obs.HIVPositive() {
		obs.CD4 = r.number(schema.FieldCD4)
	}
	if r.err != nil {
		return Observations{}, r.err
	}
	return obs, nil
}

type formReader struct {
	values map[string]string
	err    error
}

func (r *formReader) text(name string) string {
	if r.err != nil {
		return ""
	}
	v, ok := r.values[name]
	if !ok {
		r.err = faults.Encoding(name, "missing required field")
	}
	return v
}

func (r *formReader) number(name string) int {
	v := r.text(name)
	if r.err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.err = &faults.Fault{Kind: faults.KindEncoding, Field: name, Message: "value must be an integer", Err: err}
	}
	return n
}
