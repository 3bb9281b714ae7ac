// Package schema is the single definition of the DR-TB feature record shared
// by the encoder, the prediction service, the model artifact loader and the
// client. Field names, their order and the label-to-code tables live here and
// nowhere else.
package schema

import "fmt"

// Version identifies this schema revision. Artifacts and servers that report a
// different version are rejected.
const Version = "drtb-rif/v1"

const (
	FieldCultureResult   = "MGT Sputum Culture result"
	FieldAFBMicroscopy   = "AFB Microscopy for sputum"
	FieldAge             = "Age"
	FieldGender          = "Gender"
	FieldHeartRate       = "Heart rate"
	FieldRespiratoryRate = "Respiratory rate"
	FieldWeight          = "Weight"
	FieldTBHistory       = "History of TB disease prior enrollment"
	FieldFever           = "Fever"
	FieldWeightLoss      = "Weight loss"
	FieldHIVStatus       = "HIV status"
	FieldCD4             = "cd4rslt"
	FieldHIVCD4Low       = "HIV_CD4_Low"
)

// CD4LowThreshold is the exclusive upper bound for a low CD4 count.
const CD4LowThreshold = 200

const (
	LabelNo       = "No"
	LabelYes      = "Yes"
	LabelNegative = "Negative"
	LabelPositive = "Positive"
	LabelFemale   = "Female"
	LabelMale     = "Male"
)

// BinaryCodes maps yes/no and test result labels to their codes.
var BinaryCodes = map[string]int{
	LabelNo:       0,
	LabelYes:      1,
	LabelNegative: 0,
	LabelPositive: 1,
}

// GenderCodes is kept apart from BinaryCodes: both are binary, but a record
// encoded with the wrong table is silently wrong.
var GenderCodes = map[string]int{
	LabelFemale: 0,
	LabelMale:   1,
}

type FieldKind int

const (
	KindTestResult FieldKind = iota + 1
	KindYesNo
	KindGender
	KindInteger
	KindDerived
)

func (k FieldKind) String() string {
	switch k {
	case KindTestResult:
		return "test_result"
	case KindYesNo:
		return "yes_no"
	case KindGender:
		return "gender"
	case KindInteger:
		return "integer"
	case KindDerived:
		return "derived"
	default:
		return "unknown"
	}
}

func (k FieldKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *FieldKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "test_result":
		*k = KindTestResult
	case "yes_no":
		*k = KindYesNo
	case "gender":
		*k = KindGender
	case "integer":
		*k = KindInteger
	case "derived":
		*k = KindDerived
	default:
		return fmt.Errorf("unknown field kind %q", text)
	}
	return nil
}

// Field describes one column of the feature record.
type Field struct {
	Name string    `json:"name"`
	Kind FieldKind `json:"kind"`
	Min  int       `json:"min"`
	Max  int       `json:"max"`
	// Labels lists the accepted operator labels, indexed by code.
	Labels []string `json:"labels,omitempty"`

	ref func(*FeatureRecord) *int
}

// Code returns the numeric code for label, or false when label is not one of
// the field's accepted labels.
func (f Field) Code(label string) (int, bool) {
	if !f.accepts(label) {
		return 0, false
	}
	table := BinaryCodes
	if f.Kind == KindGender {
		table = GenderCodes
	}
	code, ok := table[label]
	return code, ok
}

// Label is the inverse of Code.
func (f Field) Label(code int) (string, bool) {
	if code < 0 || code >= len(f.Labels) {
		return "", false
	}
	return f.Labels[code], true
}

func (f Field) Categorical() bool {
	return len(f.Labels) > 0
}

func (f Field) accepts(label string) bool {
	for _, l := range f.Labels {
		if l == label {
			return true
		}
	}
	return false
}

var (
	resultLabels = []string{LabelNegative, LabelPositive}
	yesNoLabels  = []string{LabelNo, LabelYes}
	genderLabels = []string{LabelFemale, LabelMale}
)

var fields = []Field{
	{Name: FieldCultureResult, Kind: KindTestResult, Min: 0, Max: 1, Labels: resultLabels,
		ref: func(r *FeatureRecord) *int { return &r.CultureResult }},
	{Name: FieldAFBMicroscopy, Kind: KindTestResult, Min: 0, Max: 1, Labels: resultLabels,
		ref: func(r *FeatureRecord) *int { return &r.AFBMicroscopy }},
	{Name: FieldAge, Kind: KindInteger, Min: 0, Max: 120,
		ref: func(r *FeatureRecord) *int { return &r.Age }},
	{Name: FieldGender, Kind: KindGender, Min: 0, Max: 1, Labels: genderLabels,
		ref: func(r *FeatureRecord) *int { return &r.Gender }},
	{Name: FieldHeartRate, Kind: KindInteger, Min: 30, Max: 200,
		ref: func(r *FeatureRecord) *int { return &r.HeartRate }},
	{Name: FieldRespiratoryRate, Kind: KindInteger, Min: 5, Max: 60,
		ref: func(r *FeatureRecord) *int { return &r.RespiratoryRate }},
	{Name: FieldWeight, Kind: KindInteger, Min: 20, Max: 200,
		ref: func(r *FeatureRecord) *int { return &r.Weight }},
	{Name: FieldTBHistory, Kind: KindYesNo, Min: 0, Max: 1, Labels: yesNoLabels,
		ref: func(r *FeatureRecord) *int { return &r.TBHistory }},
	{Name: FieldFever, Kind: KindYesNo, Min: 0, Max: 1, Labels: yesNoLabels,
		ref: func(r *FeatureRecord) *int { return &r.Fever }},
	{Name: FieldWeightLoss, Kind: KindYesNo, Min: 0, Max: 1, Labels: yesNoLabels,
		ref: func(r *FeatureRecord) *int { return &r.WeightLoss }},
	{Name: FieldHIVStatus, Kind: KindTestResult, Min: 0, Max: 1, Labels: resultLabels,
		ref: func(r *FeatureRecord) *int { return &r.HIVStatus }},
	{Name: FieldCD4, Kind: KindInteger, Min: 0, Max: 1500,
		ref: func(r *FeatureRecord) *int { return &r.CD4 }},
	{Name: FieldHIVCD4Low, Kind: KindDerived, Min: 0, Max: 1,
		ref: func(r *FeatureRecord) *int { return &r.HIVCD4Low }},
}

var fieldIndex = func() map[string]int {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f.Name] = i
	}
	return idx
}()

// Fields returns the field definitions in canonical order. The slice is a copy.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// FieldNames returns the canonical column order.
func FieldNames() []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Lookup finds a field definition by its exact name.
func Lookup(name string) (Field, bool) {
	i, ok := fieldIndex[name]
	if !ok {
		return Field{}, false
	}
	return fields[i], true
}

// DeriveHIVCD4Low is 1 only for an HIV-positive patient with a CD4 count
// below CD4LowThreshold.
func DeriveHIVCD4Low(hivStatus, cd4 int) int {
	if hivStatus == 1 && cd4 < CD4LowThreshold {
		return 1
	}
	return 0
}
