package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/resistx/platform/pkg/faults"
)

// FeatureRecord is the canonical 13-field model input. Struct field order is
// the canonical column order, so marshalling is deterministic.
type FeatureRecord struct {
	CultureResult   int `json:"MGT Sputum Culture result"`
	AFBMicroscopy   int `json:"AFB Microscopy for sputum"`
	Age             int `json:"Age"`
	Gender          int `json:"Gender"`
	HeartRate       int `json:"Heart rate"`
	RespiratoryRate int `json:"Respiratory rate"`
	Weight          int `json:"Weight"`
	TBHistory       int `json:"History of TB disease prior enrollment"`
	Fever           int `json:"Fever"`
	WeightLoss      int `json:"Weight loss"`
	HIVStatus       int `json:"HIV status"`
	CD4             int `json:"cd4rslt"`
	HIVCD4Low       int `json:"HIV_CD4_Low"`
}

// Value returns the value stored under the exact field name.
func (r FeatureRecord) Value(name string) (int, bool) {
	f, ok := Lookup(name)
	if !ok {
		return 0, false
	}
	return *f.ref(&r), true
}

// Validate checks every field against its domain and the cross-field rules
// for cd4rslt and HIV_CD4_Low.
func (r FeatureRecord) Validate() error {
	for _, f := range fields {
		v := *f.ref(&r)
		if v < f.Min || v > f.Max {
			return faults.Validation(f.Name, "value %d outside [%d, %d]", v, f.Min, f.Max)
		}
	}
	if r.HIVStatus == 0 && r.CD4 != 0 {
		return faults.Validation(FieldCD4, "must be 0 when HIV status is negative, got %d", r.CD4)
	}
	if want := DeriveHIVCD4Low(r.HIVStatus, r.CD4); r.HIVCD4Low != want {
		return faults.Validation(FieldHIVCD4Low, "got %d, derived value is %d", r.HIVCD4Low, want)
	}
	return nil
}

// Vector lays the record out in the given column order.
func (r FeatureRecord) Vector(order []string) ([]float64, error) {
	out := make([]float64, len(order))
	for i, name := range order {
		v, ok := r.Value(name)
		if !ok {
			return nil, fmt.Errorf("unknown feature %q", name)
		}
		out[i] = float64(v)
	}
	return out, nil
}

// DecodeRecord parses a wire record. The body must be a JSON object holding
// exactly the schema's field names, each with an integer value.
func DecodeRecord(data []byte) (FeatureRecord, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return FeatureRecord{}, decodeFault("", "malformed feature record", err)
	}
	if raw == nil {
		return FeatureRecord{}, decodeFault("", "feature record must be a JSON object", nil)
	}
	for name := range raw {
		if _, ok := fieldIndex[name]; !ok {
			return FeatureRecord{}, decodeFault(name, "unknown field", nil)
		}
	}

	var rec FeatureRecord
	for _, f := range fields {
		msg, ok := raw[f.Name]
		if !ok {
			return FeatureRecord{}, decodeFault(f.Name, "missing required field", nil)
		}
		v, err := decodeInt(msg)
		if err != nil {
			return FeatureRecord{}, decodeFault(f.Name, "value must be an integer", err)
		}
		*f.ref(&rec) = v
	}
	return rec, nil
}

func decodeInt(msg json.RawMessage) (int, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("got %s", bytes.TrimSpace(msg))
	}
	return strconv.Atoi(n.String())
}

func decodeFault(field, message string, err error) *faults.Fault {
	return &faults.Fault{
		Kind:    faults.KindService,
		Field:   field,
		Status:  http.StatusBadRequest,
		Message: message,
		Err:     err,
	}
}
