package faults

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfThroughWrapping(t *testing.T) {
	base := Encoding("Gender", "label %q not accepted", "Yes")
	wrapped := fmt.Errorf("encode observations: %w", base)

	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindEncoding, kind)
	assert.True(t, Is(wrapped, KindEncoding))
	assert.False(t, Is(wrapped, KindTransport))

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestFaultError(t *testing.T) {
	cause := errors.New("connection refused")
	f := Transport("POST /predict", cause)

	assert.Equal(t, "transport fault: POST /predict: connection refused", f.Error())
	assert.ErrorIs(t, f, cause)

	v := Validation("Age", "value %d outside [%d, %d]", 130, 0, 120)
	assert.Equal(t, "validation fault: Age: value 130 outside [0, 120]", v.Error())

	s := Service(http.StatusInternalServerError, "inference failed", nil)
	assert.Equal(t, http.StatusInternalServerError, s.Status)
	assert.Equal(t, KindService, s.Kind)
}

func TestKindNames(t *testing.T) {
	for _, k := range []Kind{KindEncoding, KindTransport, KindService, KindValidation} {
		assert.Equal(t, k, ParseKind(k.String()))
		assert.NotEqual(t, "Unexpected error", k.Describe())
	}
	assert.Equal(t, KindService, ParseKind("bogus"))
	assert.Equal(t, "unknown", Kind(0).String())
}
