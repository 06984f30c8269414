package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewDataError(4, "urgency", "unknown triage level \"T9\"")
	assert.Equal(t, "DATA: row 4: unknown triage level \"T9\"", err.Error())

	wrapped := NewExternalError("geocoding failed", fmt.Errorf("timeout"))
	assert.Equal(t, "EXTERNAL: geocoding failed: timeout", wrapped.Error())
}

func TestTypeOf(t *testing.T) {
	base := NewResourceUnavailableError("embedding model", nil)
	chained := fmt.Errorf("build table: %w", base)

	assert.Equal(t, ErrorTypeResourceUnavailable, TypeOf(chained))
	assert.True(t, IsType(chained, ErrorTypeResourceUnavailable))
	assert.False(t, IsType(chained, ErrorTypeData))
	assert.Equal(t, ErrorTypeInternal, TypeOf(fmt.Errorf("plain")))
}
