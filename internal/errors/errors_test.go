package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreError_Unwrap(t *testing.T) {
	err := NewStoreError("open", "/data/fund_crisis.db", ErrStoreUnavailable)
	wrapped := fmt.Errorf("loading: %w", err)

	assert.True(t, Is(wrapped, ErrStoreUnavailable))
	var se *StoreError
	assert.True(t, As(wrapped, &se))
	assert.Equal(t, "/data/fund_crisis.db", se.Path)
	assert.Contains(t, err.Error(), "open")
}

func TestDataError_Unwrap(t *testing.T) {
	err := NewDataError("fund_nav", "000001", "query failed", ErrTableMissing)
	assert.ErrorIs(t, err, ErrTableMissing)
	assert.Contains(t, err.Error(), "000001")
}

func TestValidationError_IsConfigInvalid(t *testing.T) {
	err := NewValidationError("data.db_path", "", "must not be empty")
	assert.ErrorIs(t, err, ErrConfigInvalid)
	assert.Contains(t, err.Error(), "data.db_path")
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ctx"))
	err := Wrapf(ErrMalformedRecord, "row %d", 3)
	assert.ErrorIs(t, err, ErrMalformedRecord)
	assert.Equal(t, "row 3: malformed record", err.Error())
}
