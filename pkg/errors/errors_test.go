package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewInternalError("failed to query", stderrors.New("boom"))
	assert.Equal(t, "INTERNAL: failed to query: boom", err.Error())
	assert.Equal(t, "NOT_FOUND: missing", NewNotFoundError("missing").Error())
}

func TestTypeOf_WrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("search: %w", InvalidStartingLatLong())

	assert.Equal(t, ErrorTypeValidation, TypeOf(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeValidation))
	assert.True(t, HasCode(wrapped, CodeInvalidStartingLatLong))
	assert.Equal(t, ErrorTypeInternal, TypeOf(stderrors.New("plain")))
}

func TestLocalized(t *testing.T) {
	err := CheckinRestricted()

	assert.Equal(t, "Ya te has registrado hoy.", err.Localized("es-PR,en;q=0.8"))
	assert.Equal(t, "Ya te has registrado hoy.", err.Localized("es-pr"))
	assert.Equal(t, "You have already checked in today.", err.Localized("en-US"))
	assert.Equal(t, "You have already checked in today.", err.Localized(""))
}

func TestCatalogKinds(t *testing.T) {
	tests := []struct {
		err  *AppError
		kind ErrorType
	}{
		{LocationNotFound(), ErrorTypeNotFound},
		{ReviewNotFound(), ErrorTypeNotFound},
		{NearestLocationNotFound(), ErrorTypeNotFound},
		{InvalidCoordinates(), ErrorTypeValidation},
		{InvalidTimeRange(), ErrorTypeValidation},
		{LongLatRequired(), ErrorTypeValidation},
		{InvalidPage(), ErrorTypeValidation},
		{InvalidRadius(), ErrorTypeValidation},
		{MobileNumberRequired(), ErrorTypeValidation},
		{CheckinRestricted(), ErrorTypeConflict},
		{AddReviewSpam(), ErrorTypePolicyDenied},
		{OrganizationOffHoursDisabled(), ErrorTypePolicyDenied},
		{NotAssignedToLocation(), ErrorTypePolicyDenied},
		{TimezoneLookupFailed(stderrors.New("quota")), ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Type)
			assert.NotEmpty(t, tt.err.Code)
		})
	}
}
