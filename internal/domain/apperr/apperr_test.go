package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryKindAndReason(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		kind   Kind
		reason string
	}{
		{"not found", NotFound("poNotFound", "po %s missing", "po-1"), KindNotFound, "poNotFound"},
		{"conflict", Conflict("alreadyVerified", "nope"), KindConflict, "alreadyVerified"},
		{"bad request", BadRequest("quantityInvalid", "bad"), KindBadRequest, "quantityInvalid"},
		{"unauthorized", Unauthorized("principalMissing", "no caller"), KindUnauthorized, "principalMissing"},
		{"forbidden", Forbidden("insufficientRole", "denied"), KindForbidden, "insufficientRole"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.reason, tt.err.Reason)
			assert.True(t, IsKind(tt.err, tt.kind))
			assert.True(t, IsReason(tt.err, tt.reason))
		})
	}
}

func TestDependencyFailureWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := DependencyFailure("warehouseNotifyFailed", cause, "notify failed for %s", "rel-1")

	assert.Equal(t, KindDependencyFailure, err.Kind)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "warehouseNotifyFailed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestInternalHidesReasonDetail(t *testing.T) {
	err := Internal(errors.New("mongo: network error"))
	assert.Equal(t, KindInternal, err.Kind)
	assert.Equal(t, "internalError", err.Reason)
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Empty(t, ReasonOf(errors.New("plain")))
}

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	inner := Conflict("qcSampleAlreadyTesting", "repeat")
	wrapped := fmt.Errorf("calling sample service: %w", inner)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, IsReason(wrapped, "qcSampleAlreadyTesting"))
}

func TestFromPartsRebuildsWireError(t *testing.T) {
	err := FromParts(KindConflict, "goodsReceiptAlreadyVerified", "already verified")
	require.NotNil(t, err)
	assert.Equal(t, KindConflict, err.Kind)
	assert.Equal(t, "goodsReceiptAlreadyVerified", err.Reason)

	blank := FromParts("", "", "")
	assert.Equal(t, KindInternal, blank.Kind)
	assert.Equal(t, "internalError", blank.Reason)
}

func TestWithCauseKeepsIdentity(t *testing.T) {
	base := Conflict("purchaseOrderAlreadyReceived", "repeat")
	cause := errors.New("guard miss")
	withCause := base.WithCause(cause)

	assert.True(t, IsReason(withCause, "purchaseOrderAlreadyReceived"))
	assert.ErrorIs(t, withCause, cause)
	assert.Nil(t, errors.Unwrap(base))
}
