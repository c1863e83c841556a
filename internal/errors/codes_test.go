package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkflowError_Error(t *testing.T) {
	plain := InvalidPrompt("missing keyword")
	assert.Equal(t, "[INVALID_PROMPT] missing keyword", plain.Error())

	cause := stderrors.New("connection reset")
	wrapped := GenerationFailure("image generation error", cause)
	assert.Equal(t, "[GENERATION_FAILURE] image generation error: connection reset", wrapped.Error())
	assert.Equal(t, "image generation error: connection reset", wrapped.Detail())
	assert.True(t, stderrors.Is(wrapped, cause))
}

func TestIsCode(t *testing.T) {
	err := QuotaExhausted("no attempts left")
	assert.True(t, IsCode(err, CodeQuotaExhausted))
	assert.False(t, IsCode(err, CodeInvalidPrompt))
	assert.False(t, IsCode(stderrors.New("plain"), CodeQuotaExhausted))
	assert.False(t, IsCode(nil, CodeQuotaExhausted))
}

func TestIsCode_Wrapped(t *testing.T) {
	inner := Notification(CodeNotificationConnect, "could not connect", nil)
	outer := Wrap(inner, CodeNotificationConnect, "failed to send submission")
	assert.True(t, IsCode(outer, CodeNotificationConnect))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeSelectionOutOfRange, CodeOf(SelectionOutOfRange(5, 2), CodeNotificationGeneric))
	assert.Equal(t, CodeNotificationGeneric, CodeOf(stderrors.New("plain"), CodeNotificationGeneric))
}

func TestSelectionOutOfRange_Message(t *testing.T) {
	err := SelectionOutOfRange(-1, 3)
	assert.Contains(t, err.Error(), "-1")
	assert.Contains(t, err.Error(), "3")
}
