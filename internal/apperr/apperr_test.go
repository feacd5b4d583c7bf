package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(KindNotFound, "order not found")
	assert.Equal(t, KindNotFound, KindOf(err))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, KindNotFound, KindOf(wrapped))

	assert.Equal(t, KindStorageUnavailable, KindOf(errors.New("boom")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindStorageUnavailable, "failed to fetch order", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to fetch order")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(KindNotFound, "x")))
	assert.True(t, IsNotFound(New(KindProductsNotFound, "x")))
	assert.True(t, IsNotFound(New(KindStoreNotFound, "x")))
	assert.True(t, IsNotFound(New(KindUserNotFound, "x")))
	assert.False(t, IsNotFound(New(KindInvalidRequest, "x")))
	assert.False(t, IsNotFound(New(KindDuplicateOrderID, "x")))
}
