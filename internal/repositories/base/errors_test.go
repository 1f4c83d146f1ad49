package base

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestHandleDBError(t *testing.T) {
	assert.NoError(t, HandleDBError("find", "saj_devices", "A1", nil))

	err := HandleDBError("find", "saj_devices", "device_sn=A1", gorm.ErrRecordNotFound)
	assert.True(t, IsEntityNotFound(err))
	assert.Equal(t, "saj_devices with device_sn=A1 not found", err.Error())

	err = HandleDBError("create", "saj_devices", "A1", errors.New("UNIQUE constraint failed: saj_devices.device_sn"))
	assert.True(t, IsDuplicateEntity(err))

	cause := errors.New("connection refused")
	err = HandleDBError("create", "saj_devices", "A1", cause)
	assert.True(t, IsRepositoryError(err))
	assert.ErrorIs(t, err, cause)
}

func TestWrapDBError(t *testing.T) {
	assert.NoError(t, WrapDBError("update", "saj_tokens", nil))

	err := fmt.Errorf("outer: %w", WrapDBError("update", "saj_tokens", errors.New("timeout")))
	assert.True(t, IsRepositoryError(err))
	assert.Contains(t, err.Error(), "failed to update saj_tokens: timeout")
}
