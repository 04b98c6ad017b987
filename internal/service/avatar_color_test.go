package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickAvatarColorDeterministic(t *testing.T) {
	for _, email := range []string{"budi@example.com", "ani@example.com", "张伟@example.com"} {
		first := pickAvatarColor(email)
		assert.Equal(t, first, pickAvatarColor(email))
		assert.Contains(t, avatarColors, first)
	}
}

func TestPickAvatarColorEmptyString(t *testing.T) {
	assert.Equal(t, avatarColors[0], pickAvatarColor(""))
}

func TestPickAvatarColorKnownValue(t *testing.T) {
	// "test" 的 31 进制哈希为 3556498，恰好整除 11
	assert.Equal(t, avatarColors[0], pickAvatarColor("test"))
}

func TestAvatarInitial(t *testing.T) {
	assert.Equal(t, "B", avatarInitial("budi", "ani@example.com"))
	assert.Equal(t, "A", avatarInitial("", "ani@example.com"))
	assert.Equal(t, "A", avatarInitial("  ", "ani@example.com"))
	assert.Equal(t, "?", avatarInitial("", ""))
}
