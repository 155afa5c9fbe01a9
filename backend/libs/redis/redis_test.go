package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRedisClientRequiresAddr(t *testing.T) {
	_, err := NewRedisClient(context.Background(), Options{Addr: " "})
	assert.ErrorIs(t, err, ErrEmptyAddr)
}
