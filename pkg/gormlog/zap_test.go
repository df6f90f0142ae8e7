package gormlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortCaller(t *testing.T) {
	assert.Equal(t, "internal/platform/db/postgres.go:38", shortCaller("/home/ci/checkout/internal/platform/db/postgres.go:38"))
	assert.Equal(t, "b/c/d.go:1", shortCaller("/a/b/c/d.go:1"))
	assert.Equal(t, "", shortCaller(""))
}
