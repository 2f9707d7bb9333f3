package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type ping struct {
	Seq int `json:"seq"`
}

func TestUnmarshalAndHandle(t *testing.T) {
	var got []int
	handle := func(p ping) { got = append(got, p.Seq) }

	assert.True(t, UnmarshalAndHandle(zap.NewNop(), []byte(`{"seq":1}`), handle))
	assert.False(t, UnmarshalAndHandle(zap.NewNop(), []byte(`{"seq":`), handle))
	assert.False(t, UnmarshalAndHandle(zap.NewNop(), []byte(`{"seq":"uno"}`), handle))

	assert.Equal(t, []int{1}, got)
}
