package corpus

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestHealthChecker(t *testing.T) {
	s := NewStore()
	hc := NewHealthChecker(s, 2, zerolog.Nop())

	hc.check()
	assert.False(t, hc.IsHealthy(), "not ready before first install")

	s.Install(NewSnapshot(nil, s.NextVersion(), time.Now()))
	hc.check()
	assert.True(t, hc.IsHealthy())

	s.RecordFailure(errors.New("x"))
	hc.check()
	assert.True(t, hc.IsHealthy(), "one failure is tolerated")

	s.RecordFailure(errors.New("x"))
	hc.check()
	assert.False(t, hc.IsHealthy())

	s.Install(NewSnapshot(nil, s.NextVersion(), time.Now()))
	hc.check()
	assert.True(t, hc.IsHealthy())
}
