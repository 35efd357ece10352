package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Config{Level: level, Output: &buf, ShowTime: false})
	return l, &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(WARN)

	l.Infof("hidden %d", 1)
	l.Warnf("shown %d", 2)
	l.Errorf("also shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "also shown")
	assert.Contains(t, out, "WARN")
}

func TestSetLevel(t *testing.T) {
	l, buf := newBufferLogger(INFO)
	l.Debugf("before")
	l.SetLevel(DEBUG)
	l.Debugf("after")

	out := buf.String()
	assert.NotContains(t, out, "before")
	assert.Contains(t, out, "after")
}

func TestPrefixAndOutputSwap(t *testing.T) {
	var first, second bytes.Buffer
	l := New(Config{Level: INFO, Prefix: "scenes", Output: &first})
	l.Info("one")
	l.SetOutput(&second)
	l.Info("two")

	assert.Contains(t, first.String(), "scenes")
	assert.Contains(t, first.String(), "one")
	assert.False(t, strings.Contains(first.String(), "two"))
	assert.Contains(t, second.String(), "two")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("Warning"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("nonsense"))
}

func TestNopImplementsLeveled(t *testing.T) {
	var l Leveled = Nop()
	l.Infof("discarded")
}
