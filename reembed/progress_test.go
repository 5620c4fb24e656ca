package reembed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock advances one second per reading.
func fakeClock() func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestProgress_Basic(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 100, 10)
	p.now = fakeClock()

	p.Start()
	p.Add(25)
	p.Add(25)
	p.Add(50)

	assert.Equal(t, 100, p.Done())
	assert.Greater(t, p.Elapsed(), time.Duration(0))

	output := buf.String()
	assert.Contains(t, output, "100/100 documents")
	assert.Contains(t, output, "100.0%")
}

func TestProgress_Interval(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 1000, 100)
	p.now = fakeClock()

	p.Start()
	p.Add(50)
	assert.Empty(t, buf.String(), "below the interval nothing is reported")

	p.Add(60)
	assert.Equal(t, 1, strings.Count(buf.String(), "Re-embedded"))
	assert.Contains(t, buf.String(), "110/1000")
}

func TestProgress_Finish(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 100, 10)
	p.now = fakeClock()

	p.Start()
	p.Add(75)
	p.Finish()

	output := buf.String()
	assert.Contains(t, output, "75/100")
	assert.True(t, strings.HasSuffix(output, "\n"), "finish should print newline")
}

func TestProgress_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 0, 10)

	p.Start()
	p.Finish()

	assert.Contains(t, buf.String(), "0/0")
}

func TestProgress_AddBeyondTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 100, 10)

	p.Start()
	p.Add(150)

	assert.Equal(t, 100, p.Done())
	assert.Contains(t, buf.String(), "100/100")
}

func TestProgress_NilWriter(t *testing.T) {
	p := NewProgress(nil, 10, 0)
	p.Start()
	p.Add(10)
	p.Finish()
	assert.Equal(t, 10, p.Done())
}

func TestProgress_ElapsedBeforeStart(t *testing.T) {
	p := NewProgress(nil, 10, 1)
	assert.Equal(t, time.Duration(0), p.Elapsed())
}
