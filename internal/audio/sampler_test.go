package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// sineFrame builds a PCM16LE frame of n samples at the given amplitude (0–1).
func sineFrame(n int, amplitude float64) []byte {
	frame := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := amplitude * math.Sin(2*math.Pi*float64(i)/64)
		binary.LittleEndian.PutUint16(frame[2*i:], uint16(int16(v*math.MaxInt16)))
	}
	return frame
}

func TestSampler_InactiveIgnoresFrames(t *testing.T) {
	s := NewSampler()
	s.Push(sineFrame(1024, 0.8))

	assert.Equal(t, [LevelBuckets]float64{}, s.Levels())
	assert.Equal(t, [WaveformBuckets]float64{}, s.Waveform())
}

func TestSampler_ActiveProducesNormalizedProjections(t *testing.T) {
	s := NewSampler()
	s.SetActive(true)
	s.Push(sineFrame(1024, 0.8))

	levels := s.Levels()
	waveform := s.Waveform()

	var nonZero bool
	for _, v := range levels {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		if v > 0 {
			nonZero = true
		}
	}
	assert.True(t, nonZero, "loud frame should register on the level bars")

	nonZero = false
	for _, v := range waveform {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		if v > 0 {
			nonZero = true
		}
	}
	assert.True(t, nonZero, "loud frame should register on the waveform")
}

func TestSampler_LatestFrameWins(t *testing.T) {
	s := NewSampler()
	s.SetActive(true)

	s.Push(sineFrame(1024, 0.8))
	loud := s.Level()

	s.Push(sineFrame(1024, 0.0))
	quiet := s.Level()

	assert.Greater(t, loud, quiet)
	assert.Zero(t, quiet)
}

func TestSampler_DeactivateZeroes(t *testing.T) {
	s := NewSampler()
	s.SetActive(true)
	s.Push(sineFrame(1024, 0.8))
	assert.Greater(t, s.Level(), 0.0)

	s.SetActive(false)
	assert.Zero(t, s.Level())
	assert.Equal(t, [WaveformBuckets]float64{}, s.Waveform())
}

func TestSampler_EmptyFrameIsNoop(t *testing.T) {
	s := NewSampler()
	s.SetActive(true)
	s.Push(nil)
	s.Push([]byte{0x01}) // less than one sample
	assert.Zero(t, s.Level())
}

func TestSampler_ShortFrameStillFillsBuckets(t *testing.T) {
	s := NewSampler()
	s.SetActive(true)
	s.Push(sineFrame(8, 0.9)) // fewer samples than buckets

	levels := s.Levels()
	for _, v := range levels {
		assert.LessOrEqual(t, v, 1.0)
	}
}
