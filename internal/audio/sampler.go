// Package audio reduces live PCM frames into the normalized level and
// waveform projections that drive UI feedback.
package audio

import (
	"encoding/binary"
	"math"
	"sync"
)

const (
	// LevelBuckets is the size of the bar-visualizer projection.
	LevelBuckets = 12
	// WaveformBuckets is the size of the waveform projection.
	WaveformBuckets = 50
)

// Sampler consumes PCM16 little-endian mono frames and keeps two live
// projections: a 12-bucket band-level array and a 50-bucket waveform
// array, both normalized to [0,1]. Each frame overwrites the previous
// projection; there is no buffering. An inactive sampler ignores
// frames and reports zeroed projections.
type Sampler struct {
	mu       sync.RWMutex
	active   bool
	levels   [LevelBuckets]float64
	waveform [WaveformBuckets]float64
}

// NewSampler creates an inactive sampler.
func NewSampler() *Sampler {
	return &Sampler{}
}

// SetActive switches frame consumption on or off. Deactivating zeroes
// both projections so consumers never render stale audio.
func (s *Sampler) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
	if !active {
		s.levels = [LevelBuckets]float64{}
		s.waveform = [WaveformBuckets]float64{}
	}
}

// Active reports whether the sampler is consuming frames.
func (s *Sampler) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Push processes one PCM16LE mono frame. Frames arriving while the
// sampler is inactive are dropped.
func (s *Sampler) Push(frame []byte) {
	samples := decodePCM16(frame)
	if len(samples) == 0 {
		return
	}

	levels := bandLevels(samples)
	waveform := waveformShape(samples)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.levels = levels
	s.waveform = waveform
}

// Levels returns the current 12-bucket level projection.
func (s *Sampler) Levels() [LevelBuckets]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.levels
}

// Waveform returns the current 50-bucket waveform projection.
func (s *Sampler) Waveform() [WaveformBuckets]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.waveform
}

// Level returns the mean of the level buckets, a single 0–1 loudness
// gauge used by voice biometrics.
func (s *Sampler) Level() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum float64
	for _, v := range s.levels {
		sum += v
	}
	return sum / LevelBuckets
}

func decodePCM16(frame []byte) []float64 {
	n := len(frame) / 2
	if n == 0 {
		return nil
	}
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(frame[2*i:]))
		samples[i] = float64(v) / math.MaxInt16
	}
	return samples
}

// bandLevels splits the frame into LevelBuckets contiguous bands and
// takes the RMS energy of each, normalized to [0,1].
func bandLevels(samples []float64) [LevelBuckets]float64 {
	var out [LevelBuckets]float64
	bandSize := len(samples) / LevelBuckets
	if bandSize == 0 {
		bandSize = 1
	}
	for b := 0; b < LevelBuckets; b++ {
		start := b * bandSize
		if start >= len(samples) {
			break
		}
		end := start + bandSize
		if end > len(samples) {
			end = len(samples)
		}
		var sum float64
		for _, v := range samples[start:end] {
			sum += v * v
		}
		rms := math.Sqrt(sum / float64(end-start))
		out[b] = clamp01(rms * 2) // speech rarely exceeds 0.5 RMS
	}
	return out
}

// waveformShape downsamples the frame into WaveformBuckets peak values.
func waveformShape(samples []float64) [WaveformBuckets]float64 {
	var out [WaveformBuckets]float64
	step := len(samples) / WaveformBuckets
	if step == 0 {
		step = 1
	}
	for b := 0; b < WaveformBuckets; b++ {
		start := b * step
		if start >= len(samples) {
			break
		}
		end := start + step
		if end > len(samples) {
			end = len(samples)
		}
		var peak float64
		for _, v := range samples[start:end] {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
		out[b] = clamp01(peak)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
