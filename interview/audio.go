package interview

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/jobpilot/backend/models"
)

const (
	// InputSampleRate is the rate of the microphone audio sent upstream
	InputSampleRate = 16000
	// OutputSampleRate is the rate of the audio produced by the model
	OutputSampleRate = 24000
	// FrameSize is the number of samples sent per upstream message
	FrameSize = 4096
	// InputMIMEType describes the upstream audio frames
	InputMIMEType = "audio/pcm;rate=16000"
)

// EncodePCM16 converts normalized samples to 16-bit little-endian PCM and
// returns it base64 encoded. Samples outside [-1, 1] are clipped.
func EncodePCM16(samples []float32) string {
	buf := make([]byte, 2*len(samples))
	for i, s := range samples {
		v := float64(s) * 32768
		v = math.Max(math.MinInt16, math.Min(math.MaxInt16, v))
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(int16(v)))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodePCM16 parses base64 16-bit little-endian PCM into samples in [-1, 1)
func DecodePCM16(data string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: audio payload is not base64: %v", models.ErrInvalidFormat, err)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("%w: odd PCM16 payload length %d", models.ErrInvalidFormat, len(raw))
	}
	samples := make([]float32, len(raw)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768
	}
	return samples, nil
}

// SamplesDuration is the playback length of n samples at rate
func SamplesDuration(n, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(rate)
}
