package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/gruf/go-ffmpreg/ffmpreg"
	"codeberg.org/gruf/go-ffmpreg/wasm"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
	"github.com/tetratelabs/wazero"
)

// SampleRate is the rate whisper models expect.
const SampleRate = 16000

// DecodeAudio reads an audio or video file into 16 kHz mono float32 samples.
// WAV, MP3 and FLAC are decoded natively; anything else goes through the
// embedded ffmpeg build.
func DecodeAudio(ctx context.Context, filePath string) ([]float32, error) {
	var (
		samples []float32
		rate    int
		err     error
	)

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".wav":
		samples, rate, err = readWAVSamples(filePath)
	case ".mp3":
		samples, rate, err = readMP3Samples(filePath)
	case ".flac":
		samples, rate, err = readFLACSamples(filePath)
	default:
		samples, err = decodeWithFFmpeg(ctx, filePath)
		rate = SampleRate
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filePath, err)
	}

	return resampleTo16kHz(samples, rate), nil
}

// IsMediaFile reports whether the file content looks like audio or video.
// The detected MIME type is returned either way.
func IsMediaFile(filePath string) (bool, string, error) {
	mt, err := mimetype.DetectFile(filePath)
	if err != nil {
		return false, "", err
	}
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "audio/") || strings.HasPrefix(m.String(), "video/") {
			return true, mt.String(), nil
		}
	}
	return false, mt.String(), nil
}

// readWAVSamples reads PCM WAV and returns mono float32 samples.
func readWAVSamples(filePath string) ([]float32, int, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, 0, errors.New("invalid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}

	nChannels := buf.Format.NumChannels
	if nChannels < 1 {
		nChannels = 1
	}
	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	maxVal := float32(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / nChannels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var mono int
		for ch := 0; ch < nChannels; ch++ {
			mono += buf.Data[i*nChannels+ch]
		}
		samples[i] = float32(mono/nChannels) / maxVal
	}

	return samples, buf.Format.SampleRate, nil
}

// readMP3Samples reads MP3 and returns mono float32 samples.
func readMP3Samples(filePath string) ([]float32, int, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	decoder, err := mp3.NewDecoder(file)
	if err != nil {
		return nil, 0, err
	}

	sampleRate := decoder.SampleRate()
	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, 0, err
	}

	// go-mp3 always yields 16-bit little-endian stereo
	numSamples := len(data) / 4
	samples := make([]float32, numSamples)

	const maxInt16 = 32768.0
	for i := 0; i < numSamples; i++ {
		left := int16(data[i*4]) | int16(data[i*4+1])<<8
		right := int16(data[i*4+2]) | int16(data[i*4+3])<<8
		mono := (int32(left) + int32(right)) / 2
		samples[i] = float32(mono) / maxInt16
	}

	return samples, sampleRate, nil
}

// readFLACSamples reads FLAC and returns mono float32 samples.
func readFLACSamples(filePath string) ([]float32, int, error) {
	stream, err := flac.Open(filePath)
	if err != nil {
		return nil, 0, err
	}
	defer stream.Close()

	sampleRate := int(stream.Info.SampleRate)
	nChannels := int(stream.Info.NChannels)
	bitsPerSample := int(stream.Info.BitsPerSample)
	maxVal := float32(int64(1) << (bitsPerSample - 1))

	var samples []float32
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}

		nSamples := len(frame.Subframes[0].Samples)
		for i := 0; i < nSamples; i++ {
			var mono int64
			for ch := 0; ch < nChannels; ch++ {
				mono += int64(frame.Subframes[ch].Samples[i])
			}
			mono /= int64(nChannels)
			samples = append(samples, float32(mono)/maxVal)
		}
	}

	return samples, sampleRate, nil
}

// decodeWithFFmpeg converts any container ffmpeg understands into a
// temporary 16 kHz mono WAV and reads it back.
func decodeWithFFmpeg(ctx context.Context, filePath string) ([]float32, error) {
	tmpFile, err := os.CreateTemp("", "voicetext-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	if err := convertWithFFmpeg(ctx, filePath, tmpPath); err != nil {
		return nil, err
	}

	samples, _, err := readWAVSamples(tmpPath)
	return samples, err
}

// convertWithFFmpeg uses embedded ffmpeg WASM to convert audio.
func convertWithFFmpeg(ctx context.Context, inputPath, outputPath string) error {
	absInput, err := filepath.Abs(inputPath)
	if err != nil {
		return err
	}
	absOutput, err := filepath.Abs(outputPath)
	if err != nil {
		return err
	}

	inputDir := filepath.Dir(absInput)
	outputDir := filepath.Dir(absOutput)

	args := wasm.Args{
		Stderr: io.Discard,
		Stdout: io.Discard,
		Args: []string{
			"-i", absInput,
			"-ar", "16000",
			"-ac", "1",
			"-c:a", "pcm_s16le",
			"-y",
			absOutput,
		},
		Config: func(cfg wazero.ModuleConfig) wazero.ModuleConfig {
			return cfg.WithFSConfig(wazero.NewFSConfig().
				WithDirMount(inputDir, inputDir).
				WithDirMount(outputDir, outputDir))
		},
	}

	rc, err := ffmpreg.Ffmpeg(ctx, args)
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	if rc != 0 {
		return fmt.Errorf("ffmpeg exited with code %d", rc)
	}

	return nil
}

// writeWAV writes float32 samples to a 16-bit mono WAV file.
func writeWAV(path string, samples []float32, sampleRate int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := wav.NewEncoder(file, sampleRate, 16, 1, 1)

	intBuf := &audio.IntBuffer{
		Data:           make([]int, len(samples)),
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		SourceBitDepth: 16,
	}

	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		intBuf.Data[i] = int(s * 32767)
	}

	if err := encoder.Write(intBuf); err != nil {
		return err
	}
	return encoder.Close()
}

// resampleTo16kHz resamples audio using linear interpolation.
func resampleTo16kHz(samples []float32, srcRate int) []float32 {
	if srcRate == SampleRate || srcRate <= 0 {
		return samples
	}

	ratio := float64(srcRate) / SampleRate
	newLen := int(float64(len(samples)) / ratio)
	resampled := make([]float32, newLen)

	for i := 0; i < newLen; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := float32(srcPos - float64(srcIdx))

		if srcIdx+1 < len(samples) {
			resampled[i] = samples[srcIdx]*(1-frac) + samples[srcIdx+1]*frac
		} else if srcIdx < len(samples) {
			resampled[i] = samples[srcIdx]
		}
	}

	return resampled
}
