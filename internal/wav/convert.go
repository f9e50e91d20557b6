package wav

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

// Converter resamples or re-containers audio the manual encoder cannot
// handle, by delegating to an external ffmpeg binary through temporary
// files. Both temp files are removed on every exit path.
type Converter struct {
	FFmpegPath string
}

// NewConverter returns a Converter using the given ffmpeg binary, or the one
// on PATH when empty.
func NewConverter(ffmpegPath string) *Converter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Converter{FFmpegPath: ffmpegPath}
}

// tempPair holds the scoped temporary input/output files for one conversion.
type tempPair struct {
	in  string
	out string
}

func newTempPair() (*tempPair, error) {
	dir, err := os.MkdirTemp("", "duocap-convert-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &tempPair{
		in:  filepath.Join(dir, "input.wav"),
		out: filepath.Join(dir, "output.wav"),
	}, nil
}

func (t *tempPair) cleanup() {
	if err := os.RemoveAll(filepath.Dir(t.in)); err != nil {
		slog.Warn("Failed to remove conversion temp files", "dir", filepath.Dir(t.in), "error", err)
	}
}

// Resample converts mono 16-bit samples from srcRate to dstRate and returns
// the resulting container bytes.
func (c *Converter) Resample(ctx context.Context, samples []int16, srcRate, dstRate int) ([]byte, error) {
	tmp, err := newTempPair()
	if err != nil {
		return nil, err
	}
	defer tmp.cleanup()

	if err := c.writeInput(tmp.in, samples, srcRate); err != nil {
		return nil, err
	}

	args := []string{
		"-i", tmp.in,
		"-ar", strconv.Itoa(dstRate),
		"-ac", "1",
		"-sample_fmt", "s16",
		"-y",
		tmp.out,
	}

	slog.Debug("Running conversion", "ffmpeg", c.FFmpegPath, "src_rate", srcRate, "dst_rate", dstRate)

	cmd := exec.CommandContext(ctx, c.FFmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: %v (output: %s)", ErrConversionFailed, err, string(output))
	}

	result, err := os.ReadFile(tmp.out)
	if err != nil {
		return nil, fmt.Errorf("%w: converter produced no output: %v", ErrConversionFailed, err)
	}

	if !IsValid(result) {
		return nil, fmt.Errorf("%w: converter output is not a valid container", ErrConversionFailed)
	}

	return result, nil
}

// writeInput writes the temp input container via the go-audio encoder, which
// handles the WriteSeeker bookkeeping for incremental writes.
func (c *Converter) writeInput(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create temp input: %w", err)
	}
	defer f.Close()

	enc := gowav.NewEncoder(f, sampleRate, bitsPerSample, numChannels, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitsPerSample,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write temp input: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize temp input: %w", err)
	}

	return nil
}
