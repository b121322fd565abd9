package transcode

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/config"
	"github.com/amankumarsingh77/cloud-video-remuxer/pkg/logger"
)

// successMarker appears in ffmpeg's output once the muxer has finalized the
// container. ffmpeg writes warnings to stderr even on fully successful runs,
// so a run is only treated as failed when the exit status is non-zero and
// this marker is missing.
const successMarker = "muxing overhead"

const diagnosticExcerptLen = 500

// Invoker wraps the external media tool for duration probing and lossless
// container remuxing.
type Invoker interface {
	ProbeDuration(ctx context.Context, path string) float64
	Remux(ctx context.Context, inputPath, outputPath string) error
}

type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	logger      logger.Logger
}

func NewFFmpeg(cfg *config.Config, logger logger.Logger) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  cfg.FFmpeg.FFmpegPath,
		ffprobePath: cfg.FFmpeg.FFprobePath,
		logger:      logger,
	}
}

// ProbeDuration returns the container duration in seconds. Any failure
// returns 0 so that an unreadable file is routed to the skip path instead of
// aborting the job.
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) float64 {
	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		f.logger.Warnf("ffprobe failed for %s: %v output: %s", path, err, strings.TrimSpace(string(output)))
		return 0
	}
	duration, err := parseDuration(string(output))
	if err != nil {
		f.logger.Warnf("invalid ffprobe duration for %s: %v", path, err)
		return 0
	}
	return duration
}

// Remux rewrites the container around the existing streams: codec copy,
// bounded cluster size and time, cues relocated to the front with reserved
// index space. Output is forced to webm.
func (f *FFmpeg) Remux(ctx context.Context, inputPath, outputPath string) error {
	args := buildRemuxArgs(inputPath, outputPath)
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)

	var outputBuf bytes.Buffer
	cmd.Stdout = &outputBuf
	cmd.Stderr = &outputBuf

	err := cmd.Run()
	if remuxFailed(err, outputBuf.String()) {
		return &TranscodeError{
			Err:     err,
			Excerpt: excerpt(outputBuf.String()),
		}
	}
	return nil
}

func buildRemuxArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-map", "0",
		"-c", "copy",
		"-cluster_size_limit", "2M",
		"-cluster_time_limit", "5100",
		"-cues_to_front", "1",
		"-reserve_index_space", "200k",
		"-f", "webm",
		outputPath,
	}
}

// remuxFailed classifies an ffmpeg run. Informational and warning text on the
// diagnostic stream alone is not a failure.
func remuxFailed(err error, output string) bool {
	if err == nil {
		return false
	}
	return !strings.Contains(output, successMarker)
}

func parseDuration(output string) (float64, error) {
	trimmed := strings.TrimSpace(output)
	trimmed = strings.TrimRight(trimmed, ",")
	return strconv.ParseFloat(trimmed, 64)
}

func excerpt(output string) string {
	trimmed := strings.TrimSpace(output)
	if len(trimmed) <= diagnosticExcerptLen {
		return trimmed
	}
	return trimmed[len(trimmed)-diagnosticExcerptLen:]
}
