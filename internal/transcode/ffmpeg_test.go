package transcode

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildRemuxArgs(t *testing.T) {
	args := buildRemuxArgs("in.webm", "out.webm")

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-y",
		"-i in.webm",
		"-map 0",
		"-c copy",
		"-cluster_size_limit 2M",
		"-cluster_time_limit 5100",
		"-cues_to_front 1",
		"-reserve_index_space 200k",
		"-f webm",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != "out.webm" {
		t.Fatalf("output path must come last, got %q", args[len(args)-1])
	}
}

func TestRemuxFailed(t *testing.T) {
	exitErr := errors.New("exit status 1")
	cases := []struct {
		name   string
		err    error
		output string
		want   bool
	}{
		{"clean exit", nil, "", false},
		{"clean exit with warnings", nil, "deprecated pixel format", false},
		{"non-zero exit without marker", exitErr, "Invalid data found", true},
		{"non-zero exit with marker", exitErr, "frame=100\nmuxing overhead: 0.5%", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := remuxFailed(tc.err, tc.output); got != tc.want {
				t.Fatalf("remuxFailed(%v, %q) = %v, want %v", tc.err, tc.output, got, tc.want)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"12.34\n", 12.34, false},
		{"45.000000,\n", 45, false},
		{"  7.5  ", 7.5, false},
		{"N/A\n", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := parseDuration(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseDuration(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseDuration(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseDuration(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestExcerptKeepsTail(t *testing.T) {
	long := strings.Repeat("x", 600) + "tail marker"
	got := excerpt(long)
	if len(got) != diagnosticExcerptLen {
		t.Fatalf("expected excerpt of %d bytes, got %d", diagnosticExcerptLen, len(got))
	}
	if !strings.HasSuffix(got, "tail marker") {
		t.Fatal("excerpt must keep the end of the output")
	}

	short := "short diagnostic"
	if got := excerpt(" " + short + " \n"); got != short {
		t.Fatalf("expected trimmed short output, got %q", got)
	}
}

func TestTranscodeErrorUnwrap(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &TranscodeError{Err: cause, Excerpt: "Invalid data found"}
	if !errors.Is(err, cause) {
		t.Fatal("TranscodeError must unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("error text should carry the excerpt, got %q", err.Error())
	}
}
