package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Result is the output of one extraction
type Result struct {
	Text       string  `json:"extracted_text"`
	Fields     Fields  `json:"structured_data"`
	Confidence float64 `json:"confidence"`
}

// Extractor turns certificate images into text and fields
type Extractor interface {
	Extract(ctx context.Context, content []byte) (*Result, error)
}

// Tesseract runs the tesseract CLI on preprocessed images
type Tesseract struct {
	cmd       string
	languages string
	timeout   time.Duration
	logger    *zap.Logger
}

func NewTesseract(cmd, languages string, timeout time.Duration, logger *zap.Logger) *Tesseract {
	if cmd == "" {
		cmd = "tesseract"
	}
	if languages == "" {
		languages = "eng"
	}
	return &Tesseract{cmd: cmd, languages: languages, timeout: timeout, logger: logger}
}

func (t *Tesseract) Extract(ctx context.Context, content []byte) (*Result, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	img, err := Preprocess(content)
	if err != nil {
		return nil, err
	}

	text, err := t.run(ctx, img)
	if err != nil {
		return nil, err
	}
	tsv, err := t.run(ctx, img, "tsv")
	if err != nil {
		return nil, err
	}

	res := &Result{
		Text:       strings.TrimSpace(text),
		Fields:     ParseFields(text),
		Confidence: MeanConfidence(tsv),
	}
	t.logger.Debug("OCR completed",
		zap.Int("chars", len(res.Text)),
		zap.Float64("confidence", res.Confidence),
	)
	return res, nil
}

func (t *Tesseract) run(ctx context.Context, img []byte, configs ...string) (string, error) {
	args := append([]string{"stdin", "stdout", "-l", t.languages, "--psm", "6"}, configs...)
	cmd := exec.CommandContext(ctx, t.cmd, args...)
	cmd.Stdin = bytes.NewReader(img)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("tesseract timed out: %w", ctx.Err())
		}
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// MeanConfidence averages the positive word confidences of tesseract TSV output, scaled to [0,1]
func MeanConfidence(tsv string) float64 {
	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	if len(lines) < 2 {
		return 0
	}

	confCol := -1
	for i, name := range strings.Split(lines[0], "\t") {
		if strings.TrimSpace(name) == "conf" {
			confCol = i
			break
		}
	}
	if confCol < 0 {
		return 0
	}

	var sum float64
	var n int
	for _, line := range lines[1:] {
		cols := strings.Split(line, "\t")
		if confCol >= len(cols) {
			continue
		}
		conf, err := strconv.ParseFloat(strings.TrimSpace(cols[confCol]), 64)
		if err != nil || conf <= 0 {
			continue
		}
		sum += conf
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) / 100
}
