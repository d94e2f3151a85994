package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomide-ade/docuverify/constants"
	"github.com/tomide-ade/docuverify/internal/llm"
	"github.com/tomide-ade/docuverify/internal/quality"
)

// stubExtractor satisfies llm.Extractor with a fixed response and counts
// invocations.
type stubExtractor struct {
	calls atomic.Int32
	res   *llm.ExtractionResult
	err   error
}

func (s *stubExtractor) Extract(_ context.Context, _ llm.ExtractRequest) (*llm.ExtractionResult, []byte, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.res, nil, nil
}

func passportExtraction(confidence float64) *llm.ExtractionResult {
	return &llm.ExtractionResult{
		DocumentType: constants.Passport,
		AIConfidence: confidence,
		Passport: &llm.Passport{
			DocumentFields: llm.DocumentFields{
				FullName:       "ADAEZE OKAFOR",
				BirthDate:      llm.DateFrom(time.Date(1986, 1, 17, 0, 0, 0, 0, time.UTC)),
				DocumentNumber: "X1234567",
				IssueDate:      llm.DateFrom(time.Date(2021, 5, 20, 0, 0, 0, 0, time.UTC)),
				ExpiryDate:     llm.DateFrom(time.Date(2099, 5, 20, 0, 0, 0, 0, time.UTC)),
				Nationality:    "NGA",
			},
		},
	}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// sharpPNG has maximal local contrast so it clears any sane blur threshold.
func sharpPNG(t *testing.T) []byte {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return encodePNG(t, img)
}

// flatPNG has zero Laplacian variance, guaranteeing a technical reject.
func flatPNG(t *testing.T) []byte {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: 128})
		}
	}
	return encodePNG(t, img)
}

func testProcessor(extractor llm.Extractor, store *quality.HashStore) *Processor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProcessor(logger, nil, store, extractor, nil, 0)
}

func TestRunSuccess(t *testing.T) {
	ext := &stubExtractor{res: passportExtraction(0.95)}
	res := testProcessor(ext, nil).Run(context.Background(), RawDocument{
		Bytes:    sharpPNG(t),
		MIMEType: "image/png",
		Name:     "passport.png",
	})

	assert.Equal(t, constants.StatusSuccess, res.Status)
	assert.InDelta(t, 0.98, res.Score, 1e-9)
	assert.Equal(t, 1.0, res.LogicScore)
	assert.Len(t, res.PHash, 16)
	assert.Empty(t, res.Issues)
	require.NotNil(t, res.Payload)
	assert.Equal(t, int32(1), ext.calls.Load())
}

func TestRunManualReviewOnLogicPenalty(t *testing.T) {
	ext := &stubExtractor{res: passportExtraction(0.95)}
	ext.res.Passport.DocumentNumber = "x-12" // format violation, logic 0.85

	res := testProcessor(ext, nil).Run(context.Background(), RawDocument{
		Bytes: sharpPNG(t), MIMEType: "image/png", Name: "p.png",
	})

	// 0.4*0.95 + 0.2*1.0 + 0.4*0.85 = 0.92: still SUCCESS despite the issue.
	assert.Equal(t, constants.StatusSuccess, res.Status)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, constants.IssueRegexFormat, res.Issues[0].Code)
	assert.Equal(t, []string{"document_number"}, res.FlaggedFields)

	ext.res.AIConfidence = 0.6 // 0.24 + 0.2 + 0.34 = 0.78
	res = testProcessor(ext, nil).Run(context.Background(), RawDocument{
		Bytes: sharpPNG(t), MIMEType: "image/png", Name: "p.png",
	})
	assert.Equal(t, constants.StatusManualReview, res.Status)
}

func TestRunBlurryImageRejectedBeforeExtraction(t *testing.T) {
	ext := &stubExtractor{res: passportExtraction(0.95)}
	res := testProcessor(ext, nil).Run(context.Background(), RawDocument{
		Bytes:    flatPNG(t),
		MIMEType: "image/png",
		Name:     "blurry.png",
	})

	assert.Equal(t, constants.StatusRetryUpload, res.Status)
	assert.Equal(t, int32(0), ext.calls.Load(), "no model call for rejected uploads")
	assert.NotEmpty(t, res.PHash, "hash recorded even on rejection")
	require.Len(t, res.Issues, 1)
	assert.Equal(t, constants.IssueBlurReject, res.Issues[0].Code)
	assert.Nil(t, res.Payload)
}

func TestRunDuplicateRejectedOnSecondUpload(t *testing.T) {
	ext := &stubExtractor{res: passportExtraction(0.95)}
	store := quality.NewHashStore(0)
	proc := testProcessor(ext, store)
	img := sharpPNG(t)

	first := proc.Run(context.Background(), RawDocument{Bytes: img, MIMEType: "image/png", Name: "a.png"})
	assert.Equal(t, constants.StatusSuccess, first.Status)

	second := proc.Run(context.Background(), RawDocument{Bytes: img, MIMEType: "image/png", Name: "b.png"})
	assert.Equal(t, constants.StatusRetryUpload, second.Status)
	require.Len(t, second.Issues, 1)
	assert.Equal(t, constants.IssueDuplicateUpload, second.Issues[0].Code)
	assert.Equal(t, first.PHash, second.PHash)
	assert.Equal(t, int32(1), ext.calls.Load(), "only the first upload reaches the model")
}

func TestRunCorruptBytesRejected(t *testing.T) {
	ext := &stubExtractor{res: passportExtraction(0.95)}
	res := testProcessor(ext, nil).Run(context.Background(), RawDocument{
		Bytes: []byte("definitely not an image"), MIMEType: "image/png", Name: "bad.bin",
	})

	assert.Equal(t, constants.StatusRetryUpload, res.Status)
	assert.NotEmpty(t, res.PHash, "fallback content hash still recorded")
	assert.Equal(t, int32(0), ext.calls.Load())
}

func TestRunExtractionFailureIsSystemError(t *testing.T) {
	ext := &stubExtractor{err: errors.New("model unavailable")}
	res := testProcessor(ext, nil).Run(context.Background(), RawDocument{
		Bytes: sharpPNG(t), MIMEType: "image/png", Name: "p.png",
	})

	assert.Equal(t, constants.StatusSystemError, res.Status)
	assert.Zero(t, res.Score)
	assert.Nil(t, res.Payload)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, constants.IssueExtractionFailed, res.Issues[0].Code)
	assert.Contains(t, res.Issues[0].Message, "model unavailable")
}

func TestResultJSONShape(t *testing.T) {
	out, err := json.Marshal(Result{Status: constants.StatusRetryUpload})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	for _, key := range []string{"status", "score", "logic_score", "phash", "issues", "flagged_fields", "payload"} {
		assert.Contains(t, m, key)
	}
	assert.Equal(t, []any{}, m["issues"], "issues is [] rather than null")
	assert.Equal(t, []any{}, m["flagged_fields"])
	assert.Nil(t, m["payload"])
}

func TestQueueProcessesAllJobs(t *testing.T) {
	ext := &stubExtractor{res: passportExtraction(0.95)}
	proc := testProcessor(ext, quality.NewHashStore(0))

	var done atomic.Int32
	q := NewQueue(proc, proc.Logger, func(_ Job, _ Result) { done.Add(1) },
		WithWorkers(4), WithQueueSize(16), WithProcessTimeout(10*time.Second))

	img := sharpPNG(t)
	for i := 0; i < 8; i++ {
		q.Enqueue(context.Background(), Job{
			Doc:         RawDocument{Bytes: append([]byte(nil), img...), MIMEType: "image/png", Name: "doc"},
			SubmittedAt: time.Now(),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.Equal(t, int32(8), done.Load())
}

func TestQueueEnqueueAfterShutdownDropped(t *testing.T) {
	ext := &stubExtractor{res: passportExtraction(0.95)}
	proc := testProcessor(ext, nil)

	var done atomic.Int32
	q := NewQueue(proc, proc.Logger, func(_ Job, _ Result) { done.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Shutdown(ctx)

	q.Enqueue(context.Background(), Job{Doc: RawDocument{Bytes: sharpPNG(t), Name: "late"}})
	assert.Equal(t, int32(0), done.Load())
}

func TestBatchSummaryAdd(t *testing.T) {
	var s BatchSummary
	s.Add(BatchEntry{File: "a", Status: constants.StatusSuccess})
	s.Add(BatchEntry{File: "b", Status: constants.StatusManualReview})
	s.Add(BatchEntry{File: "c", Status: constants.StatusRetryUpload})
	s.Add(BatchEntry{File: "d", Status: constants.StatusSystemError})
	s.Add(BatchEntry{File: "e", Status: constants.StatusSuccess})

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.Success)
	assert.Equal(t, 1, s.ManualReview)
	assert.Equal(t, 1, s.Retry)
	assert.Equal(t, 1, s.Error)
	assert.Len(t, s.Results, 5)
}
