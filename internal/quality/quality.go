package quality

import (
	"log/slog"
)

// Assessment is the technical verdict for one document image. Created once
// per run by the gate and read-only downstream.
type Assessment struct {
	BlurScore     float64 `json:"blur_score"`
	QualityScore  float64 `json:"quality_score"`
	PHash         string  `json:"phash"`
	IsDuplicate   bool    `json:"is_duplicate"`
	TechnicalPass bool    `json:"technical_pass"`
}

// Gate computes the blur metric and perceptual hash and decides the
// technical accept/reject. It never fails: unreadable input degenerates to
// blur 0 plus a byte-level hash and routes to technical_pass=false.
type Gate struct {
	threshold float64
	logger    *slog.Logger
}

func NewGate(threshold float64, logger *slog.Logger) *Gate {
	if threshold <= 0 {
		threshold = 80.0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{threshold: threshold, logger: logger}
}

// Threshold returns the configured Laplacian-variance cutoff.
func (g *Gate) Threshold() float64 {
	return g.threshold
}

// Assess computes blur score, quality score, and perceptual hash for the
// image, then checks and records the hash in the batch store. The store may
// be nil for single-image invocations, which disables duplicate detection.
func (g *Gate) Assess(imageBytes []byte, docID string, store *HashStore) Assessment {
	var a Assessment

	img, format, err := Decode(imageBytes)
	if err != nil {
		// Corrupt input is a technical reject, not an error. Hash over the
		// raw bytes so the duplicate ledger still records the submission.
		g.logger.Warn("quality.decode_failed", "doc_id", docID, "error", err)
		a.PHash = fallbackHash(imageBytes)
	} else {
		plane, w, h := grayPlane(img)
		a.BlurScore = laplacianVariance(plane, w, h)
		a.PHash = PerceptualHash(img)
		g.logger.Debug("quality.metrics",
			"doc_id", docID, "format", format,
			"blur_score", a.BlurScore, "phash", a.PHash,
		)
	}

	a.QualityScore = normalizeBlur(a.BlurScore, g.threshold)
	a.TechnicalPass = a.BlurScore >= g.threshold

	if store != nil {
		dup, priorID := store.CheckAndInsert(a.PHash, docID)
		a.IsDuplicate = dup
		if dup {
			g.logger.Warn("quality.duplicate", "doc_id", docID, "prior_id", priorID, "phash", a.PHash)
		}
	}

	if !a.TechnicalPass {
		g.logger.Info("quality.reject",
			"doc_id", docID, "blur_score", a.BlurScore, "threshold", g.threshold,
		)
	}
	return a
}

// normalizeBlur maps the raw Laplacian variance into [0,1]: linear up to the
// threshold, saturating at 1 so sharper images never exceed it.
func normalizeBlur(blur, threshold float64) float64 {
	if blur <= 0 {
		return 0
	}
	q := blur / threshold
	if q > 1 {
		return 1
	}
	return q
}

// laplacianVariance measures high-frequency edge energy with a 3x3 Laplacian
// kernel over the interior pixels. Lower variance means a blurrier image.
func laplacianVariance(plane []float64, w, h int) float64 {
	if w < 3 || h < 3 {
		return 0
	}
	n := (w - 2) * (h - 2)
	responses := make([]float64, 0, n)
	var sum float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			v := plane[(y-1)*w+x] + plane[(y+1)*w+x] + plane[y*w+x-1] + plane[y*w+x+1] - 4*plane[y*w+x]
			responses = append(responses, v)
			sum += v
		}
	}
	mean := sum / float64(n)
	var variance float64
	for _, v := range responses {
		d := v - mean
		variance += d * d
	}
	return variance / float64(n)
}
