package cliobulk

import(
	"image"
	"sync"
	"time"

	"github.com/skypies/util/histogram"
	"gonum.org/v1/gonum/stat"
)

// batchMetrics accumulates per-item timings across the worker pool.
// The latency histogram is bucketed in milliseconds; items slower than
// ValMax land in the overflow bucket, which is fine for a summary line.
type batchMetrics struct {
	mu        sync.Mutex
	latencies histogram.Histogram
	succeeded int
	failed    int
	started   time.Time
}

func newBatchMetrics() *batchMetrics {
	return &batchMetrics{
		latencies: histogram.Histogram{NumBuckets: 20, ValMin: 0, ValMax: 10000},
		started:   time.Now(),
	}
}

func (bm *batchMetrics) Record(elapsed time.Duration, err error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	bm.latencies.Add(histogram.ScalarVal(int(elapsed.Milliseconds())))
	if err != nil {
		bm.failed++
	} else {
		bm.succeeded++
	}
}

func (bm *batchMetrics) Summary() (succeeded, failed int, wall time.Duration, hist string) {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.succeeded, bm.failed, time.Since(bm.started), bm.latencies.String()
}

// lumaStats returns the mean and stddev of the image's luma channel,
// for debug logging. Sampling every 4th pixel in each axis keeps this
// cheap enough to run per item.
func lumaStats(img image.Image) (mean, stddev float64) {
	b := img.Bounds()
	lumas := make([]float64, 0, (b.Dx()/4+1)*(b.Dy()/4+1))
	for y := b.Min.Y; y < b.Max.Y; y += 4 {
		for x := b.Min.X; x < b.Max.X; x += 4 {
			r, g, bb, _ := img.At(x, y).RGBA()
			lumas = append(lumas, 0.299*float64(r>>8)+0.587*float64(g>>8)+0.114*float64(bb>>8))
		}
	}
	if len(lumas) == 0 {
		return 0, 0
	}
	return stat.Mean(lumas, nil), stat.StdDev(lumas, nil)
}
