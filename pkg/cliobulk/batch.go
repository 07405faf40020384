package cliobulk

import(
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/aramirez/cliobulk/pkg/cfilter"
	"github.com/aramirez/cliobulk/pkg/craw"
)

const jpegQuality = 90

// Batch runs one conversion job: every input becomes an adjusted JPEG
// in OutputDir, with one progress record per item on the wire.
type Batch struct {
	Options   ProcessOptions
	OutputDir string
	Paths     []string
	Progress  *ProgressWriter
	Log       zerolog.Logger

	params  cfilter.Params
	counter atomic.Uint64
	metrics *batchMetrics
}

func NewBatch(opts ProcessOptions, outputDir string, paths []string, pw *ProgressWriter, log zerolog.Logger) *Batch {
	return &Batch{
		Options:   opts,
		OutputDir: outputDir,
		Paths:     paths,
		Progress:  pw,
		Log:       log,
		metrics:   newBatchMetrics(),
	}
}

// Run processes the batch over a pool of NumCPU workers. It returns an
// error only for failures that happen before the first item starts;
// once the pool is running, per-item failures go on the wire and the
// batch carries on to the terminal record.
func (b *Batch) Run() error {
	params, err := b.Options.FilterParams()
	if err != nil {
		return err
	}
	b.params = params

	if err := os.MkdirAll(b.OutputDir, 0755); err != nil {
		return fmt.Errorf("output dir '%s': %v", b.OutputDir, err)
	}

	nWorkers := runtime.NumCPU()
	jobs := make(chan string, len(b.Paths))
	var wg sync.WaitGroup

	b.Log.Info().
		Int("items", len(b.Paths)).
		Int("workers", nWorkers).
		Str("output", b.OutputDir).
		Msg("batch starting")

	for i := 0; i < nWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				b.processOne(path)
			}
		}()
	}

	for _, path := range b.Paths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	b.Progress.Complete()

	succeeded, failed, wall, hist := b.metrics.Summary()
	b.Log.Info().
		Int("succeeded", succeeded).
		Int("failed", failed).
		Dur("wall", wall).
		Msg("batch complete")
	b.Log.Debug().Str("latency_ms", hist).Msg("item latency histogram")

	return nil
}

// processOne claims the next progress slot, emits the "processing"
// record, then converts the item. The percentage reflects claim order,
// not completion order, so records from a busy pool may go backwards.
func (b *Batch) processOne(path string) {
	n := b.counter.Add(1) - 1
	pct := float64(n) / float64(len(b.Paths)) * 100

	name := filepath.Base(path)
	b.Progress.Processing(pct, name)

	start := time.Now()
	err := b.convert(path)
	b.metrics.Record(time.Since(start), err)

	if err != nil {
		b.Log.Warn().Str("file", name).Err(err).Msg("item failed")
		b.Progress.Failed(pct, name, err)
	}
}

func (b *Batch) convert(path string) error {
	var img image.Image
	var err error
	if IsRawPath(path) {
		img, err = craw.Decode(path)
	} else {
		img, err = loadStandard(path)
	}
	if err != nil {
		return err
	}

	if e := b.Log.Debug(); e.Enabled() {
		mean, stddev := lumaStats(img)
		e.Str("file", filepath.Base(path)).
			Float64("luma_mean", mean).
			Float64("luma_stddev", stddev).
			Msg("decoded")
	}

	out := cfilter.Apply(img, b.params)

	dst := filepath.Join(b.OutputDir, "processed_"+filepath.Base(path)+".jpg")
	if err := writeJPEG(dst, out); err != nil {
		return err
	}
	return nil
}

// writeJPEG encodes to a file, removing the partial output if the
// encode fails partway so a failed item leaves nothing behind.
func writeJPEG(filename string, img image.Image) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		f.Close()
		os.Remove(filename)
		return fmt.Errorf("encoding '%s': %v", filename, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(filename)
		return fmt.Errorf("closing '%s': %v", filename, err)
	}
	return nil
}
