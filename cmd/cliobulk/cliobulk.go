package main

import(
	"flag"
	"log"
	"os"

	"github.com/rs/zerolog"

	"github.com/aramirez/cliobulk/pkg/cliobulk"
)

var(
	fOptions string
	fInputs string
	fOutput string
	fConfig string
	fVerbosity int
)

func init() {
	flag.StringVar(&fOptions, "options", "{}", "processing options as a JSON object")
	flag.StringVar(&fInputs, "inputs", "", "comma-separated input paths, or a path to a .json manifest")
	flag.StringVar(&fOutput, "output", ".", "directory for the output JPEGs")
	flag.StringVar(&fConfig, "config", "", "YAML file of default processing options")
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.Parse()
}

// Fatal setup errors exit non-zero before any item runs. Stdout is
// reserved for the progress records; all logging goes to stderr.
func main() {
	logger := newLogger(fVerbosity)

	opts := cliobulk.DefaultOptions()
	if fConfig != "" {
		var err error
		if opts, err = cliobulk.LoadDefaults(fConfig); err != nil {
			log.Fatal(err)
		}
	}
	opts, err := cliobulk.ParseOptions(fOptions, opts)
	if err != nil {
		log.Fatal(err)
	}
	if err := opts.Validate(); err != nil {
		log.Fatal(err)
	}

	paths, err := cliobulk.ResolveInputs(fInputs)
	if err != nil {
		log.Fatal(err)
	}

	pw := cliobulk.NewProgressWriter(os.Stdout)
	batch := cliobulk.NewBatch(opts, fOutput, paths, pw, logger)
	if err := batch.Run(); err != nil {
		log.Fatal(err)
	}
}

func newLogger(verbosity int) zerolog.Logger {
	level := zerolog.WarnLevel
	switch {
	case verbosity >= 2:
		level = zerolog.DebugLevel
	case verbosity == 1:
		level = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
