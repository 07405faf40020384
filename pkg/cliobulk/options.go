// Package cliobulk is the batch engine: it resolves the work list,
// fans items out across the CPUs, runs each one through decode ->
// filter -> encode, and reports progress to the parent process as
// newline-delimited JSON on stdout.
package cliobulk

import(
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/aramirez/cliobulk/pkg/cfilter"
)

// ProcessOptions is the wire-format configuration the controlling GUI
// sends down. Immutable once parsed; shared read-only by every worker.
type ProcessOptions struct {
	Brightness        float64 `json:"brightness" yaml:"brightness"`                 // -1.0 .. 1.0
	Contrast          float64 `json:"contrast" yaml:"contrast"`                     //  0.0 .. 3.0
	Saturation        float64 `json:"saturation" yaml:"saturation"`                 //  0.0 .. 2.0
	AdaptiveThreshold bool    `json:"adaptive_threshold" yaml:"adaptive_threshold"`
	Denoise           bool    `json:"denoise" yaml:"denoise"`

	// Branding extensions. Older controllers never send these; the
	// zero values disable both stages.
	Watermark string `json:"watermark,omitempty" yaml:"watermark"`
	LUT       string `json:"lut,omitempty" yaml:"lut"`
}

func DefaultOptions() ProcessOptions {
	return ProcessOptions{
		Contrast:   1.0,
		Saturation: 1.0,
	}
}

// LoadDefaults reads site/session defaults from a YAML file. The JSON
// payload from the controller is applied on top of whatever this
// returns.
func LoadDefaults(filename string) (ProcessOptions, error) {
	opts := DefaultOptions()

	contents, err := os.ReadFile(filename)
	if err != nil {
		return opts, fmt.Errorf("config read '%s': %v", filename, err)
	}
	if err := yaml.Unmarshal(contents, &opts); err != nil {
		return opts, fmt.Errorf("config parse '%s': %v", filename, err)
	}

	return opts, opts.Validate()
}

// ParseOptions overlays the controller's JSON payload onto base.
// Fields absent from the payload keep their base values.
func ParseOptions(jsonStr string, base ProcessOptions) (ProcessOptions, error) {
	opts := base
	if err := json.Unmarshal([]byte(jsonStr), &opts); err != nil {
		return opts, fmt.Errorf("options JSON: %v", err)
	}
	return opts, opts.Validate()
}

func (o ProcessOptions)Validate() error {
	if o.Brightness < -1.0 || o.Brightness > 1.0 {
		return fmt.Errorf("brightness %.3f out of range [-1, 1]", o.Brightness)
	}
	if o.Contrast < 0.0 || o.Contrast > 3.0 {
		return fmt.Errorf("contrast %.3f out of range [0, 3]", o.Contrast)
	}
	if o.Saturation < 0.0 || o.Saturation > 2.0 {
		return fmt.Errorf("saturation %.3f out of range [0, 2]", o.Saturation)
	}
	return nil
}

// FilterParams resolves the options into pipeline parameters, loading
// the LUT once up front so workers share the parsed table.
func (o ProcessOptions)FilterParams() (cfilter.Params, error) {
	p := cfilter.Params{
		Brightness:        o.Brightness,
		Contrast:          o.Contrast,
		Saturation:        o.Saturation,
		Denoise:           o.Denoise,
		AdaptiveThreshold: o.AdaptiveThreshold,
		Watermark:         o.Watermark,
	}

	if o.LUT != "" {
		lut, err := cfilter.LoadCube(o.LUT)
		if err != nil {
			return p, err
		}
		p.LUT = lut
	}

	return p, nil
}
