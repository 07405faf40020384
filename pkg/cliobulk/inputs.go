package cliobulk

import(
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ResolveInputs turns the -inputs argument into a path list. Two
// forms: the name of an existing .json manifest holding an array of
// path strings (how the GUI hands over thousands of files without
// blowing the command-line length limit), or a comma-separated list.
// A ".json" string that doesn't name an existing file falls through to
// the comma form, matching what controllers already rely on.
func ResolveInputs(arg string) ([]string, error) {
	if strings.HasSuffix(arg, ".json") {
		if _, err := os.Stat(arg); err == nil {
			return readManifest(arg)
		}
	}

	return strings.Split(arg, ","), nil
}

func readManifest(filename string) ([]string, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("manifest read '%s': %v", filename, err)
	}

	var paths []string
	if err := json.Unmarshal(contents, &paths); err != nil {
		return nil, fmt.Errorf("manifest parse '%s': %v", filename, err)
	}

	return paths, nil
}
