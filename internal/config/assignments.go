package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// EnvModels is the environment variable carrying model/device
	// assignments in --load syntax, e.g. "ImageCaptioning_cuda:0,Text2Image_cuda:0".
	EnvModels = "TMX_MODELS"

	// EnvModelsFile is the environment variable pointing at a YAML file
	// of model/device assignments.
	EnvModelsFile = "TMX_MODELS_FILE"
)

// KnownModels enumerates the tool names the application recognizes.
// Assignments referencing any other name are rejected up front instead of
// being discovered as an import error deep inside the application.
var KnownModels = []string{
	"ImageCaptioning",
	"Text2Image",
	"Image2Pose",
	"Pose2Image",
	"Image2Seg",
	"Seg2Image",
	"Image2Depth",
	"Depth2Image",
	"Image2Normal",
	"Normal2Image",
	"VisualQuestionAnswering",
}

// Assignment binds one model to the compute device it should load on.
//
// The device string uses the application's own syntax: "cpu", "cuda:0",
// "cuda:1", and so on.
type Assignment struct {
	// Model is the tool name, one of KnownModels.
	Model string `yaml:"model" json:"model"`

	// Device is the compute device the model is loaded on.
	Device string `yaml:"device" json:"device"`
}

// Assignments is an ordered list of model/device assignments.
type Assignments []Assignment

// DefaultAssignments returns the stock deployment: image captioning and
// text-to-image generation, both on the first CUDA device.
func DefaultAssignments() Assignments {
	return Assignments{
		{Model: "ImageCaptioning", Device: "cuda:0"},
		{Model: "Text2Image", Device: "cuda:0"},
	}
}

// LoadArg renders the assignments in the application's --load flag syntax:
// comma-separated "<Model>_<device>" pairs.
//
// Example:
//
//	DefaultAssignments().LoadArg() // "ImageCaptioning_cuda:0,Text2Image_cuda:0"
func (a Assignments) LoadArg() string {
	pairs := make([]string, 0, len(a))
	for _, as := range a {
		pairs = append(pairs, fmt.Sprintf("%s_%s", as.Model, as.Device))
	}
	return strings.Join(pairs, ",")
}

// Validate checks every assignment against the recognized model list and
// rejects empty device strings.
//
// Returns:
//   - nil if all assignments are well-formed
//   - Error naming the first offending assignment and the valid model set
func (a Assignments) Validate() error {
	if len(a) == 0 {
		return fmt.Errorf("at least one model assignment is required")
	}
	for _, as := range a {
		if !isKnownModel(as.Model) {
			return fmt.Errorf("unknown model %q: valid models are %s",
				as.Model, strings.Join(KnownModels, ", "))
		}
		if as.Device == "" {
			return fmt.Errorf("model %s has no device assigned", as.Model)
		}
	}
	return nil
}

// ParseAssignments parses --load flag syntax into structured assignments.
//
// The input is a comma-separated list of "<Model>_<device>" pairs. Model
// names contain no underscores, so the split happens at the first one.
//
// Parameters:
//   - s: assignment list, e.g. "ImageCaptioning_cuda:0,Text2Image_cpu"
//
// Returns:
//   - Parsed and validated assignments
//   - Error if the syntax is malformed or a model is not recognized
func ParseAssignments(s string) (Assignments, error) {
	var out Assignments
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "_", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid assignment %q: expected <Model>_<device>", pair)
		}
		out = append(out, Assignment{Model: parts[0], Device: parts[1]})
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadAssignmentsFile reads assignments from a YAML file.
//
// The expected document is a list of {model, device} mappings:
//
//	- model: ImageCaptioning
//	  device: cuda:0
//	- model: Text2Image
//	  device: cuda:1
func LoadAssignmentsFile(path string) (Assignments, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read assignments file: %w", err)
	}
	var out Assignments
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse assignments file %s: %w", path, err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("assignments file %s: %w", path, err)
	}
	return out, nil
}

// ResolveAssignments determines the effective assignments for this run.
//
// Sources are consulted in priority order:
//  1. The explicit flag value, when non-empty
//  2. The TMX_MODELS environment variable (--load syntax)
//  3. The YAML file named by TMX_MODELS_FILE
//  4. DefaultAssignments
func ResolveAssignments(flagValue string) (Assignments, error) {
	if flagValue != "" {
		return ParseAssignments(flagValue)
	}
	if env := os.Getenv(EnvModels); env != "" {
		return ParseAssignments(env)
	}
	if path := os.Getenv(EnvModelsFile); path != "" {
		return LoadAssignmentsFile(path)
	}
	return DefaultAssignments(), nil
}

// isKnownModel reports whether name is in the recognized model list.
func isKnownModel(name string) bool {
	for _, m := range KnownModels {
		if m == name {
			return true
		}
	}
	return false
}
