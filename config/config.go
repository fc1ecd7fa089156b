// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/drone/envsubst"
	"github.com/joho/godotenv"
	"github.com/katalvlaran/dagmatch/match"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedFormat indicates a file extension other than .toml, .yaml, .yml or .json.
	ErrUnsupportedFormat = errors.New("config: unsupported file format")

	// ErrUnknownKey indicates a key that does not name an option.
	ErrUnknownKey = errors.New("config: unknown key")

	// ErrDotEnv indicates a .env file that exists but cannot be loaded.
	ErrDotEnv = errors.New("config: invalid .env file")

	// ErrBadEnv indicates a DAGMATCH_* variable that does not parse.
	ErrBadEnv = errors.New("config: invalid environment override")
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DAGMATCH_"

// File is the on-disk shape of the matcher options. Absent keys keep the
// value of match.DefaultOptions.
type File struct {
	Algorithm      *string `toml:"algorithm" yaml:"algorithm"`
	NodeSimilarity *string `toml:"node_similarity" yaml:"node_similarity"`
	Sort           *string `toml:"sort" yaml:"sort"`
	Solver         *string `toml:"solver" yaml:"solver"`
	Normalization  *string `toml:"normalization" yaml:"normalization"`
	Frontier       *string `toml:"frontier" yaml:"frontier"`

	TSVWeight    *float64 `toml:"tsv_weight" yaml:"tsv_weight"`
	EdgeWeight   *float64 `toml:"edge_weight" yaml:"edge_weight"`
	RelativeMass *bool    `toml:"relative_mass" yaml:"relative_mass"`

	AncestorPenalty   *float64 `toml:"ancestor_penalty" yaml:"ancestor_penalty"`
	DescendantPenalty *float64 `toml:"descendant_penalty" yaml:"descendant_penalty"`
	SiblingPenalty    *float64 `toml:"sibling_penalty" yaml:"sibling_penalty"`
	AncestorSigma     *float64 `toml:"ancestor_sigma" yaml:"ancestor_sigma"`
	DescendantSigma   *float64 `toml:"descendant_sigma" yaml:"descendant_sigma"`
	SiblingSigma      *float64 `toml:"sibling_sigma" yaml:"sibling_sigma"`
	CertaintyDecay    *float64 `toml:"certainty_decay" yaml:"certainty_decay"`
	NodeSkipping      *bool    `toml:"node_skipping" yaml:"node_skipping"`

	MaxSolutionSets  *int  `toml:"max_solution_sets" yaml:"max_solution_sets"`
	MaxChildren      *int  `toml:"max_children" yaml:"max_children"`
	IncludeRoots     *bool `toml:"include_roots" yaml:"include_roots"`
	GreedyCompletion *bool `toml:"greedy_completion" yaml:"greedy_completion"`
	Workers          *int  `toml:"workers" yaml:"workers"`

	BPMaxIter   *int `toml:"bp_max_iter" yaml:"bp_max_iter"`
	BPInsurance *int `toml:"bp_insurance" yaml:"bp_insurance"`

	Strict *bool    `toml:"strict" yaml:"strict"`
	Eps    *float64 `toml:"eps" yaml:"eps"`
}

// Load builds matcher options:
//
//  1. A .env file in the working directory, if present, is loaded into the
//     environment (existing variables win).
//  2. The file at path, when path is non-empty, has ${VAR} references
//     expanded and is decoded by extension on top of match.DefaultOptions.
//  3. DAGMATCH_* variables override the result (see ApplyEnv).
//
// The options are validated before they are returned.
func Load(path string) (match.Options, error) {
	opts := match.DefaultOptions()
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return opts, fmt.Errorf("%w: .env: %v", ErrDotEnv, err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return opts, err
		}
		f, err := Decode(data, filepath.Ext(path))
		if err != nil {
			return opts, fmt.Errorf("%s: %w", path, err)
		}
		if err := f.Apply(&opts); err != nil {
			return opts, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := ApplyEnv(&opts, os.LookupEnv); err != nil {
		return opts, err
	}

	return opts, opts.Validate()
}

// Decode expands ${VAR} references in data and decodes it according to
// ext (".toml", ".yaml", ".yml" or ".json"). Unknown keys are rejected.
func Decode(data []byte, ext string) (File, error) {
	var f File
	text, err := envsubst.EvalEnv(string(data))
	if err != nil {
		return f, err
	}

	switch strings.ToLower(ext) {
	case ".toml":
		md, err := toml.Decode(text, &f)
		if err != nil {
			return f, err
		}
		if extra := md.Undecoded(); len(extra) > 0 {
			return f, fmt.Errorf("%w: %s", ErrUnknownKey, extra[0])
		}
	case ".yaml", ".yml", ".json":
		var doc yaml.Node
		if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
			return f, err
		}
		// An empty document leaves every option at its default.
		if len(doc.Content) == 0 {
			return f, nil
		}
		if err := checkKeys(doc.Content[0]); err != nil {
			return f, err
		}
		if err := doc.Content[0].Decode(&f); err != nil {
			return f, err
		}
	default:
		return f, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	return f, nil
}

// yamlKeys lists the keys File accepts, taken from its yaml tags.
var yamlKeys = func() map[string]bool {
	keys := make(map[string]bool)
	t := reflect.TypeOf(File{})
	for i := 0; i < t.NumField(); i++ {
		if k, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ","); k != "" {
			keys[k] = true
		}
	}
	return keys
}()

// checkKeys rejects top-level mapping keys that do not name an option.
func checkKeys(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if k := n.Content[i].Value; !yamlKeys[k] {
			return fmt.Errorf("%w: %s (line %d)", ErrUnknownKey, k, n.Content[i].Line)
		}
	}
	return nil
}

// Apply copies every key present in f onto opts.
func (f File) Apply(opts *match.Options) error {
	enums := []struct {
		v     *string
		parse func(string) error
	}{
		{f.Algorithm, func(s string) (err error) { opts.Algorithm, err = match.ParseAlgorithm(s); return }},
		{f.NodeSimilarity, func(s string) (err error) { opts.NodeSimilarity, err = match.ParseNodeSimilarity(s); return }},
		{f.Sort, func(s string) (err error) { opts.Sort, err = match.ParseSortPolicy(s); return }},
		{f.Solver, func(s string) (err error) { opts.Solver, err = match.ParseSolver(s); return }},
		{f.Normalization, func(s string) (err error) { opts.Normalization, err = match.ParseNormalization(s); return }},
		{f.Frontier, func(s string) (err error) { opts.Frontier, err = match.ParseFrontierPolicy(s); return }},
	}
	for _, e := range enums {
		if e.v == nil {
			continue
		}
		if err := e.parse(*e.v); err != nil {
			return err
		}
	}

	setFloat(&opts.TSVWeight, f.TSVWeight)
	setFloat(&opts.EdgeWeight, f.EdgeWeight)
	setBool(&opts.RelativeMass, f.RelativeMass)
	setFloat(&opts.AncestorPenalty, f.AncestorPenalty)
	setFloat(&opts.DescendantPenalty, f.DescendantPenalty)
	setFloat(&opts.SiblingPenalty, f.SiblingPenalty)
	setFloat(&opts.AncestorSigma, f.AncestorSigma)
	setFloat(&opts.DescendantSigma, f.DescendantSigma)
	setFloat(&opts.SiblingSigma, f.SiblingSigma)
	setFloat(&opts.CertaintyDecay, f.CertaintyDecay)
	setBool(&opts.NodeSkipping, f.NodeSkipping)
	setInt(&opts.MaxSolutionSets, f.MaxSolutionSets)
	setInt(&opts.MaxChildren, f.MaxChildren)
	setBool(&opts.IncludeRoots, f.IncludeRoots)
	setBool(&opts.GreedyCompletion, f.GreedyCompletion)
	setInt(&opts.Workers, f.Workers)
	setInt(&opts.BPMaxIter, f.BPMaxIter)
	setInt(&opts.BPInsurance, f.BPInsurance)
	setBool(&opts.Strict, f.Strict)
	setFloat(&opts.Eps, f.Eps)

	return nil
}

// ApplyEnv applies the DAGMATCH_* overrides found through lookup:
// ALGORITHM, SOLVER, FRONTIER, MAX_SOLUTION_SETS, MAX_CHILDREN, WORKERS and STRICT.
func ApplyEnv(opts *match.Options, lookup func(string) (string, bool)) error {
	var f File
	for _, key := range []string{"ALGORITHM", "SOLVER", "FRONTIER"} {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		switch key {
		case "ALGORITHM":
			f.Algorithm = &v
		case "SOLVER":
			f.Solver = &v
		case "FRONTIER":
			f.Frontier = &v
		}
	}
	ints := map[string]**int{
		"MAX_SOLUTION_SETS": &f.MaxSolutionSets,
		"MAX_CHILDREN":      &f.MaxChildren,
		"WORKERS":           &f.Workers,
	}
	for key, dst := range ints {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", ErrBadEnv, EnvPrefix, key, v)
		}
		*dst = &n
	}
	if v, ok := lookup(EnvPrefix + "STRICT"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sSTRICT=%q", ErrBadEnv, EnvPrefix, v)
		}
		f.Strict = &b
	}

	if err := f.Apply(opts); err != nil {
		return fmt.Errorf("%w: %v", ErrBadEnv, err)
	}
	return nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
