// Package config loads match.Options from configuration files.
//
// Supported formats are TOML (.toml) and YAML or JSON (.yaml, .yml, .json).
// Keys are the snake_case option names used in validation messages, and
// enumerations take the names accepted by the match.Parse* functions:
//
//	algorithm = "search"          # search | greedy | assignment
//	solver = "exact"              # exact | bp
//	frontier = "fifo"             # fifo | best-first
//	normalization = "max-nodes"   # max-nodes | mean-nodes | query-nodes | none
//	max_solution_sets = ${MATCH_BUDGET:-500}
//	tsv_weight = 0.3
//
// ${VAR} references are expanded from the environment before decoding, a
// .env file in the working directory is loaded first, and DAGMATCH_*
// variables override the search budget after decoding.
package config
