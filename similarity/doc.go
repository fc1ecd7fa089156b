// Package similarity supplies the attribute and topological comparisons the
// matcher scores candidate node pairs with.
//
// Two pieces live here:
//
//   - Measurer, the pluggable attribute comparison (node distance, node
//     similarity, edge similarity), and Attribute, its default implementation
//     over the dag.Node attribute vectors.
//   - Signatures, the topological signature vectors of a graph, and
//     TSVSimilarity, which compares two of them.
//
// Nothing in this package logs or panics on user input; vector arithmetic and
// eigen-decompositions are delegated to gonum.
package similarity
