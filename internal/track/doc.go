// Package track links cloud elements across frames and reduces the link graph
// to long-lived lineages.
//
// The stages run strictly in order: every frame is labeled and linked into the
// full graph, isolated nodes are dropped, the graph is pruned to representative
// paths, and each weakly connected component of the pruned graph is linearized
// for classification.
package track
