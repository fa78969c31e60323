// Package graph provides the two small graphs used by the weld path engine:
// the vertex incidence graph that classifies a segment selection's topology,
// and the undirected segment adjacency graph searched during tangent
// propagation. Both are rebuilt from geometry and never persisted.
package graph
