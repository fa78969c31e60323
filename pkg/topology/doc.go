// Package topology resolves how an unordered selection of curve segments
// connects: it classifies the selection (single segment, open path, cycle or
// degenerate), groups and orders segments into traversable runs, and decides
// which segments must be reversed so that each run forms one continuous
// chain.
//
// Endpoints are compared with geom.VertexEpsilon everywhere so that the
// classification, the ordering and the orientation never disagree.
package topology
