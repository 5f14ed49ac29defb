// Package distance provides the vector math primitives used by the
// retrieval engine: inner products and L2 normalization.
//
// All vectors stored in the engine are unit length, so the inner product
// of a stored vector with a normalized query equals their cosine
// similarity and lies in [-1, 1].
package distance
