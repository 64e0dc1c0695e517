// Package index provides the in-memory vector search structure and the
// process-wide registry of built indices.
//
// An Index is built once over a repository snapshot's embedded chunks and
// is immutable afterwards, which makes arbitrary concurrent Search calls
// safe without locking. Similarity is cosine: vectors are L2-normalized at
// build time and scored by inner product. Result ordering is fully
// deterministic, with ties broken by chunk index then file path.
//
// The Registry owns the repo-id → index mapping and serializes builds with
// singleflight: a second build request for a repository already building
// joins the in-flight build instead of starting a duplicate.
package index
