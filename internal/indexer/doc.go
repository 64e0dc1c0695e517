// Package indexer orchestrates the build pipeline: file discovery,
// chunking, embedding, index construction, persistence, and atomic
// publication. Builds for the same repository are coalesced so at most
// one runs at a time.
package indexer
