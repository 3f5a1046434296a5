// Package batch splits large record sets into fixed-size chunks and runs a
// handler over them with bounded concurrency.
//
// Bulk factor imports use it so a single transaction never covers more than
// one chunk and memory stays proportional to the chunk size:
//   - chunk size between MinChunkSize and MaxChunkSize (default 500)
//   - the first failing chunk cancels the rest
//   - progress snapshots after every completed chunk
package batch
