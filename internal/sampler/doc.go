// Package sampler drives compiled collections to produce records.
//
// Each record is one drive of the pipeline
//
//	TryAggregate(retry(distinct(node)))
//
// where distinct is a TryFilterMap that hashes the record and, when
// Options.Unique is set, rejects hashes already produced, and retry is a
// chain of TryOrElse stages that restart the node after a failure.
// Because distinct buffers a drive's fragments until the record is
// accepted, fragments of failed or rejected attempts never reach the
// aggregated batch.
//
// Collections are sampled concurrently, one goroutine per collection,
// each with its own random source derived from the run seed and the
// collection name. Output order and content do not depend on scheduling.
package sampler
