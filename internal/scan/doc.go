// Package scan fans a list of addresses out to a bounded pool of workers
// and collects the positive verdicts.
//
// Each Run owns its job queue and result slice, and the Coordinator owns
// the progress counter. Nothing is kept in package variables, so
// independent scans can run side by side, even on one Coordinator.
//
// The queue is a buffered channel filled with every address before the
// workers start. Workers are errgroup goroutines that drain it until it is
// empty, and Wait is the join barrier. Each address is therefore
// classified exactly once, and the worker count changes throughput only.
package scan
