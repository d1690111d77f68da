// Package wire defines the framing contract between the chat client core
// and the connection manager.
//
// Every frame is a single JSON text message tagged by a "type" field. The
// server is the sole authority for message identity and timing: message ids
// and timestamps are assigned on ingest, never by clients. Decoding is
// strict over a closed set of frame types, so an unknown tag is rejected at
// the boundary instead of drifting through the system unnoticed.
//
// The package also carries the close-code vocabulary and the validation
// rules both sides enforce, keeping client and server behavior aligned from
// one place.
package wire
