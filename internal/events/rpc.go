package events

import "time"

// RPCCallStart is emitted before a JSON-RPC call to the upstream ledger.
type RPCCallStart struct {
	Method   string
	Endpoint string
}

// RPCCallFinish is emitted after an upstream JSON-RPC call completes.
type RPCCallFinish struct {
	Method   string
	Endpoint string
	Err      error
	Duration time.Duration
}
