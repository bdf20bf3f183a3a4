package driven

import "context"

// RCRequest is one call to the transfer engine's remote control surface.
type RCRequest struct {
	// Command is the RC route, e.g. "sync/sync" or "job/status".
	Command string

	// Params are sent as the JSON request body.
	Params map[string]string
}

// RCResponse holds the response fields the core consumes.
type RCResponse struct {
	JobID    int64
	Finished bool
	Success  bool
	Error    string
	Version  string
}

// TransferEngine talks to a running transfer daemon.
type TransferEngine interface {
	// Call issues one RC request. Transport failures and rejected requests
	// both return an error.
	Call(ctx context.Context, req RCRequest) (*RCResponse, error)

	// Ready probes the daemon's metrics endpoint. It returns nil once the
	// daemon answers successfully.
	Ready(ctx context.Context) error
}

// EngineProcess manages the lifecycle of the transfer daemon process.
type EngineProcess interface {
	// Start launches the daemon. It returns once the process is running,
	// not once it is ready.
	Start(ctx context.Context) error

	// Stop terminates the daemon and waits for it to exit.
	Stop(ctx context.Context) error
}
