// Package rclone provides the transfer engine adapters for rclone's
// remote-control daemon.
//
//   - Client implements driven.TransferEngine over the RC HTTP API
//   - Process implements driven.EngineProcess by running "rclone rcd"
//
// RC calls are POST requests to http://<addr>/<route> with the parameters as
// a JSON object. Readiness is probed through the daemon's /metrics endpoint,
// which requires --rc-enable-metrics.
package rclone
