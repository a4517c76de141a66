// Package cmd implements the command-line interface of mprpc, a msgpack-rpc
// client for calling and load testing msgpack-rpc peers.
//
// The package is organized into several subpackages:
//
//   - call: Commands that connect to a peer (call, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set through environment variables with the MPRPC_ prefix
// (e.g. MPRPC_ENDPOINT), which are read from .env and .env.local as well.
//
// See mprpc -help for a list of all commands.
package cmd
