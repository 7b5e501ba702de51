// Package api defines the wire types shared by the askgate HTTP surface.
//
// The types mirror the JSON contract browser clients already speak:
//   - [AskRequest] / [AskResponse]: question answering (GET or POST /ask)
//   - [TelemetryRecord]: an opaque analytics blob plus receipt metadata
//   - [LicenseRequest] / [LicenseResponse]: license key verification
//   - [ErrorResponse]: the flat {"error": "..."} body of every failure
//   - [APIError]: structured error with type, param, and message
//
// The package performs no I/O.
package api
