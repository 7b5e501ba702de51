// Package provider defines the interface to third-party generation backends.
// Each adapter (gemini, openrouter, groq) speaks its backend's HTTP protocol
// internally and works on the shared Request, Response and Error types, so
// retry and fallback wrappers compose without knowing which backend is
// behind them.
package provider
