// Package engine implements the answer pipeline for askgate. The Engine
// implements transport.Answerer: it checks the enabled toggle, resolves the
// session article, decodes an attached image, builds the prompt, calls the
// chosen provider (or the default fallback chain), and cleans the answer.
package engine
