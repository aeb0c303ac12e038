// Package logger wraps zap with a global sugared logger, context helpers
// (ToContext, FromContext, WithName, WithKV), level parsing, and
// ctx-first convenience functions such as Debugf and InfoKV.
//
// Output goes to stderr so that stdout carries only command results.
// The version core never logs; the pipeline, store, and CLI do.
package logger
