// Package controller is the façade an application embeds: it owns the
// persisted paired-device list, drives pairing to completion, and holds
// at most one active remote.Session at a time. Callers never touch
// pkg/pairing or pkg/remote directly.
package controller
