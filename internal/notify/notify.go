// Package notify delivers composed statements to chat channels.
package notify

// backends live in chat.go; delivery and result reporting in manager.go
