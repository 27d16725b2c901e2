// Package notify delivers promotion and batch notifications.
//
// Deployed environments publish to an SNS topic; local runs post to an ntfy
// topic. When neither is configured the noop service is used so callers never
// branch on notification availability.
package notify
