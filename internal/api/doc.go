// Package api decodes promotion requests and dispatches them to the
// promotion and scheduling components, producing status-code plus body
// responses regardless of what goes wrong underneath.
package api
