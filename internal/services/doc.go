// Package services defines the error classification shared by storage and
// collaborator clients. Components wrap failures with a sentinel marker so
// boundaries can convert them into structured results without string
// matching.
package services
