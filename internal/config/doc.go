// Package config loads, normalizes, and validates lathe configuration from
// TOML. The resulting Config struct is passed explicitly into each component
// constructor; no package reads configuration from ambient process state.
package config
