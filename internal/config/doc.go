// Package config defines the editor configuration and its TOML loader.
//
// Configuration resolves in three layers, later layers overriding earlier
// ones: built-in defaults, the optional TOML file, and BLOCKPRESS_*
// environment variables. A missing config file is not an error; the
// defaults produce a fully working editor.
package config
