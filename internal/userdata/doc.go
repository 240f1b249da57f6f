// Package userdata is the outermost composition point for filesystem
// locations. It turns configuration and environment overrides into the
// resolved set of platform homes, the catalog database path, and the log
// file path, and it runs the doctor health checks over those locations.
// Core packages never resolve home-directory defaults themselves.
package userdata
