// Package logging builds the zap logger shared by every command. Console
// output goes to stderr so it never mixes with command results on stdout.
// When a log file is configured, a JSON core rotated by lumberjack is
// teed alongside the console core.
package logging
