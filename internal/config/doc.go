// Package config manages user-level settings stored at ~/.tooldex/config.yaml.
// Values can be overridden by TOOLDEX_* environment variables. Path-valued
// settings are left empty when unset; userdata fills in the home-directory
// defaults.
package config
