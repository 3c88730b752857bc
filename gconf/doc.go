/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each extension keeps a single configuration object, serialized and stored
under a key derived from the extension name. The configuration is loaded from
the genesis file during the chain initialization and is read back by handlers
whenever they need it.

Not being able to get a configuration value is a critical condition for the
application. Handlers must fail the operation instead of falling back to
defaults.
*/
package gconf
