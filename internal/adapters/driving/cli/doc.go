// Package cli provides the cobra command tree for the ssai binary.
//
// Commands reach the core through package-level driving ports populated by
// the Bootstrap hook before any command that needs them runs. Commands
// annotated with skipServices (version, config) run without it.
package cli
