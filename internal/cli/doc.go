// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the langchat command tree.
//
// # Commands
//
//   - (none), tui: terminal UI
//   - serve: web host
//   - ask: single question, plain or --json output
//   - chat: line-based REPL with history and slash commands
//   - config: show/get/set/init/path
//   - version
//
// Persistent flags --config, --protocol, --base-url and --log-level apply to
// every command and override the config file and environment.
//
// # Usage
//
//	func main() {
//	    os.Exit(cli.Execute())
//	}
package cli
