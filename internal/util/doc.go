// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across langchat.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes, TruncateWidth: UTF-8 and display-width safe truncation
//   - NormalizeInput: NFC normalization used for blank-input detection
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	if util.NormalizeInput(raw) == "" {
//		return
//	}
//
//	err := util.AtomicWriteFile(path, data, 0600)
package util
