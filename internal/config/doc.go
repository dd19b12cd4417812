// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for langchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - --config flag
//   - ~/.langchat/config.toml
//   - ~/.langchat/config.json
//   - Built-in defaults
//
// # Example
//
//	[backend]
//	protocol = "queued"
//	base_url = "https://example.hf.space/gradio_api"
//
//	[server]
//	addr = "127.0.0.1:8080"
//
// # Usage
//
//	cfg := config.Global()
//	fmt.Println(cfg.Backend.BaseURL)
//
//	go config.Watch(ctx, path, func(c *config.Config) { ... })
package config
