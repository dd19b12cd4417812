// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the langchat
// terminal widget. All colors use Lip Gloss AdaptiveColor for automatic
// light/dark detection.
//
// # Usage
//
//	theme := styles.NewTheme(cfg.UI.Theme)
//	theme.SetSize(msg.Width, msg.Height)
//	label := theme.UserLabel.Render("You")
package styles
