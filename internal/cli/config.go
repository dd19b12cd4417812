// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Subcommands:
//   show (default)      Display the effective configuration
//   get <key>           Print one value
//   set <key> <value>   Set a value in the config file
//   init                Write a default config file
//   path                Show the config file path
//
// Keys use dot notation, e.g. backend.protocol or server.addr.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/langchat/internal/config"
)

func newConfigCommand(g *globalOptions) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Example: `  langchat config
  langchat config get backend.protocol
  langchat config set backend.base_url https://example.hf.space/gradio_api
  langchat config set server.trusted_proxies 10.0.0.0/8,127.0.0.1/32`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.OutOrStdout(), g, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print as JSON")

	show := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.OutOrStdout(), g, jsonOut)
		},
	}
	show.Flags().BoolVar(&jsonOut, "json", false, "print as JSON")

	get := &cobra.Command{
		Use:       "get KEY",
		Short:     "Print one configuration value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.GetAllKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			v, err := cfg.Get(args[0])
			if err != nil {
				return &CommandError{Command: "config", Action: "get", Reason: "unknown key", Err: err, Code: ExitUsageError}
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatValue(v))
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a value in the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath(g)
			if err != nil {
				return err
			}
			if err := setConfigValue(path, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", RenderConditional(SuccessStyle, "Set"), args[0], args[1])
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configFilePath(g)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return &CommandError{Command: "config", Action: "init", Reason: path + " exists (use --force to overwrite)", Code: ExitUsageError}
			}
			if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
				return &CommandError{Command: "config", Action: "init", Reason: "cannot create directory", Err: err, Code: ExitConfigError}
			}
			if err := config.SaveTOML(config.Default(), path); err != nil {
				return &CommandError{Command: "config", Action: "init", Reason: "cannot write file", Err: err, Code: ExitConfigError}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", RenderConditional(SuccessStyle, "Wrote"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	path := &cobra.Command{
		Use:   "path",
		Short: "Show the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := configFilePath(g)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.AddCommand(show, get, set, initCmd, path)
	return cmd
}

// configFilePath is --config or the default TOML location.
func configFilePath(g *globalOptions) (string, error) {
	if g.ConfigPath != "" {
		return g.ConfigPath, nil
	}
	p, err := config.ConfigPathTOML()
	if err != nil {
		return "", &CommandError{Command: "config", Action: "locate", Reason: "no home directory", Err: err, Code: ExitConfigError}
	}
	return p, nil
}

// setConfigValue updates one key in the file at path. Only the file's own
// values are written back; env and flag overrides are not persisted.
func setConfigValue(path, key, value string) error {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		var loadErr error
		if strings.HasSuffix(path, ".json") {
			loadErr = config.LoadJSON(cfg, path)
		} else {
			loadErr = config.LoadTOML(cfg, path)
		}
		if loadErr != nil {
			return &CommandError{Command: "config", Action: "set", Reason: "cannot read " + path, Err: loadErr, Code: ExitConfigError}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return &CommandError{Command: "config", Action: "set", Reason: "cannot read " + path, Err: err, Code: ExitConfigError}
	}

	if err := cfg.Set(key, value); err != nil {
		return &CommandError{Command: "config", Action: "set", Reason: "bad key or value", Err: err, Code: ExitUsageError}
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return &CommandError{Command: "config", Action: "set", Reason: "value rejected", Err: err, Code: ExitUsageError}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return &CommandError{Command: "config", Action: "set", Reason: "cannot create directory", Err: err, Code: ExitConfigError}
	}
	save := config.SaveTOML
	if strings.HasSuffix(path, ".json") {
		save = config.SaveJSON
	}
	if err := save(cfg, path); err != nil {
		return &CommandError{Command: "config", Action: "set", Reason: "cannot write " + path, Err: err, Code: ExitConfigError}
	}
	return nil
}

func runConfigShow(w io.Writer, g *globalOptions, jsonOut bool) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if jsonOut {
		return NewJSONResponse("config", cfg).Print(w)
	}

	fmt.Fprintln(w, RenderConditional(TitleStyle, "langchat configuration"))
	section := ""
	for _, key := range config.GetAllKeys() {
		if i := strings.IndexByte(key, '.'); i > 0 && key[:i] != section {
			section = key[:i]
			fmt.Fprintf(w, "\n[%s]\n", section)
		}
		v, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "  %s%s\n", RenderLabel(key), RenderConditional(ValueStyle, formatValue(v)))
	}
	return nil
}

// formatValue prints slices comma-separated and empty strings as (unset).
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return "(unset)"
		}
		return val
	case []string:
		if len(val) == 0 {
			return "(unset)"
		}
		return strings.Join(val, ",")
	default:
		return fmt.Sprint(val)
	}
}
