/*
Package config provides the orchestrator's configuration lifecycle: layered
loading, runtime hot reload, and change diffing.

# Overview

Configuration merges in precedence order: defaults -> YAML file ->
environment variables (ULTRAI_ prefix).

# Core types

  - Config: the top-level aggregate (Server, Orchestrator, Models, Redis,
    Log, Telemetry)
  - Loader: builder-pattern loader (WithConfigPath, WithEnvPrefix,
    WithValidator)
  - HotReloadManager: watches the config file, diffs old vs. new by
    reflection, and dispatches OnChange/OnReload callbacks; restart-required
    fields are tracked separately from fields applied live
  - FileWatcher: polling-plus-debounce file change detector backing
    HotReloadManager

# Capabilities

  - Layered loading: YAML file, environment variables, defaults
  - Hot reload: file-watch triggered, field-level change detection
  - Validation: a built-in baseline plus an optional custom ValidateFunc

# Usage

	cfg, err := config.NewLoader().
		WithConfigPath("config.yaml").
		WithEnvPrefix("ULTRAI").
		Load()
*/
package config
