// Package config loads the topchat server configuration from config.yaml.
//
// Sections:
//   - server  : bind (127.0.0.1), http_port (7032), ui_dir, log_level
//   - producer: interval (200ms), idle_interval (1s)
//   - inbox   : capacity (64)
//   - session : write_timeout (10s), pong_wait (60s), read_limit (4096)
//   - metrics : source (procfs|node_exporter), proc_path, endpoint, timeout
//   - alerts  : rules and webhooks
//
// Load(path) applies defaults, unmarshals the file (skipped for an empty
// path), applies TOPCHAT_* environment overrides, then validates.
//
// Watch(ctx, path, onChange) uses fsnotify to reload the file on write and
// hands the new Config to onChange. It re-adds the watch after every event
// so atomic-save editors keep working.
package config
