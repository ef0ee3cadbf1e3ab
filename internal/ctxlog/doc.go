// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger through a context.Context.
//
// The default logger writes to stderr using the pretty console handler, so that
// operator prompts on stdout are not interleaved with log lines.
// The level is read from the VCTL_LOG_LEVEL environment variable and defaults to WARN.
package ctxlog
