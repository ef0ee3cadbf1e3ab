// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color decides whether a writer should receive colour and wraps strings
// in ANSI escape codes. NO_COLOR and FORCE_COLOR are honoured, otherwise colour
// is used only for terminals.
package color
