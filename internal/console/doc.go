// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package console reads operator commands.
//
// Lines is a cancellable line reader: Prompt returns as soon as its context is
// cancelled, without waiting for the operator to press enter. Terminal wraps
// peterh/liner for a single interactive question with line editing and Ctrl+C.
package console
