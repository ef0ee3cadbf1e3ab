// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package controller drives the vehicle.
//
// A Controller owns the command state and the velocity publisher. Its publisher
// loop sends the current command at a fixed rate until the stop sign is seen, then
// sends one final command with zero linear velocity. EmergencyStop zeroes the whole
// command and publishes it at once, and may be called from any goroutine.
// Every publish happens under one lock, so once EmergencyStop has published
// nothing else can publish a non-zero command after it.
//
// Driver wires a Controller to a transport and the operator console: it checks
// that the required topics exist, asks the startup question and runs the session.
package controller
