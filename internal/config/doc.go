// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config holds the controller configuration.
//
// The defaults reproduce the stock controller: node vehicle_controller publishing
// 0.01 m/s forward on /cmd_vel at 10 Hz and stopping on "stop" from /stop_sign.
// A YAML file can override any field. Files are read from the local filesystem
// through FsFactory, or fetched with Hashicorp's go-getter for any other source.
package config
