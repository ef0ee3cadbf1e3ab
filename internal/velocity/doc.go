// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package velocity holds the vehicle's command state: the velocity command that is
// published to the vehicle and the stop flag raised by the stop sign.
//
// State is safe for concurrent use. Its only mutators are Halt and Zero, so once
// the linear velocity reaches zero it stays zero.
package velocity
