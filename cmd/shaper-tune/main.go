// shaper-tune - resonance tuning host for input shaper calibration
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

func main() {
	Execute()
}
