// Object pools for reducing GC pressure in hot paths
//
// The G-code front end parses one command per console line; the
// argument map and field slice of each command come from pools so a
// long tuning session does not churn allocations.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pool

import (
	"sync"
)

// ArgsMap pool - for G-code argument maps
var argsMapPool = sync.Pool{
	New: func() any {
		return make(map[string]string, 8) // Pre-allocate common size
	},
}

// GetArgsMap gets a string map from the pool
func GetArgsMap() map[string]string {
	return argsMapPool.Get().(map[string]string)
}

// PutArgsMap returns a string map to the pool after clearing it
func PutArgsMap(m map[string]string) {
	if m == nil {
		return
	}
	clear(m)
	argsMapPool.Put(m)
}

// StringSlice pool - for string slices (e.g., from strings.Fields)
var stringSlicePool = sync.Pool{
	New: func() any {
		s := make([]string, 0, 16)
		return &s
	},
}

// GetStringSlice gets a string slice from the pool
func GetStringSlice() *[]string {
	s := stringSlicePool.Get().(*[]string)
	*s = (*s)[:0]
	return s
}

// PutStringSlice returns a string slice to the pool
func PutStringSlice(s *[]string) {
	if s == nil || cap(*s) > 256 {
		return
	}
	// Clear to allow GC of string contents
	for i := range *s {
		(*s)[i] = ""
	}
	*s = (*s)[:0]
	stringSlicePool.Put(s)
}
