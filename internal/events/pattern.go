// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import "strings"

// matchPattern reports whether an event type matches a subscription
// pattern. "*" matches everything; a trailing ".*" matches the whole
// subtree ("task.*" matches "task.created"); anything else is exact.
func matchPattern(pattern, eventType string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, ".*") {
		prefix := strings.TrimSuffix(pattern, ".*")
		return strings.HasPrefix(eventType, prefix+".")
	}
	return pattern == eventType
}
