// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"fmt"
	"strings"
)

const systemPreamble = "You are a helpful assistant for software design discussions. " +
	"Help the user plan and design their implementation. Be concise but thorough. " +
	"Respond in the same language as the user."

// BuildPrompt composes the text written to the agent's stdin. On a resumed
// session the agent reconstructs context from its own state, so the user's
// message goes through verbatim. On a fresh session the prompt carries the
// preamble and the task context the agent would otherwise lack.
func BuildPrompt(userText string, canResume bool, title, description string) string {
	if canResume {
		return userText
	}
	if strings.TrimSpace(description) == "" {
		description = "(no description)"
	}
	return fmt.Sprintf("%s\n\nTask Title: %s\nTask Description: %s\n\nUser: %s",
		systemPreamble, title, description, userText)
}
