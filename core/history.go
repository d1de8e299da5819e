package core

import "strings"

// Question returns the content of the latest message, the one being answered.
func Question(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}
	return messages[len(messages)-1].Content
}

// FormatHistory renders every message except the last as a transcript of
// "Human: ..." and "Assistant: ..." lines in chronological order.
// The last message is the unanswered question and never appears in the output.
func FormatHistory(messages []Message) string {
	if len(messages) < 2 {
		return ""
	}

	var sb strings.Builder
	for i, m := range messages[:len(messages)-1] {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if m.Role == RoleUser {
			sb.WriteString("Human: ")
		} else {
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(m.Content)
	}
	return sb.String()
}
