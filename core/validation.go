// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
)

// ValidateMessages validates a chat request's conversation.
//
// Validation rules:
//   - At least one message
//   - Every role is user or assistant
//   - The last message (the question) is non-blank after trimming
//
// Earlier messages may be blank; they only feed the history transcript.
func ValidateMessages(messages []Message) error {
	if len(messages) == 0 {
		return ErrNoMessages
	}

	for i, m := range messages {
		if err := ValidateRole(m.Role); err != nil {
			return fmt.Errorf("%w: message %d: %w", ErrInvalidMessage, i, err)
		}
	}

	if strings.TrimSpace(messages[len(messages)-1].Content) == "" {
		return ErrEmptyQuestion
	}

	return nil
}

// ValidateRole validates that a Role has a known value.
func ValidateRole(role Role) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return nil
}

// ValidateSource validates a document source descriptor.
func ValidateSource(source Source) error {
	switch source.Type {
	case SourceTypeURL, SourceTypeUpload, SourceTypeRaw:
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalidSource, ErrUnknownSourceType, source.Type)
	}

	if strings.TrimSpace(source.Source) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSource, ErrEmptySource)
	}

	if source.Type == SourceTypeURL {
		s := strings.ToLower(source.Source)
		if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
			return fmt.Errorf("%w: url must use http or https", ErrInvalidSource)
		}
	}

	return nil
}

// ValidateChunk validates a Chunk before it is written to the index.
//
// Validation rules:
//   - Text must not be empty
//   - Namespace must not be empty
//
// NOT validated:
//   - Vector (empty until embedded)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Namespace == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyNamespace)
	}

	return nil
}
