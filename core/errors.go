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

import "errors"

// Domain validation errors
var (
	// ErrNoMessages indicates a chat request carried an empty message list.
	ErrNoMessages = errors.New("no messages provided")

	// ErrEmptyQuestion indicates the latest message is blank after trimming.
	ErrEmptyQuestion = errors.New("empty question provided")

	// ErrInvalidMessage indicates a Message failed validation.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidRole indicates an unknown Role value.
	ErrInvalidRole = errors.New("invalid message role")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyContent indicates the Text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyNamespace indicates a chunk or query has no namespace.
	ErrEmptyNamespace = errors.New("namespace cannot be empty")

	// ErrInvalidSource indicates a Source descriptor failed validation.
	ErrInvalidSource = errors.New("invalid source")

	// ErrUnknownSourceType indicates a SourceType outside url, upload and raw.
	ErrUnknownSourceType = errors.New("unknown source type")

	// ErrEmptySource indicates the Source field of a descriptor is empty.
	ErrEmptySource = errors.New("source cannot be empty")
)

// IsValidation reports whether err stems from rejecting caller input.
// Such errors are safe to show to the caller verbatim.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNoMessages) ||
		errors.Is(err, ErrEmptyQuestion) ||
		errors.Is(err, ErrInvalidMessage) ||
		errors.Is(err, ErrInvalidSource)
}
