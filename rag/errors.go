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

package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrLanguageModelRequired is returned when no language model is provided.
	ErrLanguageModelRequired = errors.New("language model required")

	// ErrRetrieverRequired is returned when no retriever is provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrInvalidTemperature is returned for temperatures outside [0, 2].
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 2")
)

// Query pipeline stages.
const (
	StageRewrite  = "rewrite"
	StageRetrieve = "retrieve"
	StageGenerate = "generate"
)

// StageError reports which step of the query pipeline failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
