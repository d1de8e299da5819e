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

// Package search retrieves context passages for a query.
//
// A Searcher asks the vector index for the k most similar chunks (k is fixed
// per Searcher, 3 by default) and BuildContext flattens them into a single
// string, passages separated by a blank line, in ranked order. Zero hits is
// a valid outcome and produces an empty context.
package search
