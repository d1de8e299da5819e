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

import "strings"

// Locale is a two-letter tag selecting prompt and response language.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleArabic  Locale = "ar"
)

// DefaultLocale is used when a request omits the locale or sends one we don't support.
const DefaultLocale = LocaleEnglish

// SupportedLocales lists every locale with a prompt set.
var SupportedLocales = []Locale{LocaleEnglish, LocaleArabic}

// ParseLocale maps a tag such as "ar", "AR" or "ar-EG" onto a supported Locale.
// Unknown or empty tags yield DefaultLocale.
func ParseLocale(tag string) Locale {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	for _, l := range SupportedLocales {
		if string(l) == tag {
			return l
		}
	}
	return DefaultLocale
}

// Language returns the English name of the locale's language.
func (l Locale) Language() string {
	switch l {
	case LocaleArabic:
		return "Arabic"
	default:
		return "English"
	}
}
