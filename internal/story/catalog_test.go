/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownHelper(t *testing.T) {
	assert.True(t, KnownHelper("hasFlag"))
	assert.True(t, KnownHelper("if"))
	assert.True(t, KnownHelper("uppercase"))
	assert.False(t, KnownHelper("definitelyNotAHelper"))
}

func TestHelperNamesDeduplicated(t *testing.T) {
	names := HelperNames()
	require.NotEmpty(t, names)

	seen := map[string]bool{}
	for _, name := range names {
		assert.False(t, seen[name], "duplicate helper name %q", name)
		seen[name] = true
	}

	// Names listed in more than one category ("isEmpty" is comparison and
	// array, "currentTime" is vn and time) appear once.
	assert.True(t, seen["isEmpty"])
	assert.True(t, seen["currentTime"])
}

func TestHelperNamesOrderStable(t *testing.T) {
	names := HelperNames()
	// Catalog order starts with the VN helpers.
	assert.Equal(t, "hasFlag", names[0])
	assert.Equal(t, names, HelperNames())
}

func TestCategoryOfFirstListingWins(t *testing.T) {
	c, ok := CategoryOf("currentTime")
	require.True(t, ok)
	assert.Equal(t, HelperVN, c)

	c, ok = CategoryOf("uppercase")
	require.True(t, ok)
	assert.Equal(t, HelperString, c)

	_, ok = CategoryOf("nope")
	assert.False(t, ok)
}

func TestHelpersIn(t *testing.T) {
	timeHelpers := HelpersIn(HelperTime)
	assert.Contains(t, timeHelpers, "formatDate")
	assert.Nil(t, HelpersIn(HelperCategory("bogus")))
}

func TestSignatures(t *testing.T) {
	sig, ok := SignatureOf("hasFlag")
	require.True(t, ok)
	assert.Equal(t, ArityExact, sig.Kind)
	assert.Equal(t, []int{1}, sig.Counts)
	assert.Equal(t, []string{"string"}, sig.Types)

	sig, ok = SignatureOf("rollDice")
	require.True(t, ok)
	assert.Equal(t, ArityChoice, sig.Kind)
	assert.Equal(t, []int{1, 2}, sig.Counts)

	sig, ok = SignatureOf("add")
	require.True(t, ok)
	assert.Equal(t, ArityAtLeast, sig.Kind)

	_, ok = SignatureOf("debug")
	assert.False(t, ok)
}

func TestEverySignatureNamesAKnownHelper(t *testing.T) {
	for name := range signatures {
		assert.True(t, KnownHelper(name), "signature for unknown helper %q", name)
	}
}

func TestEveryBlockHelperIsKnown(t *testing.T) {
	for name := range blockHelpers {
		assert.True(t, KnownHelper(name), "block helper %q not in catalog", name)
	}
}

func TestUsableAsBlock(t *testing.T) {
	assert.True(t, UsableAsBlock("if"))
	assert.True(t, UsableAsBlock("hasFlag"))
	assert.False(t, UsableAsBlock("uppercase"))
	assert.False(t, UsableAsBlock("notAHelper"))
}
