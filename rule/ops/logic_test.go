// Copyright 2026 Product-FARM contributors.
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

package ops_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
	"github.com/ayushmaanbhav/product-farm-sub000/rule/ops"
)

func TestNotAndDoubleNot(t *testing.T) {
	require.False(t, ops.Not(rule.Bool(true)).AsBool())
	require.True(t, ops.Not(rule.Int(0)).AsBool())
	require.True(t, ops.DoubleNot(rule.String("x")).AsBool())
}
