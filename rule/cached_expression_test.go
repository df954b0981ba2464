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

package rule_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ayushmaanbhav/product-farm-sub000/rule"
)

type fakeProgram struct{ tier rule.Tier }

func (f fakeProgram) ProgramTier() rule.Tier { return f.tier }

func TestCachedExpressionIncrementInvocationsIsMonotonic(t *testing.T) {
	ce := rule.NewCachedExpression("r1", nil)
	require.Equal(t, int64(0), ce.InvocationCount())
	require.Equal(t, int64(1), ce.IncrementInvocations())
	require.Equal(t, int64(2), ce.IncrementInvocations())
	require.Equal(t, int64(2), ce.InvocationCount())
}

func TestCachedExpressionTryPromoteCompilesOnce(t *testing.T) {
	ce := rule.NewCachedExpression("r1", nil)
	require.Nil(t, ce.Program())

	var compileCalls int
	compile := func() (rule.CompiledProgram, error) {
		compileCalls++
		return fakeProgram{tier: rule.Tier1}, nil
	}

	p1, err := ce.TryPromote(compile)
	require.NoError(t, err)
	require.NotNil(t, p1)

	p2, err := ce.TryPromote(compile)
	require.NoError(t, err)
	require.Equal(t, p1, p2)
	require.Equal(t, 1, compileCalls, "a second TryPromote must not recompile")
}

func TestCachedExpressionTryPromoteIsRaceSafe(t *testing.T) {
	ce := rule.NewCachedExpression("r1", nil)
	var compileCalls int
	var mu sync.Mutex
	compile := func() (rule.CompiledProgram, error) {
		mu.Lock()
		compileCalls++
		mu.Unlock()
		return fakeProgram{tier: rule.Tier1}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ce.TryPromote(compile)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, compileCalls, "only one goroutine should win the compile race")
}
