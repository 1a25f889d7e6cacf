// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conc

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestPoolSubmit(t *testing.T) {
	pool := NewPool[int](4)
	defer pool.Release()

	futures := make([]*Future[int], 0, 16)
	for i := 0; i < 16; i++ {
		i := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * 2, nil
		}))
	}

	assert.NoError(t, AwaitAll(futures...))
	for i, future := range futures {
		value, err := future.Await()
		assert.NoError(t, err)
		assert.Equal(t, i*2, value)
	}
}

func TestPoolSubmitError(t *testing.T) {
	pool := NewPool[any](2)
	defer pool.Release()

	mockErr := errors.New("some error")
	future := pool.Submit(func() (any, error) {
		return nil, mockErr
	})

	assert.False(t, future.OK())
	assert.ErrorIs(t, future.Err(), mockErr)
	assert.ErrorIs(t, AwaitAll(future), mockErr)
}

func TestGo(t *testing.T) {
	future := Go(func() (string, error) {
		return "done", nil
	})
	assert.Equal(t, "done", future.Value())
	assert.True(t, future.OK())
}
