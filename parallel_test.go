package quill

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTask(t *testing.T) {
	t.Run("visits every item once", func(t *testing.T) {
		data := make([]int, 1000)
		for i := range data {
			data[i] = i
		}

		var hits [1000]atomic.Int32
		task(7, data, func(v int) {
			hits[v].Add(1)
		})

		for i := range hits {
			assert.Equal(t, int32(1), hits[i].Load(), "item %d", i)
		}
	})

	t.Run("more workers than items", func(t *testing.T) {
		var count atomic.Int32
		task(16, []int{1, 2, 3}, func(int) {
			count.Add(1)
		})
		assert.Equal(t, int32(3), count.Load())
	})

	t.Run("empty input", func(t *testing.T) {
		task(4, nil, func(int) {
			t.Error("must not be called")
		})
	})
}
