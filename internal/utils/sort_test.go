package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedKeys(t *testing.T) {
	m := map[int]string{7: "a", 1: "b", 3: "c"}
	assert.Equal(t, []int{1, 3, 7}, SortedKeys(m, true))
	assert.Equal(t, []int{7, 3, 1}, SortedKeys(m, false))
	assert.Empty(t, SortedKeys(map[string]int{}, true))
}
