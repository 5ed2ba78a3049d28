package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		total     int64
		wantPage  int
		wantPages int
		hasPrev   bool
		hasNext   bool
	}{
		{"empty", 3, 0, 1, 0, false, false},
		{"first of three", 1, 23, 1, 3, false, true},
		{"middle", 2, 23, 2, 3, true, true},
		{"clamped to last", 99, 23, 3, 3, true, false},
		{"below one", -4, 5, 1, 1, false, false},
		{"exact multiple", 2, 20, 2, 2, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.requested, 10, tt.total)
			assert.Equal(t, tt.wantPage, p.Number)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.hasPrev, p.HasPrev())
			assert.Equal(t, tt.hasNext, p.HasNext())
		})
	}
}

func TestPrevNext(t *testing.T) {
	p := New(2, 10, 30)
	assert.Equal(t, 10, p.Offset())
	assert.Equal(t, 1, *p.PrevPage())
	assert.Equal(t, 3, *p.NextPage())

	last := New(3, 10, 30)
	assert.Nil(t, last.NextPage())
	assert.True(t, New(1, 10, 0).Empty())
}
