package force

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itohio/gripmate/pkg/mailbox"
)

func seq(values ...uint16) mailbox.Channel {
	i := 0
	return mailbox.ChannelFunc(func() uint16 {
		v := values[i%len(values)]
		i++
		return v
	})
}

func TestReader_ZeroFilledStart(t *testing.T) {
	r := NewReader(seq(800), 0)

	want := []int{100, 200, 300, 400, 500, 600, 700, 800, 800}
	for i, w := range want {
		got := r.Read()
		assert.Equal(t, 800, got.Raw)
		assert.Equal(t, w, got.Smoothed, "read %d", i)
	}
}

func TestReader_TruncatedMean(t *testing.T) {
	r := NewReader(seq(1, 2, 3, 4, 5, 6, 7, 9), 8)
	var last Reading
	for range 8 {
		last = r.Read()
	}
	// 37/8 = 4.625
	assert.Equal(t, 4, last.Smoothed)
	assert.Equal(t, 9, last.Raw)
	assert.Equal(t, last, r.Last())
}

func TestReader_OldestSlotReplaced(t *testing.T) {
	r := NewReader(seq(4000, 4000, 4000, 4000, 0, 0, 0, 0), 4)
	for range 4 {
		r.Read()
	}
	assert.Equal(t, 4000, r.Last().Smoothed)

	assert.Equal(t, 3000, r.Read().Smoothed)
	assert.Equal(t, 2000, r.Read().Smoothed)
	assert.Equal(t, 1000, r.Read().Smoothed)
	assert.Equal(t, 0, r.Read().Smoothed)
}
