package dla

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFractalDimension(t *testing.T) {
	cases := []struct {
		name    string
		ev      StickEvent
		want    float64
		defined bool
	}{
		{name: "radius one", ev: StickEvent{Index: 50, ClusterRadius: 1}},
		{name: "radius below one", ev: StickEvent{Index: 50, ClusterRadius: 0.5}},
		{name: "first stuck particle", ev: StickEvent{Index: 1, ClusterRadius: 3}},
		{name: "square law", ev: StickEvent{Index: 100, ClusterRadius: 10}, want: 2, defined: true},
		{name: "cube law", ev: StickEvent{Index: 1000, ClusterRadius: 10}, want: 3, defined: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.ev.FractalDimension()
			assert.Equal(t, tc.defined, ok)
			if !tc.defined {
				assert.Zero(t, got)
				return
			}
			assert.False(t, math.IsNaN(got) || math.IsInf(got, 0))
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestSinkFunc(t *testing.T) {
	var got []int
	s := SinkFunc(func(ev StickEvent) { got = append(got, ev.Index) })
	s.Stick(StickEvent{Index: 4})
	s.Stick(StickEvent{Index: 9})
	assert.Equal(t, []int{4, 9}, got)
}
