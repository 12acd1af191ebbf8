package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// sampler lets through the first num of every den events. A zero ratio lets
// everything through.
type sampler struct {
	ratio atomic.Uint64 // num<<32 | den
	seen  atomic.Uint64
}

func newSampler(num, den int) *sampler {
	s := &sampler{}
	s.Set(num, den)
	return s
}

func (s *sampler) Set(num, den int) {
	var packed uint64
	if num > 0 && den > 0 {
		packed = uint64(min(num, den))<<32 | uint64(den)
	}
	s.ratio.Store(packed)
	s.seen.Store(0)
}

func (s *sampler) Allow() bool {
	packed := s.ratio.Load()
	if packed == 0 {
		return true
	}
	num, den := packed>>32, packed&(1<<32-1)
	return (s.seen.Add(1)-1)%den < num
}

// parseRatio accepts "N/D" or a bare "D" meaning 1/D. Zero or garbage
// yields 0/0.
func parseRatio(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	numRaw, denRaw, hasNum := strings.Cut(spec, "/")
	if !hasNum {
		numRaw, denRaw = "1", spec
	}
	num, err1 := strconv.Atoi(strings.TrimSpace(numRaw))
	den, err2 := strconv.Atoi(strings.TrimSpace(denRaw))
	if err1 != nil || err2 != nil || den <= 0 {
		return 0, 0
	}
	return num, den
}
