package rng

import "math"

// Constants of the Knuth subtractive generator behind System.Random.
const (
	legacyMBig  = math.MaxInt32
	legacyMSeed = 161803398
)

// legacySource reproduces the .NET Framework System.Random stream: a
// subtractive lagged Fibonacci generator over a 56-entry table, warmed up
// with four scramble rounds. Seed 42 here yields the same integers and
// doubles as new System.Random(42).
type legacySource struct {
	seedArray [56]int32
	inext     int
	inextp    int
}

// NewLegacy returns a Source matching new System.Random(seed).
func NewLegacy(seed int32) Source {
	s := &legacySource{}

	subtraction := seed
	if subtraction == math.MinInt32 {
		subtraction = math.MaxInt32
	} else if subtraction < 0 {
		subtraction = -subtraction
	}
	mj := int32(legacyMSeed) - subtraction
	s.seedArray[55] = mj
	mk := int32(1)
	for i := 1; i < 55; i++ {
		// The table is filled in stride-21 order.
		ii := (21 * i) % 55
		s.seedArray[ii] = mk
		mk = mj - mk
		if mk < 0 {
			mk += legacyMBig
		}
		mj = s.seedArray[ii]
	}
	for k := 1; k < 5; k++ {
		for i := 1; i < 56; i++ {
			s.seedArray[i] -= s.seedArray[1+(i+30)%55]
			if s.seedArray[i] < 0 {
				s.seedArray[i] += legacyMBig
			}
		}
	}
	s.inext = 0
	s.inextp = 21
	return s
}

func (s *legacySource) internalSample() int32 {
	locINext := s.inext + 1
	if locINext >= 56 {
		locINext = 1
	}
	locINextp := s.inextp + 1
	if locINextp >= 56 {
		locINextp = 1
	}

	retVal := s.seedArray[locINext] - s.seedArray[locINextp]
	if retVal == legacyMBig {
		retVal--
	}
	if retVal < 0 {
		retVal += legacyMBig
	}
	s.seedArray[locINext] = retVal

	s.inext = locINext
	s.inextp = locINextp
	return retVal
}

func (s *legacySource) sample() float64 {
	return float64(s.internalSample()) * (1.0 / legacyMBig)
}

func (s *legacySource) NextInt() int32 {
	return s.internalSample()
}

func (s *legacySource) NextIntMax(max int32) int32 {
	if max <= 0 {
		return 0
	}
	return int32(s.sample() * float64(max))
}

func (s *legacySource) NextIntRange(min, max int32) int32 {
	if min >= max {
		return min
	}
	span := int64(max) - int64(min)
	if span <= math.MaxInt32 {
		return int32(s.sample()*float64(span)) + min
	}
	// Spans past int32 use one double draw instead of the reference
	// generator's large-range resampling. No engine draw crosses that span.
	return int32(int64(s.sample()*float64(span)) + int64(min))
}

func (s *legacySource) NextFloat() float64 {
	return s.sample()
}

func (s *legacySource) NextBytes(buf []byte) {
	for i := range buf {
		buf[i] = byte(s.internalSample() % 256)
	}
}
