package tools

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// StatsTool summarizes a list of numbers.
type StatsTool struct{}

func NewStatsTool() *StatsTool {
	return &StatsTool{}
}

func (t *StatsTool) Name() string {
	return "stats"
}

func (t *StatsTool) Describe() string {
	return "/stats <numbers> — descriptive statistics, e.g. /stats 2 4 4 4 5 5 7 9"
}

func (t *StatsTool) Run(args string) (string, error) {
	nums, err := ParseNumbers(args)
	if err != nil {
		return "", NewError(KindInvalidArguments, t.Name(), err)
	}
	if len(nums) < 2 {
		return "", NewError(KindInvalidArguments, t.Name(),
			fmt.Errorf("need at least two numbers"))
	}

	s := Summarize(nums)
	var b strings.Builder
	fmt.Fprintf(&b, "n=%d\n", s.N)
	fmt.Fprintf(&b, "mean=%s\n", FormatNumber(s.Mean))
	fmt.Fprintf(&b, "median=%s\n", FormatNumber(s.Median))
	fmt.Fprintf(&b, "stddev=%s\n", FormatNumber(s.StdDev))
	fmt.Fprintf(&b, "min=%s  max=%s\n", FormatNumber(s.Min), FormatNumber(s.Max))
	fmt.Fprintf(&b, "q1=%s  q3=%s", FormatNumber(s.Q1), FormatNumber(s.Q3))
	return b.String(), nil
}

// ParseNumbers extracts floats from space- or comma-separated input.
func ParseNumbers(args string) ([]float64, error) {
	fields := strings.FieldsFunc(args, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';' || r == '\t' || r == '\n'
	})

	var nums []float64
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		nums = append(nums, v)
	}
	return nums, nil
}

// Summary holds descriptive statistics for a sample.
type Summary struct {
	N      int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
	Q1     float64
	Q3     float64
}

// Summarize computes descriptive statistics. StdDev is the sample
// standard deviation (n-1 denominator).
func Summarize(nums []float64) Summary {
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)

	n := len(sorted)
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range sorted {
		d := v - mean
		sq += d * d
	}
	stddev := math.Sqrt(sq / float64(n-1))

	return Summary{
		N:      n,
		Mean:   mean,
		Median: percentile(sorted, 0.5),
		StdDev: stddev,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Q1:     percentile(sorted, 0.25),
		Q3:     percentile(sorted, 0.75),
	}
}

// percentile uses linear interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
