package quiz

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"mentor/pkg/llm"
)

// Bank generates quiz questions locally when the model cannot. Questions
// are deterministic in (sessionID, index, subject) so a retried turn asks
// the same thing, and the supply never runs out.
type Bank struct{}

func NewBank() *Bank {
	return &Bank{}
}

// Question produces one multiple-choice question for the subject.
func (b *Bank) Question(sessionID int64, index int, subject, topic string) *llm.QuizPayload {
	rng := rand.New(rand.NewSource(bankSeed(sessionID, index, subject)))

	var q bankQuestion
	switch strings.ToLower(subject) {
	case "calculus":
		q = calculusQuestion(rng)
	case "algebra":
		q = algebraQuestion(rng)
	case "physics":
		q = physicsQuestion(rng)
	case "statistics":
		q = statisticsQuestion(rng)
	case "chemistry":
		q = chemistryQuestion(rng)
	default:
		q = generalQuestion(rng)
	}

	options := append([]string{q.correct}, q.distractors[:]...)
	correctIdx := 0

	// shuffle presentation order, tracking where the correct option lands
	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
		switch correctIdx {
		case i:
			correctIdx = j
		case j:
			correctIdx = i
		}
	})

	return &llm.QuizPayload{
		Question:     q.prompt,
		Options:      options,
		CorrectIndex: correctIdx,
		Explanation:  q.explanation,
	}
}

func bankSeed(sessionID int64, index int, subject string) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%d:%s", sessionID, index, strings.ToLower(subject))
	return int64(h.Sum64())
}

type bankQuestion struct {
	prompt      string
	correct     string
	distractors [3]string
	explanation string
}

func calculusQuestion(rng *rand.Rand) bankQuestion {
	a := rng.Intn(8) + 2
	n := rng.Intn(4) + 2
	return bankQuestion{
		prompt:  fmt.Sprintf("What is the derivative of %dx^%d?", a, n),
		correct: fmt.Sprintf("%dx^%d", a*n, n-1),
		distractors: [3]string{
			fmt.Sprintf("%dx^%d", a, n-1),
			fmt.Sprintf("%dx^%d", a*n, n),
			fmt.Sprintf("%dx^%d", a+n, n-1),
		},
		explanation: fmt.Sprintf("Power rule: d/dx(ax^n) = a·n·x^(n-1) = %dx^%d.", a*n, n-1),
	}
}

func algebraQuestion(rng *rand.Rand) bankQuestion {
	a := rng.Intn(9) + 2
	x := rng.Intn(9) + 1
	b := rng.Intn(20) + 1
	c := a*x + b
	return bankQuestion{
		prompt:  fmt.Sprintf("Solve for x: %dx + %d = %d", a, b, c),
		correct: fmt.Sprintf("x = %d", x),
		distractors: [3]string{
			fmt.Sprintf("x = %d", x+1),
			fmt.Sprintf("x = %d", x-1),
			fmt.Sprintf("x = %d", x+2),
		},
		explanation: fmt.Sprintf("Subtract %d from both sides, then divide by %d: x = %d.", b, a, x),
	}
}

func physicsQuestion(rng *rand.Rand) bankQuestion {
	u := rng.Intn(10) + 1
	acc := rng.Intn(5) + 1
	t := rng.Intn(6) + 2
	v := u + acc*t
	return bankQuestion{
		prompt: fmt.Sprintf(
			"A body starts at %d m/s and accelerates at %d m/s² for %d s. What is its final speed?",
			u, acc, t),
		correct: fmt.Sprintf("%d m/s", v),
		distractors: [3]string{
			fmt.Sprintf("%d m/s", u+acc),
			fmt.Sprintf("%d m/s", acc*t),
			fmt.Sprintf("%d m/s", v+acc),
		},
		explanation: fmt.Sprintf("v = u + at = %d + %d·%d = %d m/s.", u, acc, t, v),
	}
}

func statisticsQuestion(rng *rand.Rand) bankQuestion {
	n := 4
	nums := make([]int, n)
	sum := 0
	for i := range nums {
		// keep the mean integral
		nums[i] = (rng.Intn(5) + 1) * n
		sum += nums[i]
	}
	mean := sum / n

	parts := make([]string, n)
	for i, v := range nums {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return bankQuestion{
		prompt:  fmt.Sprintf("What is the mean of %s?", strings.Join(parts, ", ")),
		correct: fmt.Sprintf("%d", mean),
		distractors: [3]string{
			fmt.Sprintf("%d", mean+1),
			fmt.Sprintf("%d", mean-1),
			fmt.Sprintf("%d", sum),
		},
		explanation: fmt.Sprintf("Mean = sum / count = %d / %d = %d.", sum, n, mean),
	}
}

func chemistryQuestion(rng *rand.Rand) bankQuestion {
	substances := []struct {
		name  string
		molar int
	}{
		{"water (H₂O)", 18},
		{"carbon dioxide (CO₂)", 44},
		{"sodium chloride (NaCl)", 58},
		{"glucose (C₆H₁₂O₆)", 180},
	}
	s := substances[rng.Intn(len(substances))]
	moles := rng.Intn(4) + 1
	grams := moles * s.molar
	return bankQuestion{
		prompt: fmt.Sprintf(
			"How many moles are in %d g of %s? (molar mass ≈ %d g/mol)",
			grams, s.name, s.molar),
		correct: fmt.Sprintf("%d mol", moles),
		distractors: [3]string{
			fmt.Sprintf("%d mol", moles+1),
			fmt.Sprintf("%d mol", grams),
			fmt.Sprintf("%d mol", moles*2+1),
		},
		explanation: fmt.Sprintf("n = m / M = %d / %d = %d mol.", grams, s.molar, moles),
	}
}

func generalQuestion(rng *rand.Rand) bankQuestion {
	a := rng.Intn(12) + 3
	b := rng.Intn(12) + 3
	return bankQuestion{
		prompt:  fmt.Sprintf("What is %d × %d?", a, b),
		correct: fmt.Sprintf("%d", a*b),
		distractors: [3]string{
			fmt.Sprintf("%d", a*b+a),
			fmt.Sprintf("%d", a*b-b),
			fmt.Sprintf("%d", a*(b+1)+1),
		},
		explanation: fmt.Sprintf("%d × %d = %d.", a, b, a*b),
	}
}
