package tools

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// MolarTool computes the molar mass of a chemical formula.
type MolarTool struct{}

func NewMolarTool() *MolarTool {
	return &MolarTool{}
}

func (t *MolarTool) Name() string {
	return "mm"
}

func (t *MolarTool) Describe() string {
	return "/mm <formula> — molar mass in g/mol, e.g. /mm Ca(OH)2"
}

// atomicMass covers the elements a school-level chemistry course reaches for.
var atomicMass = map[string]float64{
	"H": 1.008, "He": 4.0026, "Li": 6.94, "Be": 9.0122, "B": 10.81,
	"C": 12.011, "N": 14.007, "O": 15.999, "F": 18.998, "Ne": 20.180,
	"Na": 22.990, "Mg": 24.305, "Al": 26.982, "Si": 28.085, "P": 30.974,
	"S": 32.06, "Cl": 35.45, "Ar": 39.948,
	"K": 39.098, "Ca": 40.078, "Sc": 44.956, "Ti": 47.867, "V": 50.942,
	"Cr": 51.996, "Mn": 54.938, "Fe": 55.845, "Co": 58.933, "Ni": 58.693,
	"Cu": 63.546, "Zn": 65.38, "Br": 79.904, "Ag": 107.868, "I": 126.904,
	"Ba": 137.327, "Sr": 87.62, "Sn": 118.71, "Pb": 207.2, "Hg": 200.59,
}

func (t *MolarTool) Run(args string) (string, error) {
	formula := strings.TrimSpace(args)
	if formula == "" {
		return "", NewError(KindInvalidArguments, t.Name(), fmt.Errorf("usage: /mm Ca(OH)2"))
	}

	total, err := MolarMass(formula)
	if err != nil {
		return "", NewError(KindComputationFailed, t.Name(), err)
	}
	return fmt.Sprintf("⚗️ M(%s) = %.4f g/mol", formula, total), nil
}

// MolarMass sums the atomic masses of every element in the formula,
// honoring counts and parenthesized groups.
func MolarMass(formula string) (float64, error) {
	counts, err := countFormula(formula)
	if err != nil {
		return 0, err
	}
	if len(counts) == 0 {
		return 0, fmt.Errorf("empty formula")
	}

	var total float64
	var missing []string
	for elem, n := range counts {
		m, ok := atomicMass[elem]
		if !ok {
			missing = append(missing, elem)
			continue
		}
		total += m * float64(n)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return 0, fmt.Errorf("elements not in the local table: %s", strings.Join(missing, ", "))
	}
	return total, nil
}

type formulaParser struct {
	s   []rune
	pos int
}

func countFormula(formula string) (map[string]int, error) {
	p := &formulaParser{s: []rune(formula)}
	counts, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.s) {
		return nil, fmt.Errorf("unbalanced parentheses")
	}
	return counts, nil
}

// parseGroup walks element symbols, counts and parenthesized subgroups until
// the formula or the enclosing group ends.
func (p *formulaParser) parseGroup() (map[string]int, error) {
	counts := make(map[string]int)

	for p.pos < len(p.s) {
		switch c := p.s[p.pos]; {
		case unicode.IsSpace(c):
			p.pos++

		case c == '(':
			p.pos++
			sub, err := p.parseGroup()
			if err != nil {
				return nil, err
			}
			if p.pos >= len(p.s) || p.s[p.pos] != ')' {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
			p.pos++
			mult := p.parseCount()
			for elem, n := range sub {
				counts[elem] += n * mult
			}

		case c == ')':
			return counts, nil

		case unicode.IsUpper(c):
			elem := p.parseElement()
			counts[elem] += p.parseCount()

		default:
			return nil, fmt.Errorf("invalid symbol %q in formula", string(c))
		}
	}
	return counts, nil
}

// parseElement reads one uppercase letter plus an optional lowercase one.
func (p *formulaParser) parseElement() string {
	start := p.pos
	p.pos++
	if p.pos < len(p.s) && unicode.IsLower(p.s[p.pos]) {
		p.pos++
	}
	return string(p.s[start:p.pos])
}

// parseCount reads a trailing integer, defaulting to 1.
func (p *formulaParser) parseCount() int {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 1
	}
	n := 0
	for _, d := range p.s[start:p.pos] {
		n = n*10 + int(d-'0')
	}
	return n
}
