package idcard

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/uosphere/idcard-verification/dto"
)

var rollMarkerRe = regexp.MustCompile(`(?i)2K\d{2}`)

// Parser turns a raw OCR transcript of a student ID card into structured
// fields. It holds only compiled patterns and is safe for concurrent use.
type Parser struct {
	policy Policy
	logger *slog.Logger

	institutionRe *regexp.Regexp
	rollRes       []*regexp.Regexp
	keywordRe     *regexp.Regexp
	labelExclRe   *regexp.Regexp
	degreeLineRe  *regexp.Regexp
	degreeFieldRe *regexp.Regexp
	fieldRe       *regexp.Regexp
	deptNameRe    *regexp.Regexp
	departments   map[string]string
	knownFields   map[string]bool

	nameStrategies []nameStrategy
}

// NewParser compiles the policy's patterns. A nil logger discards debug output.
func NewParser(policy Policy, logger *slog.Logger) (*Parser, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid card policy: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &Parser{
		policy:      policy,
		logger:      logger,
		departments: make(map[string]string, len(policy.Departments)),
		knownFields: make(map[string]bool),
	}

	p.institutionRe = regexp.MustCompile(policy.InstitutionPattern)
	for _, rp := range policy.RollPatterns {
		p.rollRes = append(p.rollRes, regexp.MustCompile(`(?i)`+rp))
	}
	// config loaders lower-case map keys, so lookups go through upper-cased codes
	for code, name := range policy.Departments {
		p.departments[strings.ToUpper(code)] = name
	}

	var err error
	if p.keywordRe, err = wholeWordPattern(policy.Keywords); err != nil {
		return nil, fmt.Errorf("invalid keyword list: %w", err)
	}
	if p.labelExclRe, err = wholeWordPattern(policy.LabelExclusions); err != nil {
		return nil, fmt.Errorf("invalid label exclusions: %w", err)
	}

	tokens := strings.Join(policy.DegreeTokens, "|")
	if p.degreeLineRe, err = regexp.Compile(`(?i)^(?:` + tokens + `)\b`); err != nil {
		return nil, fmt.Errorf("invalid degree tokens: %w", err)
	}

	fields := quoteAll(longestFirst(policy.FieldsOfStudy))
	if len(fields) > 0 {
		alt := strings.Join(fields, "|")
		p.degreeFieldRe, err = regexp.Compile(
			`(?i)\b(?:` + tokens + `)\.?(?:\s*\(\s*(?:` + alt + `)\s*\)?|\s+(?:` + alt + `))`)
		if err != nil {
			return nil, fmt.Errorf("invalid degree tokens: %w", err)
		}
	}

	known := append([]string{}, policy.FieldsOfStudy...)
	for _, name := range policy.Departments {
		known = append(known, strings.ToUpper(name))
	}
	for _, name := range known {
		p.knownFields[strings.ToUpper(strings.TrimSpace(name))] = true
	}
	deptPattern := `\(([^)]+)\)`
	if alts := quoteAll(longestFirst(known)); len(alts) > 0 {
		deptPattern += `|\b(` + strings.Join(alts, "|") + `)\b`
	}
	p.deptNameRe = regexp.MustCompile(`(?i)` + deptPattern)
	if p.fieldRe, err = wholeWordPattern(known); err != nil {
		return nil, fmt.Errorf("invalid fields of study: %w", err)
	}

	p.nameStrategies = []nameStrategy{
		{name: "labeled", find: p.labeledName},
		{name: "capitalized_line", find: p.capitalizedLine},
		{name: "before_roll_number", find: p.nameBeforeRoll},
	}

	return p, nil
}

// Policy returns a copy of the policy the parser was built with.
func (p *Parser) Policy() Policy {
	return p.policy
}

// Parse runs the gates in order and stops at the first one that fails.
// The returned error is always a *ParseFailure.
func (p *Parser) Parse(text string, confidence float64) (*dto.ExtractedData, error) {
	if math.IsNaN(confidence) {
		confidence = 0
	}

	if n := utf8.RuneCountInString(text); n < p.policy.MinTextLength {
		p.logger.Debug("id card rejected", "gate", "length", "length", n, "min", p.policy.MinTextLength)
		return nil, unreadable()
	}

	normalized := normalizeText(text)
	if !p.institutionRe.MatchString(normalized) {
		p.logger.Debug("id card rejected", "gate", "institution")
		return nil, wrongInstitution()
	}

	if confidence < p.policy.MinConfidence {
		p.logger.Debug("id card rejected", "gate", "confidence", "confidence", confidence, "min", p.policy.MinConfidence)
		return nil, lowConfidence(confidence)
	}

	roll, ok := p.extractRollNumber(normalized)
	if !ok {
		p.logger.Debug("id card rejected", "gate", "roll_number")
		return nil, rollNumberNotFound()
	}

	if failure := p.checkBatch(roll); failure != nil {
		p.logger.Debug("id card rejected", "gate", "batch", "batch", roll.batch(), "kind", failure.Kind)
		return nil, failure
	}

	name, ok := p.extractName(text)
	if !ok {
		p.logger.Debug("id card rejected", "gate", "name")
		return nil, nameNotFound()
	}

	degree := p.extractDegreeProgram(text)
	department := p.departmentName(degree, roll.dept)
	if degree == "" {
		degree = fmt.Sprintf("BS (%s)", department)
	}

	data := &dto.ExtractedData{
		Name:             name,
		RollNo:           roll.String(),
		Department:       department,
		Batch:            roll.batch(),
		DegreeProgram:    degree,
		UniversityHeader: p.policy.UniversityHeader,
		CardType:         p.policy.CardType,
	}
	p.logger.Debug("id card parsed", "roll_no", data.RollNo, "department", data.Department)
	return data, nil
}

type rollNumber struct {
	year string
	dept string
	num  string
}

func (r rollNumber) String() string {
	return "2K" + r.year + "/" + r.dept + "/" + r.num
}

func (r rollNumber) batch() string {
	return "2K" + r.year
}

func (p *Parser) extractRollNumber(normalized string) (rollNumber, bool) {
	for _, re := range p.rollRes {
		m := re.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		return rollNumber{
			year: m[1],
			dept: strings.ToUpper(m[2]),
			num:  m[3],
		}, true
	}
	return rollNumber{}, false
}

func (p *Parser) checkBatch(roll rollNumber) *ParseFailure {
	yy, err := strconv.Atoi(roll.year)
	if err != nil {
		return rollNumberNotFound()
	}
	batchYear := 2000 + yy
	current := p.policy.currentYear()

	if current-batchYear > p.policy.GraduationWindowYears {
		return graduated(p.policy.oldestBatchLabel())
	}
	if batchYear > current {
		return futureBatch()
	}
	return nil
}

// wholeWordPattern builds a case-insensitive literal alternation that only
// matches whole words, so NAME does not match NAMEER. Returns nil for an empty list.
func wholeWordPattern(words []string) (*regexp.Regexp, error) {
	alts := quoteAll(longestFirst(words))
	if len(alts) == 0 {
		return nil, nil
	}
	return regexp.Compile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
}

func quoteAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, regexp.QuoteMeta(w))
		}
	}
	return out
}

func longestFirst(words []string) []string {
	out := append([]string{}, words...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}
