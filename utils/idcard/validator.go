package idcard

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/uosphere/idcard-verification/dto"
)

var (
	canonicalRollRe  = regexp.MustCompile(`^2K(\d{2})/[A-Z]{2,4}/\d+$`)
	canonicalBatchRe = regexp.MustCompile(`^2K(\d{2})$`)
)

const studentMarker = "STUDENT"

// Validation messages shown to the user.
const (
	MsgNoData            = "No data extracted"
	MsgInvalidRollNumber = "Invalid roll number format. Expected format: 2K25/CSE/87"
	MsgInvalidBatch      = "Invalid batch format. Expected format: 2K25"
	MsgBatchMismatch     = "Batch does not match roll number"
	MsgGraduated         = "This student has likely graduated. Only current students can register."
	MsgFutureBatch       = "Invalid batch year. Cannot register future students."
	MsgNameRequired      = "Student name is required"
	MsgWrongUniversity   = "This does not appear to be a University of Sindh ID card"
	MsgStaffCard         = "This appears to be a staff card, not a student card"
)

// Validator re-checks a record that may not have come from Parser, such as
// one submitted by a client. Its rules mirror Parser's but are evaluated
// on the finished record.
type Validator struct {
	windowYears int
	header      string
	now         func() time.Time
}

func NewValidator(policy Policy) *Validator {
	now := policy.Now
	if now == nil {
		now = time.Now
	}
	header := policy.UniversityHeader
	if header == "" {
		header = UniversityHeader
	}
	return &Validator{
		windowYears: policy.GraduationWindowYears,
		header:      strings.ToUpper(header),
		now:         now,
	}
}

// Validate runs every check and reports all violations.
func (v *Validator) Validate(data *dto.ExtractedData) dto.ValidationResult {
	if data == nil {
		return dto.ValidationResult{Valid: false, Errors: []string{MsgNoData}}
	}

	errs := []string{}

	rollMatch := canonicalRollRe.FindStringSubmatch(data.RollNo)
	if rollMatch == nil {
		errs = append(errs, MsgInvalidRollNumber)
	}

	if batchMatch := canonicalBatchRe.FindStringSubmatch(data.Batch); batchMatch == nil {
		errs = append(errs, MsgInvalidBatch)
	} else {
		if rollMatch != nil && rollMatch[1] != batchMatch[1] {
			errs = append(errs, MsgBatchMismatch)
		}
		yy, _ := strconv.Atoi(batchMatch[1])
		batchYear := 2000 + yy
		current := v.now().Year()
		if current-batchYear > v.windowYears {
			errs = append(errs, MsgGraduated)
		}
		if batchYear > current {
			errs = append(errs, MsgFutureBatch)
		}
	}

	if len(strings.TrimSpace(data.Name)) < minNameLength {
		errs = append(errs, MsgNameRequired)
	}

	if !strings.Contains(strings.ToUpper(data.UniversityHeader), v.header) {
		errs = append(errs, MsgWrongUniversity)
	}

	if !strings.Contains(strings.ToUpper(data.CardType), studentMarker) {
		errs = append(errs, MsgStaffCard)
	}

	return dto.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
