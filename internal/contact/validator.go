// Package contact decides whether a candidate contact may leave the waterfall:
// duplicate-person block-list, email domain match and email syntax.
package contact

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/sells-group/course-intel/internal/model"
)

// Reason names why a contact was rejected.
type Reason string

const (
	ReasonDuplicatePerson Reason = "duplicate_person_id"
	ReasonDomainMismatch  Reason = "domain_mismatch"
	ReasonMalformedEmail  Reason = "malformed_email"
	ReasonNoCourseDomain  Reason = "no_course_domain"
)

// Decision is the outcome of validating one contact. DropEmail marks an
// accepted contact whose email cannot be checked and must not be kept.
type Decision struct {
	Accepted  bool   `json:"accepted"`
	DropEmail bool   `json:"drop_email,omitempty"`
	Reason    Reason `json:"reason,omitempty"`
}

// Rejection pairs a dropped contact with its reason.
type Rejection struct {
	Contact model.Contact `json:"contact"`
	Reason  Reason        `json:"reason"`
}

var emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+'\-]+@[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?)+$`)

// Validator applies the contact acceptance rules. It does no I/O.
type Validator struct {
	blocklist *Blocklist
}

// NewValidator creates a validator backed by bl. A nil bl blocks the seed ids only.
func NewValidator(bl *Blocklist) *Validator {
	if bl == nil {
		bl = NewBlocklist()
	}
	return &Validator{blocklist: bl}
}

// Blocklist returns the block-list the validator consults.
func (v *Validator) Blocklist() *Blocklist { return v.blocklist }

// Validate checks c against courseDomain. Rules apply in order: blocked
// person id, email domain mismatch, malformed email. A contact with neither
// email nor person id is a name/title candidate and is accepted. Without a
// courseDomain no email can be tied to the course, so the contact is kept
// as a name/title candidate with its email dropped.
func (v *Validator) Validate(c model.Contact, courseDomain string) Decision {
	if v.blocklist.Contains(c.PersonID) {
		return Decision{Reason: ReasonDuplicatePerson}
	}
	if !c.HasEmail() {
		return Decision{Accepted: true}
	}

	if NormalizeDomain(courseDomain) == "" {
		return Decision{Accepted: true, DropEmail: true, Reason: ReasonNoCourseDomain}
	}

	domain := EmailDomain(c.Email)
	if domain != "" && !DomainMatches(domain, courseDomain) {
		return Decision{Reason: ReasonDomainMismatch}
	}
	if domain == "" || !emailRe.MatchString(c.Email) {
		return Decision{Reason: ReasonMalformedEmail}
	}
	return Decision{Accepted: true}
}

// Filter validates every contact, preserving order. Each rejection is logged
// at WARN. Contacts accepted with DropEmail come back without their email.
func (v *Validator) Filter(contacts []model.Contact, courseDomain string) ([]model.Contact, []Rejection) {
	accepted := make([]model.Contact, 0, len(contacts))
	var rejected []Rejection
	for _, c := range contacts {
		d := v.Validate(c, courseDomain)
		if d.Accepted && d.DropEmail {
			zap.L().Info("contact: email dropped",
				zap.String("name", c.Name),
				zap.String("email", c.Email),
				zap.String("reason", string(d.Reason)),
				zap.String("source", c.Source),
			)
			c.Email, c.EmailConfidence, c.EmailMethod = "", 0, ""
		}
		if d.Accepted {
			accepted = append(accepted, c)
			continue
		}
		zap.L().Warn("contact: REJECTED",
			zap.String("name", c.Name),
			zap.String("reason", string(d.Reason)),
			zap.String("person_id", c.PersonID),
			zap.String("email", c.Email),
			zap.String("course_domain", courseDomain),
			zap.String("source", c.Source),
		)
		rejected = append(rejected, Rejection{Contact: c, Reason: d.Reason})
	}
	return accepted, rejected
}
