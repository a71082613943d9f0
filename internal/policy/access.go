package policy

import (
	"fmt"
	"time"

	"github.com/finchsocial/finch/internal/fingerprint"
	"github.com/finchsocial/finch/internal/models"
)

// Outcome is the terminal result of an access evaluation.
type Outcome string

const (
	OutcomeGrant      Outcome = "grant"
	OutcomeRequireOTP Outcome = "require_otp"
	OutcomeDeny       Outcome = "deny"
)

// Decision is what the login flow acts on. TrustDevice marks browsers we
// record as trusted on successful entry.
type Decision struct {
	Outcome      Outcome
	DeniedReason string
	TrustDevice  bool
}

// Evaluator applies the login access policy for one deployment.
type Evaluator struct {
	loc *time.Location
}

func NewEvaluator(loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &Evaluator{loc: loc}
}

// Evaluate runs the checks in fixed order. The mobile window check dominates:
// a mobile login outside the allowed hours is denied no matter which browser
// it comes from.
func (e *Evaluator) Evaluate(info fingerprint.ClientInfo, security models.SecuritySettings, now time.Time) Decision {
	if info.Device == models.DeviceMobile && security.MobileAccessRestricted {
		w := NewWindow(security.MobileAccessStartHour, security.MobileAccessEndHour, e.loc)
		if !w.IsOpen(now) {
			return Decision{
				Outcome: OutcomeDeny,
				DeniedReason: fmt.Sprintf("mobile access is only allowed between %d:00 and %d:00 %s",
					w.Start, w.End, e.loc.String()),
			}
		}
	}

	switch info.Browser {
	case fingerprint.BrowserBrave:
		return Decision{Outcome: OutcomeGrant}
	case fingerprint.BrowserMicrosoft:
		return Decision{Outcome: OutcomeGrant, TrustDevice: true}
	case fingerprint.BrowserChrome:
		if security.RequireOTPForChrome {
			return Decision{Outcome: OutcomeRequireOTP}
		}
		return Decision{Outcome: OutcomeGrant}
	default:
		return Decision{Outcome: OutcomeGrant}
	}
}
