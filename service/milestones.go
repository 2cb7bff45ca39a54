package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/clauseguard/contractreview/backend/model"
)

// Post-signature extraction patterns. Long-form dates only; anything a real
// deployment would feed through a date-parsing library stays out of scope
// here.
var (
	datePattern = regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}\b`)

	effectiveDateContext  = regexp.MustCompile(`(?i)(?:effective|commencement) date(?: of)?\s*([^\n.]{1,50})`)
	expirationDateContext = regexp.MustCompile(`(?i)(?:expires on|expiration date|term ends on)\s*([^\n.]{1,50})`)
	noticePeriodPattern   = regexp.MustCompile(`(?i)notice of non-renewal.*?(\d+)\s+days`)

	obligationPattern = regexp.MustCompile(`([A-Z][^.!?]*?\b(?:shall|must|agrees to|is responsible for)\b[^.!?]*\.)`)
	ownPartyPattern   = regexp.MustCompile(`(?i)\b(Company|Provider|ClauseGuard)\b`)
)

const longDateLayout = "January 2, 2006"

// ExtractMilestones scans signed-contract text for key dates. It finds the
// effective date and expiration date from their surrounding context, and when
// the text states a non-renewal notice period it derives the renewal notice
// deadline by counting back from expiration. Unparseable dates are skipped.
func ExtractMilestones(text string) []model.ContractMilestone {
	var milestones []model.ContractMilestone

	if ctx := effectiveDateContext.FindStringSubmatch(text); ctx != nil {
		if raw := datePattern.FindString(ctx[1]); raw != "" {
			if date, err := time.Parse(longDateLayout, raw); err == nil {
				milestones = append(milestones, model.ContractMilestone{
					MilestoneType: model.MilestoneEffectiveDate,
					MilestoneDate: date,
					Description:   fmt.Sprintf("Extracted from: '%s'", strings.TrimSpace(ctx[0])),
				})
			}
		}
	}

	if ctx := expirationDateContext.FindStringSubmatch(text); ctx != nil {
		if raw := datePattern.FindString(ctx[1]); raw != "" {
			if expiration, err := time.Parse(longDateLayout, raw); err == nil {
				milestones = append(milestones, model.ContractMilestone{
					MilestoneType: model.MilestoneExpirationDate,
					MilestoneDate: expiration,
					Description:   fmt.Sprintf("Extracted from: '%s'", strings.TrimSpace(ctx[0])),
				})

				if notice := noticePeriodPattern.FindStringSubmatch(text); notice != nil {
					days, err := strconv.Atoi(notice[1])
					if err == nil && days > 0 {
						milestones = append(milestones, model.ContractMilestone{
							MilestoneType: model.MilestoneRenewalNoticeDeadline,
							MilestoneDate: expiration.AddDate(0, 0, -days),
							Description:   fmt.Sprintf("Calculated as %d days before expiration.", days),
						})
					}
				}
			}
		}
	}

	return milestones
}

// ExtractObligations pulls commitment sentences out of signed-contract text.
// A sentence mentioning the company side is attributed to own_company,
// anything else to the counterparty.
func ExtractObligations(text string) []model.TrackedObligation {
	var obligations []model.TrackedObligation
	for _, match := range obligationPattern.FindAllStringSubmatch(text, -1) {
		sentence := strings.TrimSpace(match[1])
		party := model.PartyCounterparty
		if ownPartyPattern.MatchString(sentence) {
			party = model.PartyOwnCompany
		}
		obligations = append(obligations, model.TrackedObligation{
			ObligationText:   sentence,
			ResponsibleParty: party,
			Status:           model.ObligationPending,
		})
	}
	return obligations
}
