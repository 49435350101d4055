package rag

import "strings"

// Intent names the record section a query asks about.
type Intent string

// IntentNone means no section keyword matched.
const IntentNone Intent = ""

const (
	IntentAccountSummary Intent = "ACCOUNT SUMMARY"
	IntentCardDetails    Intent = "CARD DETAILS"
	IntentLoanDetails    Intent = "LOAN DETAILS"
	IntentTransactions   Intent = "TRANSACTIONS"
)

type intentRule struct {
	keywords []string
	intent   Intent
}

// Checked in order; the first rule with a keyword in the query wins.
var intentRules = []intentRule{
	{keywords: []string{"balance", "account"}, intent: IntentAccountSummary},
	{keywords: []string{"card"}, intent: IntentCardDetails},
	{keywords: []string{"loan"}, intent: IntentLoanDetails},
	{keywords: []string{"transaction"}, intent: IntentTransactions},
}

// ClassifyIntent maps a query to a section label by substring keywords on
// the lower-cased query.
func ClassifyIntent(query string) Intent {
	q := strings.ToLower(query)
	for _, rule := range intentRules {
		if containsAny(q, rule.keywords) {
			return rule.intent
		}
	}
	return IntentNone
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
