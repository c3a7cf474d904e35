package avito

import "github.com/shopspring/decimal"

// BalanceInfo holds the three balance components of an account wallet
type BalanceInfo struct {
	Real    decimal.Decimal `json:"real"`
	Bonus   decimal.Decimal `json:"bonus"`
	Advance decimal.Decimal `json:"advance"`
}

// Total returns the combined spendable balance. Expense tracking observes this
// sum, not the individual components.
func (b BalanceInfo) Total() decimal.Decimal {
	return b.Real.Add(b.Bonus).Add(b.Advance)
}

// CallStats holds call counters
type CallStats struct {
	Total    int `json:"total"`
	Answered int `json:"answered"`
	Missed   int `json:"missed"`
}

// ChatStats holds messenger counters
type ChatStats struct {
	Total int `json:"total"`
	New   int `json:"new"`
}

// ReviewStats holds review counters. Today is set on daily snapshots, Weekly
// on weekly ones.
type ReviewStats struct {
	Total  int `json:"total"`
	Today  int `json:"today"`
	Weekly int `json:"weekly"`
}

// ItemStats holds listing counters
type ItemStats struct {
	Total                 int `json:"total"`
	WithXLPromotion       int `json:"withXlPromotion"`
	WithToolsSubscription int `json:"withToolsSubscription"`
}

// TrafficStats holds listing traffic counters
type TrafficStats struct {
	Views     int `json:"views"`
	Contacts  int `json:"contacts"`
	Favorites int `json:"favorites"`
}

// ExpenseDetail is one category of the expense breakdown
type ExpenseDetail struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
	Items  []string        `json:"items,omitempty"`
}

// ExpenseBreakdown holds the provider-side expense report
type ExpenseBreakdown struct {
	Total   decimal.Decimal          `json:"total"`
	Details map[string]ExpenseDetail `json:"details,omitempty"`
}

// StatsSnapshot is one daily or weekly metrics snapshot for an account.
// Weekly snapshots additionally carry a Period label.
type StatsSnapshot struct {
	Date   string `json:"date"`
	Period string `json:"period,omitempty"`

	Calls          CallStats    `json:"calls"`
	Chats          ChatStats    `json:"chats"`
	PhonesReceived int          `json:"phonesReceived"`
	Rating         float64      `json:"rating"`
	Reviews        ReviewStats  `json:"reviews"`
	Items          ItemStats    `json:"items"`
	Statistics     TrafficStats `json:"statistics"`

	BalanceReal  decimal.Decimal `json:"balanceReal"`
	BalanceBonus decimal.Decimal `json:"balanceBonus"`
	Advance      decimal.Decimal `json:"advance"`
	CPABalance   decimal.Decimal `json:"cpaBalance"`

	Expenses ExpenseBreakdown `json:"expenses"`
}
