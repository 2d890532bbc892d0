package reporting

import "borrowdesk/internal/borrowing"

// Summary is the dashboard aggregate for one account. Money fields are
// presented as two-decimal strings.
type Summary struct {
	ActiveBorrows   int                 `json:"activeBorrows"`
	TotalAmountDue  string              `json:"totalAmountDue"`
	Balance         string              `json:"balance"`
	TotalDebt       string              `json:"totalDebt"`
	HistoryCount    int                 `json:"historyCount"`
	OverdueCount    int                 `json:"overdueCount"`
	RecentBorrows   []*borrowing.Detail `json:"recentBorrows"`
	HasActiveBorrow bool                `json:"hasActiveBorrow"`
}
