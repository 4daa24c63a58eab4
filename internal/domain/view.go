package domain

import "fmt"

// View is a top-level screen of the application.
type View string

const (
	ViewChat         View = "chat"
	ViewDashboard    View = "dashboard"
	ViewTransactions View = "transactions"
	ViewAccounts     View = "accounts"
	ViewSubscription View = "subscription"
)

// Views lists every view in navigation order.
var Views = []View{ViewChat, ViewDashboard, ViewTransactions, ViewAccounts, ViewSubscription}

// ParseView validates a view name.
func ParseView(name string) (View, error) {
	for _, v := range Views {
		if string(v) == name {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", name)
}
