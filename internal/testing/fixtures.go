package testing

import (
	"strconv"

	"github.com/cloudprov/provisioner/internal/messaging"
)

// Identity answers "Query Person" with one person whose authorizedAccountCreator is authorized.
func Identity(authorized bool) Handler {
	return Route(map[string]Handler{
		"Query Person": func(req messaging.Request) ([]messaging.Object, error) {
			return []messaging.Object{{
				"userId":                   req.Fields["userId"],
				"authorizedAccountCreator": strconv.FormatBool(authorized),
			}}, nil
		},
	})
}

// Financial answers "Query FinancialAccount" with one account that is active or closed.
func Financial(active bool) Handler {
	status := "CLOSED"
	if active {
		status = "ACTIVE"
	}
	return Route(map[string]Handler{
		"Query FinancialAccount": func(req messaging.Request) ([]messaging.Object, error) {
			return []messaging.Object{{
				"financialAccountNumber": req.Fields["financialAccountNumber"],
				"status":                 status,
			}}, nil
		},
	})
}

// Accounts answers "Generate Account" with newAccountID and accepts "Delete Account".
func Accounts(newAccountID string) Handler {
	return Route(map[string]Handler{
		"Generate Account": Respond(messaging.Object{"accountId": newAccountID}),
		"Delete Account":   Respond(),
	})
}

// Networks answers "Generate VpcNetwork" with cidr and reservationID and accepts "Delete VpcNetwork".
func Networks(cidr, reservationID string) Handler {
	return Route(map[string]Handler{
		"Generate VpcNetwork": Respond(messaging.Object{"cidr": cidr, "reservationId": reservationID}),
		"Delete VpcNetwork":   Respond(),
	})
}
