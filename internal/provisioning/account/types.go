package account

// Step types.
const (
	TypeDetermineAccount   = "DETERMINE_NEW_OR_EXISTING_ACCOUNT"
	TypeAuthorizeRequestor = "AUTHORIZE_NEW_ACCOUNT_REQUESTOR"
	TypeVerifyFinancial    = "VERIFY_FINANCIAL_ACCOUNT"
	TypeGenerateNewAccount = "GENERATE_NEW_ACCOUNT"
)

// Result property names.
const (
	PropCreateNewAccount       = "createNewAccount"
	PropAccountID              = "accountId"
	PropIsAuthorized           = "isAuthorized"
	PropFinancialAccountValid  = "financialAccountValid"
	PropFinancialAccountNumber = "financialAccountNumber"
	PropNewAccountID           = "newAccountId"
	PropAllocatedNewAccount    = "allocatedNewAccount"
)

// Remote services and objects.
const (
	serviceIdentity  = "identity"
	serviceFinancial = "financial"
	serviceAccount   = "account"

	objectPerson           = "Person"
	objectFinancialAccount = "FinancialAccount"
	objectAccount          = "Account"
)
