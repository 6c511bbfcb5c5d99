// Package account implements the account steps of a provisioning run: deciding
// whether a new account is needed, authorizing the requestor, verifying the
// financial account and allocating the new account.
//
// Steps in this package talk to the identity, financial and account services
// through producer pools named by their producerPool setting.
package account
