package provisioning

// Requisition is the business request a run provisions for. Steps read it and never modify it.
type Requisition struct {
	AccountID        string `yaml:"accountId" json:"accountId"`
	AccountName      string `yaml:"accountName" json:"accountName"`
	Region           string `yaml:"region" json:"region"`
	ComplianceClass  string `yaml:"complianceClass" json:"complianceClass"`
	Requestor        string `yaml:"requestor" json:"requestor"`
	Owner            string `yaml:"owner" json:"owner"`
	VpcType          string `yaml:"vpcType" json:"vpcType"`
	FinancialAccount string `yaml:"financialAccount" json:"financialAccount"`
}
