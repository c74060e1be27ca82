package httptransport

// Request bodies for mutating endpoints. Field names mirror the ledger call
// surface: issuer, project_id, amount, vintage, recipient, from, to, owner.

type registerProjectRequest struct {
	Issuer      string `json:"issuer"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	ProjectType string `json:"project_type"`
	Description string `json:"description"`
}

type issueCreditsRequest struct {
	Issuer    string `json:"issuer"`
	ProjectID uint32 `json:"project_id"`
	Amount    int64  `json:"amount"`
	Vintage   uint32 `json:"vintage"`
	Recipient string `json:"recipient"`
}

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

type retireRequest struct {
	Owner  string `json:"owner"`
	Amount int64  `json:"amount"`
}
