package httptransport

import (
	"carbonledger/internal/ledger"
	"carbonledger/pkg/domain"
)

type registerProjectResponse struct {
	ProjectID domain.ProjectID `json:"project_id"`
}

type balanceResponse struct {
	Address string        `json:"address"`
	Balance domain.Amount `json:"balance"`
}

type creditsResponse struct {
	Address string       `json:"address"`
	Credits []ledger.Lot `json:"credits"`
}

type retireResponse struct {
	TotalRetired domain.Amount `json:"total_retired"`
}

type totalRetiredResponse struct {
	TotalRetired domain.Amount `json:"total_retired"`
}

type projectsResponse struct {
	Projects []ledger.Project `json:"projects"`
}
