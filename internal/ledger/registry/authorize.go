package registry

import (
	"carbonledger/internal/ledger"
	"carbonledger/pkg/domain"
	dErrors "carbonledger/pkg/domain-errors"
)

// AuthorizeIssuer checks that claimed is the account registered as the
// project's issuer. Issuance is the only amount-creating event, so this is
// the gate that prevents minting against someone else's project.
func AuthorizeIssuer(project ledger.Project, claimed domain.AccountID) error {
	if project.Issuer != claimed {
		return dErrors.New(dErrors.CodeUnauthorized, "only the project issuer can issue credits")
	}
	return nil
}
