//go:build integration

package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbonledger/internal/ledger/lots"
	"carbonledger/internal/ledger/meta"
	"carbonledger/internal/ledger/registry"
	"carbonledger/internal/ledger/retired"
	"carbonledger/internal/ledger/service"
	"carbonledger/internal/platform/postgres"
	"carbonledger/pkg/domain"
	dErrors "carbonledger/pkg/domain-errors"
	"carbonledger/pkg/testutil/containers"
)

// The postgres suite runs the same ledger flows as the in-memory tests but
// through real serializable transactions, so it covers the SQL stores, the
// tx runner, and the schema together.
func TestPostgresLedger(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	require.NoError(t, postgres.Migrate(ctx, pg.DB))

	newService := func(t *testing.T) *service.Service {
		t.Helper()
		require.NoError(t, pg.Truncate(ctx))
		stores := service.Stores{
			Registry: registry.NewPostgresStore(pg.DB),
			Lots:     lots.NewPostgresStore(pg.DB),
			Retired:  retired.NewPostgresCounter(pg.DB),
			Meta:     meta.NewPostgresStore(pg.DB),
		}
		return service.New(
			service.NewPostgresTxRunner(pg.DB, stores),
			stores,
			service.VintagePolicy{MinYear: 1990, MaxYearsAhead: 1},
			slog.New(slog.NewTextHandler(io.Discard, nil)),
			nil,
			nil,
		)
	}

	t.Run("full lifecycle", func(t *testing.T) {
		svc := newService(t)

		require.NoError(t, svc.Init(ctx))
		err := svc.Init(ctx)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyInitialized))

		projectID, err := svc.RegisterProject(ctx, "issuer-1",
			"Peatland Restoration", "Scotland", "wetland", "Blanket bog rewetting")
		require.NoError(t, err)
		assert.Equal(t, domain.ProjectID(1), projectID)

		batch, err := svc.IssueCredits(ctx, "issuer-1", projectID, 1000, 2023, "A")
		require.NoError(t, err)
		assert.Equal(t, domain.Amount(1000), batch.Amount)

		require.NoError(t, svc.Transfer(ctx, "A", "B", 400))

		balance, err := svc.Balance(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, domain.Amount(600), balance)
		balance, err = svc.Balance(ctx, "B")
		require.NoError(t, err)
		assert.Equal(t, domain.Amount(400), balance)

		total, err := svc.Retire(ctx, "B", 150)
		require.NoError(t, err)
		assert.Equal(t, domain.Amount(150), total)

		credits, err := svc.GetCredits(ctx, "B")
		require.NoError(t, err)
		require.Len(t, credits, 2)
		assert.True(t, credits[1].Retired)
		assert.Equal(t, domain.Amount(150), credits[1].Amount)

		project, err := svc.GetProject(ctx, projectID)
		require.NoError(t, err)
		assert.Equal(t, domain.Amount(1000), project.TotalCreditsIssued)
	})

	t.Run("failed transfer rolls back", func(t *testing.T) {
		svc := newService(t)
		projectID, err := svc.RegisterProject(ctx, "issuer-1",
			"Solar Farm", "Kenya", "renewable_energy", "Grid-connected solar")
		require.NoError(t, err)
		_, err = svc.IssueCredits(ctx, "issuer-1", projectID, 100, 2023, "A")
		require.NoError(t, err)

		err = svc.Transfer(ctx, "A", "B", 500)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientBalance))

		balance, err := svc.Balance(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, domain.Amount(100), balance)
		credits, err := svc.GetCredits(ctx, "B")
		require.NoError(t, err)
		assert.Empty(t, credits)
	})

	t.Run("lot ids survive restart", func(t *testing.T) {
		svc := newService(t)
		projectID, err := svc.RegisterProject(ctx, "issuer-1",
			"Solar Farm", "Kenya", "renewable_energy", "Grid-connected solar")
		require.NoError(t, err)
		_, err = svc.IssueCredits(ctx, "issuer-1", projectID, 10, 2023, "A")
		require.NoError(t, err)

		// A fresh store over the same database continues the id sequence.
		rebuilt := lots.NewPostgresStore(pg.DB)
		lot, err := rebuilt.CreateLot(ctx, "A", projectID, 2023, 10, time.Now().UTC())
		require.NoError(t, err)
		assert.Equal(t, domain.LotID{Lo: 2}, lot.ID)
	})

	t.Run("fifo ordering in sql", func(t *testing.T) {
		svc := newService(t)
		projectID, err := svc.RegisterProject(ctx, "issuer-1",
			"Solar Farm", "Kenya", "renewable_energy", "Grid-connected solar")
		require.NoError(t, err)
		for range 3 {
			_, err = svc.IssueCredits(ctx, "issuer-1", projectID, 100, 2023, "A")
			require.NoError(t, err)
		}

		require.NoError(t, svc.Transfer(ctx, "A", "B", 150))

		remaining, err := svc.GetCredits(ctx, "A")
		require.NoError(t, err)
		require.Len(t, remaining, 3)
		assert.Equal(t, domain.Amount(0), remaining[0].Amount)
		assert.Equal(t, domain.Amount(50), remaining[1].Amount)
		assert.Equal(t, domain.Amount(100), remaining[2].Amount)
	})
}
