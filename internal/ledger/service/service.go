// Package service implements the ledger engine: issuance, transfer,
// retirement, and the read surface, orchestrated over the registry, lot
// store, and retirement counter with all-or-nothing semantics.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"carbonledger/internal/audit"
	"carbonledger/internal/ledger"
	"carbonledger/internal/ledger/lots"
	"carbonledger/internal/ledger/metrics"
	"carbonledger/internal/ledger/registry"
	"carbonledger/pkg/domain"
	dErrors "carbonledger/pkg/domain-errors"
	"carbonledger/pkg/platform/sentinel"
)

// VintagePolicy bounds acceptable vintage years. The bounds are operator
// configuration, not ledger invariants: registries disagree on how old a
// reduction may be and whether forward crediting is allowed.
type VintagePolicy struct {
	// MinYear is the earliest acceptable vintage.
	MinYear int
	// MaxYearsAhead allows vintages up to this many years past the current
	// year. 0 means the current year is the latest acceptable vintage.
	MaxYearsAhead int
}

// Validate checks a vintage against the policy at the given time.
func (p VintagePolicy) Validate(vintage domain.Vintage, now time.Time) error {
	year := int(vintage)
	if year < p.MinYear || year > now.Year()+p.MaxYearsAhead {
		return dErrors.New(dErrors.CodeInvalidInput, "vintage year out of accepted range")
	}
	return nil
}

// Service is the ledger engine. All mutations run through the TxRunner; the
// stores field serves the read surface directly.
type Service struct {
	runner    TxRunner
	stores    Stores
	policy    VintagePolicy
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher *audit.Publisher
	tracer    trace.Tracer
	now       func() time.Time
}

func New(runner TxRunner, stores Stores, policy VintagePolicy, logger *slog.Logger, m *metrics.Metrics, publisher *audit.Publisher) *Service {
	return &Service{
		runner:    runner,
		stores:    stores,
		policy:    policy,
		logger:    logger,
		metrics:   m,
		publisher: publisher,
		tracer:    otel.Tracer("carbonledger/ledger"),
		now:       time.Now,
	}
}

// Init performs one-time ledger setup.
//
// Errors: CodeAlreadyInitialized on a second call.
func (s *Service) Init(ctx context.Context) error {
	return s.observe(ctx, "init", func(ctx context.Context) error {
		return s.runner.RunInTx(ctx, func(ctx context.Context, st Stores) error {
			if err := st.Meta.Initialize(ctx); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					return dErrors.New(dErrors.CodeAlreadyInitialized, "ledger already initialized")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "initialize ledger")
			}
			return nil
		})
	})
}

// RegisterProject records a new carbon-offset project and returns its id.
//
// Errors: CodeInvalidInput when any text field is empty or the issuer
// address is invalid.
func (s *Service) RegisterProject(ctx context.Context, issuer, name, location, projectType, description string) (domain.ProjectID, error) {
	var projectID domain.ProjectID
	err := s.observe(ctx, "register_project", func(ctx context.Context) error {
		issuerID, err := domain.ParseAccountID(issuer)
		if err != nil {
			return err
		}
		for _, field := range []struct{ name, value string }{
			{"name", name},
			{"location", location},
			{"project_type", projectType},
			{"description", description},
		} {
			if strings.TrimSpace(field.value) == "" {
				return dErrors.New(dErrors.CodeInvalidInput, field.name+" must not be empty")
			}
		}

		return s.runner.RunInTx(ctx, func(ctx context.Context, st Stores) error {
			id, err := st.Registry.NextID(ctx)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "allocate project id")
			}
			project := ledger.Project{
				ID:          id,
				Name:        name,
				Location:    location,
				ProjectType: projectType,
				Description: description,
				Issuer:      issuerID,
				CreatedAt:   s.now(),
			}
			if err := st.Registry.Save(ctx, project); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "save project")
			}
			projectID = id
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	s.emit(ctx, audit.Event{
		Action:    audit.ActionProjectRegistered,
		Actor:     domain.AccountID(issuer),
		ProjectID: projectID,
	})
	return projectID, nil
}

// IssueCredits mints a new credit lot for recipient against a project. The
// lot creation and the project's running total update commit as one unit.
//
// Errors: CodeInvalidInput for non-positive amounts or out-of-policy
// vintages, CodeNotFound for unknown projects, CodeUnauthorized when issuer
// is not the project's registered issuer, CodeOverflow when the project
// total would overflow.
func (s *Service) IssueCredits(ctx context.Context, issuer string, projectID domain.ProjectID, amount int64, vintage domain.Vintage, recipient string) (ledger.CreditBatch, error) {
	var batch ledger.CreditBatch
	err := s.observe(ctx, "issue_credits", func(ctx context.Context) error {
		issuerID, err := domain.ParseAccountID(issuer)
		if err != nil {
			return err
		}
		recipientID, err := domain.ParseAccountID(recipient)
		if err != nil {
			return err
		}
		amt, err := domain.ParseAmount(amount)
		if err != nil {
			return err
		}
		if err := s.policy.Validate(vintage, s.now()); err != nil {
			return err
		}

		return s.runner.RunInTx(ctx, func(ctx context.Context, st Stores) error {
			project, err := st.Registry.Find(ctx, projectID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.New(dErrors.CodeNotFound, "project does not exist")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "find project")
			}
			if err := registry.AuthorizeIssuer(project, issuerID); err != nil {
				return err
			}
			// Overflow surfaces here, before the lot exists, so a failed
			// issuance leaves no trace.
			if err := st.Registry.RecordIssuance(ctx, projectID, amt); err != nil {
				if dErrors.HasCode(err, dErrors.CodeOverflow) {
					return err
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "record issuance")
			}
			lot, err := st.Lots.CreateLot(ctx, recipientID, projectID, vintage, amt, s.now())
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "create lot")
			}
			batch = ledger.CreditBatch{
				ProjectID: projectID,
				Amount:    amt,
				Vintage:   vintage,
				IssuedAt:  lot.IssuedAt,
			}
			return nil
		})
	})
	if err != nil {
		return ledger.CreditBatch{}, err
	}

	s.metrics.IncrementLotsMinted("issuance", 1)
	s.emit(ctx, audit.Event{
		Action:    audit.ActionCreditsIssued,
		Actor:     domain.AccountID(issuer),
		ProjectID: projectID,
		Vintage:   vintage,
		Amount:    batch.Amount,
		Recipient: domain.AccountID(recipient),
	})
	return batch, nil
}

// Transfer moves amount from one holder to another, consuming the sender's
// lots oldest-first and minting lots with identical provenance under the
// recipient.
//
// Errors: CodeInvalidInput for non-positive amounts or self-transfers,
// CodeInsufficientBalance when from's active balance is below amount.
func (s *Service) Transfer(ctx context.Context, from, to string, amount int64) error {
	var minted int
	err := s.observe(ctx, "transfer", func(ctx context.Context) error {
		fromID, err := domain.ParseAccountID(from)
		if err != nil {
			return err
		}
		toID, err := domain.ParseAccountID(to)
		if err != nil {
			return err
		}
		if fromID == toID {
			return dErrors.New(dErrors.CodeInvalidInput, "cannot transfer to self")
		}
		amt, err := domain.ParseAmount(amount)
		if err != nil {
			return err
		}

		return s.runner.RunInTx(ctx, func(ctx context.Context, st Stores) error {
			consumed, err := st.Lots.Consume(ctx, fromID, amt, lots.FIFO)
			if err != nil {
				return err
			}
			lotsMinted, err := st.Lots.ApplyTransfer(ctx, consumed, toID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "apply transfer")
			}
			minted = len(lotsMinted)
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.metrics.IncrementLotsMinted("transfer", minted)
	s.emit(ctx, audit.Event{
		Action:    audit.ActionCreditsTransferred,
		Actor:     domain.AccountID(from),
		Amount:    domain.Amount(amount),
		Recipient: domain.AccountID(to),
	})
	return nil
}

// Retire permanently removes amount from circulation, consuming the owner's
// lots oldest-first and minting retired lots that preserve per-project and
// per-vintage provenance. Returns the updated global retirement total.
//
// Errors: CodeInvalidInput for non-positive amounts, CodeInsufficientBalance
// when owner's active balance is below amount, CodeOverflow when the global
// counter would overflow.
func (s *Service) Retire(ctx context.Context, owner string, amount int64) (domain.Amount, error) {
	var newTotal domain.Amount
	var minted int
	err := s.observe(ctx, "retire", func(ctx context.Context) error {
		ownerID, err := domain.ParseAccountID(owner)
		if err != nil {
			return err
		}
		amt, err := domain.ParseAmount(amount)
		if err != nil {
			return err
		}

		return s.runner.RunInTx(ctx, func(ctx context.Context, st Stores) error {
			// Prove the counter can absorb the amount before consuming any
			// lot, so an overflow rejects the retirement with nothing to
			// roll back.
			total, err := st.Retired.Total(ctx)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "read retired total")
			}
			if _, err := total.Add(amt); err != nil {
				return dErrors.New(dErrors.CodeOverflow, "retired total would overflow")
			}

			consumed, err := st.Lots.Consume(ctx, ownerID, amt, lots.FIFO)
			if err != nil {
				return err
			}
			lotsMinted, err := st.Lots.ApplyRetire(ctx, consumed)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "apply retire")
			}
			newTotal, err = st.Retired.Add(ctx, amt)
			if err != nil {
				return err
			}
			minted = len(lotsMinted)
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	s.metrics.IncrementLotsMinted("retirement", minted)
	s.metrics.AddCreditsRetired(amount)
	s.emit(ctx, audit.Event{
		Action:       audit.ActionCreditsRetired,
		Actor:        domain.AccountID(owner),
		Amount:       domain.Amount(amount),
		TotalRetired: newTotal,
	})
	return newTotal, nil
}

// Balance returns the sum of address's active (non-retired, non-drained)
// lot amounts. An address with no lots has balance 0.
func (s *Service) Balance(ctx context.Context, address string) (domain.Amount, error) {
	addr, err := domain.ParseAccountID(address)
	if err != nil {
		return 0, err
	}
	return s.stores.Lots.ActiveBalance(ctx, addr)
}

// GetProject returns one project.
//
// Errors: CodeNotFound for unknown ids.
func (s *Service) GetProject(ctx context.Context, projectID domain.ProjectID) (ledger.Project, error) {
	project, err := s.stores.Registry.Find(ctx, projectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ledger.Project{}, dErrors.New(dErrors.CodeNotFound, "project does not exist")
		}
		return ledger.Project{}, dErrors.Wrap(err, dErrors.CodeInternal, "find project")
	}
	return project, nil
}

// GetAllProjects returns every registered project in ascending id order.
func (s *Service) GetAllProjects(ctx context.Context) ([]ledger.Project, error) {
	return s.stores.Registry.List(ctx)
}

// GetCredits returns every lot held by address, retired and active alike,
// in ascending lot id order.
func (s *Service) GetCredits(ctx context.Context, address string) ([]ledger.Lot, error) {
	addr, err := domain.ParseAccountID(address)
	if err != nil {
		return nil, err
	}
	return s.stores.Lots.LotsOf(ctx, addr)
}

// TotalRetired returns the global retirement total.
func (s *Service) TotalRetired(ctx context.Context) (domain.Amount, error) {
	return s.stores.Retired.Total(ctx)
}

// observe wraps an operation with a trace span, latency/outcome metrics, and
// failure logging.
func (s *Service) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "ledger."+operation)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	outcome := "ok"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
		span.RecordError(err)
		s.logger.WarnContext(ctx, "ledger operation failed",
			"operation", operation,
			"outcome", outcome,
			"error", err,
		)
	}
	s.metrics.ObserveOperation(operation, outcome, time.Since(start))
	return err
}

// emit records an audit event; audit failures are logged, never surfaced,
// since the mutation has already committed.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", event.Action,
			"error", err,
		)
	}
}
