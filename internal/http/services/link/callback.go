package link

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/snapcal/registrar/internal/domain/repository"
	"github.com/snapcal/registrar/internal/metrics"
	"github.com/snapcal/registrar/internal/notify"
	"github.com/snapcal/registrar/internal/observability/logger"
)

// unattributedID marks a callback that could not be tied to a chat
// identity. The notifier drops messages addressed to it.
const unattributedID = "unknown"

// CompleteInput carries the provider redirect's query parameters.
type CompleteInput struct {
	Code          string
	State         string
	ProviderError string
}

// Result is the terminal outcome of one callback.
type Result struct {
	Outcome    string
	ExternalID string
	Email      string
	Merge      repository.MergeOutcome
}

// CallbackService completes a link handshake. Every failure inside
// Complete is converted into a terminal outcome; nothing propagates as
// an error to the transport layer.
type CallbackService interface {
	Complete(ctx context.Context, in *CompleteInput) *Result
}

type callbackService struct {
	sessions        repository.SessionRepository
	identities      repository.IdentityRepository
	provider        ProviderClient
	notifier        notify.Notifier
	exchangeTimeout time.Duration
}

// NewCallbackService builds a CallbackService. provider may be nil
// when the server has no credentials.
func NewCallbackService(
	sessions repository.SessionRepository,
	identities repository.IdentityRepository,
	provider ProviderClient,
	notifier notify.Notifier,
	exchangeTimeout time.Duration,
) CallbackService {
	return &callbackService{
		sessions:        sessions,
		identities:      identities,
		provider:        provider,
		notifier:        notifier,
		exchangeTimeout: exchangeTimeout,
	}
}

func (s *callbackService) Complete(ctx context.Context, in *CompleteInput) *Result {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("link.callback"),
	)

	if in.ProviderError != "" {
		return s.providerError(ctx, log, in)
	}

	if in.Code == "" || in.State == "" {
		return s.finish(log, &Result{Outcome: OutcomeMissingParameters})
	}

	// Consume is an atomic find-and-delete. The session is gone before
	// the token exchange starts, so a replayed callback with the same
	// state can never double-merge.
	sess, err := s.sessions.Consume(ctx, in.State)
	if err != nil {
		// Only a missing/expired/used session is the user's fault. A
		// datastore failure is a transient I/O outcome, not a dead link.
		if errors.Is(err, repository.ErrNotFound) {
			s.notifier.NotifyFailure(ctx, unattributedID, OutcomeInvalidState)
			return s.finish(log, &Result{Outcome: OutcomeInvalidState})
		}
		log.Error("session consume failed", logger.Op("consume"), logger.Err(err))
		s.notifier.NotifyFailure(ctx, unattributedID, OutcomeProcessingFailed)
		return s.finish(log, &Result{Outcome: OutcomeProcessingFailed})
	}

	externalID := sess.ExternalID
	log = log.With(logger.ExternalID(externalID))

	if s.provider == nil {
		s.notifier.NotifyFailure(ctx, externalID, OutcomeConfigurationMissing)
		return s.finish(log, &Result{Outcome: OutcomeConfigurationMissing, ExternalID: externalID})
	}

	exCtx, cancel := context.WithTimeout(ctx, s.exchangeTimeout)
	defer cancel()

	id, err := s.provider.Exchange(exCtx, in.Code)
	if err != nil {
		log.Error("code exchange failed", logger.Op("exchange"), logger.Err(err))
		s.notifier.NotifyFailure(ctx, externalID, OutcomeProcessingFailed)
		return s.finish(log, &Result{Outcome: OutcomeProcessingFailed, ExternalID: externalID})
	}

	if !id.EmailVerified {
		s.notifier.NotifyFailure(ctx, externalID, OutcomeEmailNotVerified)
		return s.finish(log, &Result{Outcome: OutcomeEmailNotVerified, ExternalID: externalID})
	}

	merged, err := s.identities.Merge(ctx, repository.MergeInput{
		ExternalID:    externalID,
		ProviderEmail: id.Email,
		DisplayName:   sess.ExternalDisplayName,
	})
	if err != nil {
		log.Error("directory merge failed", logger.Op("merge"), logger.Err(err))
		s.notifier.NotifyFailure(ctx, externalID, OutcomeProcessingFailed)
		return s.finish(log, &Result{Outcome: OutcomeProcessingFailed, ExternalID: externalID})
	}

	s.notifier.NotifySuccess(ctx, externalID, id.Email)
	return s.finish(log.With(logger.Email(id.Email)), &Result{
		Outcome:    OutcomeSuccess,
		ExternalID: externalID,
		Email:      id.Email,
		Merge:      merged.Outcome,
	})
}

// providerError handles a redirect carrying an error query parameter.
// Only access_denied is attributed back to a session; any other value
// skips the session lookup entirely.
func (s *callbackService) providerError(ctx context.Context, log *zap.Logger, in *CompleteInput) *Result {
	if in.ProviderError != "access_denied" {
		log.Warn("provider returned error", logger.Op("callback"), logger.String("provider_error", in.ProviderError))
		return s.finish(log, &Result{Outcome: OutcomeProcessingFailed})
	}

	externalID := unattributedID
	if in.State != "" {
		if sess, err := s.sessions.Consume(ctx, in.State); err == nil {
			externalID = sess.ExternalID
		}
	}
	s.notifier.NotifyFailure(ctx, externalID, OutcomeAccessDenied)

	res := &Result{Outcome: OutcomeAccessDenied}
	if externalID != unattributedID {
		res.ExternalID = externalID
	}
	return s.finish(log, res)
}

func (s *callbackService) finish(log *zap.Logger, res *Result) *Result {
	metrics.LinkOutcomes.WithLabelValues(res.Outcome).Inc()
	log.Info("link callback finished", logger.Op("complete"), logger.Outcome(res.Outcome))
	return res
}
