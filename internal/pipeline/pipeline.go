// Package pipeline produces one profile record per identifier via a staged,
// conditionally-branching fetch sequence, and supervises retries around it.
package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/gramscope/internal/extract"
	"github.com/sells-group/gramscope/internal/model"
	"github.com/sells-group/gramscope/pkg/instagram"
)

// Field names the enrichment stages merge into the record.
const (
	fieldEmails   = "extracted_emails"
	fieldPhones   = "extracted_phones"
	fieldMentions = "extracted_mentions"
	fieldRelated  = "related_profiles"
)

// Stage names used in logs and degradation warnings.
const (
	stageProfile = "profile"
	stageEnrich  = "enrich"
	stageContact = "contact_info"
	stageRelated = "related_profiles"
)

// Pipeline runs one fetch attempt for one identifier.
type Pipeline struct {
	client instagram.Client
}

// New creates a pipeline over the given profile API client.
func New(client instagram.Client) *Pipeline {
	return &Pipeline{client: client}
}

// RunAttempt executes one full attempt for the identifier. A returned error
// is a stage-1 fault eligible for retry classification; secondary stage
// failures degrade the record instead of failing the attempt.
func (p *Pipeline) RunAttempt(ctx context.Context, identifier string, attempt int) (*model.ProfileRecord, error) {
	log := zap.L().With(zap.String("identifier", identifier), zap.Int("attempt", attempt))

	sess, err := p.client.NewSession(identifier, attempt)
	if err != nil {
		return nil, err
	}

	// Stage 1: primary lookup. The only stage whose faults escape.
	prof, err := sess.ProfileInfo(ctx)
	if err != nil {
		return nil, err
	}

	rec := model.NewRecord(identifier)
	if !prof.Found {
		log.Debug("profile not found")
		rec.Finish(model.OutcomeNotFound, "profile not found")
		return rec, nil
	}

	if err := rec.Apply(model.OK(stageProfile, prof.User), false); err != nil {
		return nil, err
	}

	// Stage 2: text enrichment, always runs, no network.
	contacts := extract.Scan(prof.Biography)
	enriched := map[string]any{
		fieldEmails:   contacts.Emails,
		fieldPhones:   contacts.Phones,
		fieldMentions: contacts.Mentions,
	}
	if err := rec.Apply(model.OK(stageEnrich, enriched), false); err != nil {
		return nil, err
	}

	// Stages 3 and 4 have no ordering dependency on each other. Results are
	// collected and applied after the wait so the record keeps a single
	// mutator.
	contactRes := model.Skipped(stageContact)
	relatedRes := model.Skipped(stageRelated)

	g, gctx := errgroup.WithContext(ctx)

	if prof.ShowPublicContacts && prof.UserID != "" {
		g.Go(func() error {
			fields, cErr := sess.ContactInfo(gctx, prof.UserID)
			if cErr != nil {
				log.Warn("contact info degraded", zap.Error(cErr))
				contactRes = model.Degraded(stageContact, cErr.Error())
				return nil
			}
			contactRes = model.OK(stageContact, fields)
			return nil
		})
	}

	if prof.HasChaining && prof.UserID != "" {
		g.Go(func() error {
			related, rErr := sess.RelatedProfiles(gctx, prof.UserID)
			if rErr != nil {
				log.Warn("related profiles degraded", zap.Error(rErr))
				relatedRes = model.Degraded(stageRelated, rErr.Error())
				return nil
			}
			relatedRes = model.OK(stageRelated, map[string]any{fieldRelated: related})
			return nil
		})
	}

	_ = g.Wait()

	// The contact stage owns the fields it returns and may refresh values
	// the base record already carried.
	if err := rec.Apply(contactRes, true); err != nil {
		return nil, err
	}
	if err := rec.Apply(relatedRes, false); err != nil {
		return nil, err
	}

	rec.Finish(model.OutcomeSuccess, "")
	return rec, nil
}
