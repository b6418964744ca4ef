package generation

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/lexibox/internal/domain"
)

var draftValidator = validator.New()

// Sanitize trims model output, drops drafts that fail validation or repeat
// an earlier front, and keeps at most max drafts. A non-positive max selects
// DefaultMaxProposals.
func Sanitize(drafts []domain.ProposalDraft, max int) []domain.ProposalDraft {
	if max <= 0 {
		max = DefaultMaxProposals
	}

	out := make([]domain.ProposalDraft, 0, len(drafts))
	seen := make(map[string]struct{}, len(drafts))
	for _, d := range drafts {
		d.Front = strings.TrimSpace(d.Front)
		d.Back = strings.TrimSpace(d.Back)
		d.Context = strings.TrimSpace(d.Context)
		d.Tags = domain.NormalizeTags(d.Tags)

		if err := draftValidator.Struct(d); err != nil {
			continue
		}
		key := domain.FrontKey(d.Front)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, d)
		if len(out) == max {
			break
		}
	}
	return out
}
