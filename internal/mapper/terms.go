package mapper

import (
	"github.com/ocmweb/mercury-sync/internal/domain"
	"github.com/ocmweb/mercury-sync/internal/logger"
	"github.com/ocmweb/mercury-sync/internal/store"
)

// TermService resolves raw taxonomy values to term ids, creating terms that
// do not exist yet.
type TermService struct {
	store store.ContentStore
	log   logger.Logger
}

// NewTermService builds a term resolver over the content store.
func NewTermService(cs store.ContentStore, log logger.Logger) *TermService {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &TermService{store: cs, log: log}
}

// Resolve maps a raw term list onto term ids for one vocabulary. Entries may
// be plain scalars or records carrying the term under "term", "tid", or a
// vocabulary-named key. Unresolvable entries are skipped.
func (t *TermService) Resolve(raw domain.Value, vocabulary string) []uint64 {
	var ids []uint64
	for _, name := range termNames(raw, vocabulary) {
		id, err := t.store.ResolveTerm(name, vocabulary)
		if err != nil {
			t.log.WarnObj("unable to create taxonomy term", "term_error", map[string]any{
				"name":       name,
				"vocabulary": vocabulary,
				"error":      err.Error(),
			})
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// termNames normalizes the raw wire shapes a term list can arrive in.
func termNames(raw domain.Value, vocabulary string) []string {
	var entries domain.List
	switch v := raw.(type) {
	case domain.List:
		entries = v
	case domain.Map:
		// Collections arrive wrapped in a single "item" element.
		if len(v) == 1 {
			if sub, ok := v["item"]; ok {
				return termNames(sub, vocabulary)
			}
		}
		entries = domain.List{v}
	case domain.Scalar:
		if string(v) == "" {
			return nil
		}
		entries = domain.List{v}
	default:
		return nil
	}

	var names []string
	for _, entry := range entries {
		switch e := entry.(type) {
		case domain.Scalar:
			if string(e) != "" {
				names = append(names, string(e))
			}
		case domain.Map:
			if name := e.StringOr(vocabulary, e.String("term")); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}
