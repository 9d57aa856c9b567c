package matching

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStrategy is returned for a strategy name that is not keyword, semantic or both
	ErrUnknownStrategy = errors.New("unknown matching strategy")
	// ErrUserRequired is returned when no user ID is given
	ErrUserRequired = errors.New("user id is required")
)

// ProviderError reports that the embedding backend failed during a run. The
// semantic path is skipped for that run; keyword results are still returned.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PersistenceError reports writes that did not reach the store. Scores
// computed in the same run are still returned to the caller.
type PersistenceError struct {
	Op     string // upsert_opportunity, upsert_match, save_embedding
	Failed int
	Err    error // first failure
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed for %d item(s): %v", e.Op, e.Failed, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// persistErrors accumulates write failures per operation
type persistErrors struct {
	byOp  map[string]*PersistenceError
	order []string
}

func (p *persistErrors) add(op string, err error) {
	if p.byOp == nil {
		p.byOp = make(map[string]*PersistenceError)
	}
	pe, ok := p.byOp[op]
	if !ok {
		pe = &PersistenceError{Op: op, Err: err}
		p.byOp[op] = pe
		p.order = append(p.order, op)
	}
	pe.Failed++
}

func (p *persistErrors) err() error {
	if len(p.order) == 0 {
		return nil
	}
	errs := make([]error, 0, len(p.order))
	for _, op := range p.order {
		errs = append(errs, p.byOp[op])
	}
	return errors.Join(errs...)
}
