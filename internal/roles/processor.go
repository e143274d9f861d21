package roles

import (
	"fmt"
	"log"
)

// RequestStore is the slice of persistence the processor needs for upgrade
// requests. RemoveByID is idempotent: removing an absent request is not an
// error.
type RequestStore interface {
	ListAll() ([]UpgradeRequest, error)
	GetByID(id string) (UpgradeRequest, error)
	RemoveByID(id string) error
	Create(req UpgradeRequest) error
}

// UserDirectory exposes the slice of the user store the processor needs.
type UserDirectory interface {
	HighestRoleOf(userID string) (Role, error)
	AddRole(userID string, role Role) error
}

// TxRunner executes fn against transaction-scoped stores so that the accept
// path commits the role append and the request removal together. An upgrade
// without a removal (or the reverse) must never be observable.
type TxRunner interface {
	Transact(fn func(requests RequestStore, users UserDirectory) error) error
}

// Processor applies the promotion ladder to pending upgrade requests.
type Processor struct {
	requests RequestStore
	users    UserDirectory
	tx       TxRunner
}

func NewProcessor(requests RequestStore, users UserDirectory, tx TxRunner) *Processor {
	return &Processor{requests: requests, users: users, tx: tx}
}

// Process resolves one upgrade request. Declining only removes the request
// and never touches roles. Accepting fetches the requester's current highest
// role, computes the next rung and appends it, removing the request in the
// same transaction. On any failure the request stays in place for retry.
func (p *Processor) Process(accept bool, requestID string) error {
	if !accept {
		if err := p.requests.RemoveByID(requestID); err != nil {
			return fmt.Errorf("decline request %s: %w", requestID, err)
		}
		return nil
	}

	req, err := p.requests.GetByID(requestID)
	if err != nil {
		return fmt.Errorf("fetch request %s: %w", requestID, err)
	}

	current, err := p.users.HighestRoleOf(req.UserID)
	if err != nil {
		return fmt.Errorf("resolve role of user %s: %w", req.UserID, err)
	}

	next, err := NextRole(current)
	if err != nil {
		return fmt.Errorf("promote user %s from %s: %w", req.UserID, current, err)
	}

	err = p.tx.Transact(func(requests RequestStore, users UserDirectory) error {
		if err := users.AddRole(req.UserID, next); err != nil {
			return err
		}
		return requests.RemoveByID(requestID)
	})
	if err != nil {
		return fmt.Errorf("accept request %s: %w", requestID, err)
	}
	return nil
}

// SweepBanned removes every pending request whose requester's highest role
// is Banned. Requests from users that cannot be resolved are left in place
// and logged; one bad row must not stop the sweep. Returns the number of
// requests removed.
func (p *Processor) SweepBanned() (int, error) {
	reqs, err := p.requests.ListAll()
	if err != nil {
		return 0, fmt.Errorf("list upgrade requests: %w", err)
	}

	removed := 0
	var firstErr error
	for _, req := range reqs {
		highest, err := p.users.HighestRoleOf(req.UserID)
		if err != nil {
			log.Printf("[roles] sweep: resolve user %s: %v", req.UserID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if highest != Banned {
			continue
		}
		if err := p.requests.RemoveByID(req.ID); err != nil {
			log.Printf("[roles] sweep: remove request %s: %v", req.ID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}

	if firstErr != nil {
		return removed, fmt.Errorf("sweep finished with errors: %w", firstErr)
	}
	return removed, nil
}
