package msaccount

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/orm"
)

// controller implements the proposal queue state machine. All state
// transitions of accounts and their proposals go through it so that the
// dense sequence numbering and the strict resolution order cannot be
// violated by a handler.
type controller struct {
	accounts  orm.ModelBucket
	proposals orm.ModelBucket
}

func newController() controller {
	return controller{
		accounts:  NewAccountBucket(),
		proposals: NewProposalBucket(),
	}
}

// Account loads a multisig account by its address.
func (c controller) Account(db weave.ReadOnlyKVStore, address weave.Address) (*MultisigAccount, error) {
	var a MultisigAccount
	if err := c.accounts.One(db, address, &a); err != nil {
		return nil, errors.Wrapf(err, "account %q", address)
	}
	return &a, nil
}

// Proposal loads a pending proposal of given account and sequence number.
func (c controller) Proposal(db weave.ReadOnlyKVStore, account weave.Address, seq int64) (*Proposal, error) {
	var p Proposal
	if err := c.proposals.One(db, proposalKey(account, seq), &p); err != nil {
		return nil, errors.Wrapf(err, "proposal %d", seq)
	}
	return &p, nil
}

// PendingCount returns the number of queued, not yet resolved proposals.
func (c controller) PendingCount(a *MultisigAccount) int64 {
	return a.NextSequence - 1 - a.LastResolved
}

// Enqueue assigns the next sequence number to the proposal and persists
// it. The creator's approval is recorded before storing. A zero queueCap
// disables the queue bound.
func (c controller) Enqueue(db weave.KVStore, a *MultisigAccount, p *Proposal, queueCap uint32) (int64, error) {
	if queueCap != 0 && c.PendingCount(a) >= int64(queueCap) {
		return 0, errors.Wrapf(ErrQueueFull, "%d proposals pending", c.PendingCount(a))
	}
	p.Sequence = a.NextSequence
	p.SetVote(p.Creator, true)
	if _, err := c.proposals.Put(db, proposalKey(a.Address, p.Sequence), p); err != nil {
		return 0, errors.Wrap(err, "store proposal")
	}
	a.NextSequence++
	if _, err := c.accounts.Put(db, a.Address, a); err != nil {
		return 0, errors.Wrap(err, "store account")
	}
	return p.Sequence, nil
}

// CastVote records the vote of an owner on a pending proposal. Voting is
// allowed on any queued proposal, not only the next one, and a repeated
// vote of the same owner replaces the previous decision.
func (c controller) CastVote(db weave.KVStore, a *MultisigAccount, seq int64, voter weave.Address, approve bool) (*Proposal, error) {
	if !a.IsOwner(voter) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "%q is not an owner", voter)
	}
	p, err := c.Proposal(db, a.Address, seq)
	if err != nil {
		return nil, err
	}
	p.SetVote(voter, approve)
	if _, err := c.proposals.Put(db, proposalKey(a.Address, seq), p); err != nil {
		return nil, errors.Wrap(err, "store proposal")
	}
	return p, nil
}

// CanExecute returns true if given proposal is the next one to resolve
// and has collected threshold many approvals from current owners. It is a
// pure query, no implicit executor vote is considered.
func (c controller) CanExecute(db weave.ReadOnlyKVStore, a *MultisigAccount, seq int64) (bool, error) {
	if seq != a.LastResolved+1 {
		return false, nil
	}
	p, err := c.Proposal(db, a.Address, seq)
	if err != nil {
		return false, err
	}
	approvals, _ := Tally(p, a)
	return approvals >= a.Threshold, nil
}

// CanReject returns true if given proposal is the next one to resolve and
// has collected threshold many rejections from current owners.
func (c controller) CanReject(db weave.ReadOnlyKVStore, a *MultisigAccount, seq int64) (bool, error) {
	if seq != a.LastResolved+1 {
		return false, nil
	}
	p, err := c.Proposal(db, a.Address, seq)
	if err != nil {
		return false, err
	}
	_, rejections := Tally(p, a)
	return rejections >= a.Threshold, nil
}

// Tally counts approvals and rejections of given proposal against the
// current owner set. Votes of addresses that are no longer owners are
// ignored, votes of re-added owners count again.
func Tally(p *Proposal, a *MultisigAccount) (approvals, rejections uint32) {
	for _, v := range p.Votes {
		if !a.IsOwner(v.Owner) {
			continue
		}
		if v.Approve {
			approvals++
		} else {
			rejections++
		}
	}
	return approvals, rejections
}

// BeginExecution checks that given proposal is the next one to resolve,
// has collected enough approvals and that the provided payload matches
// what was committed to. It returns the payload bytes to execute. The
// proposal state is not modified, FinishExecution must be called after
// the payload was run.
//
// The executor's approval is recorded implicitly when the executor did
// not vote yet.
func (c controller) BeginExecution(db weave.KVStore, a *MultisigAccount, seq int64, payload []byte, executor weave.Address, strictMatch bool) (*Proposal, []byte, error) {
	if !a.IsOwner(executor) {
		return nil, nil, errors.Wrapf(errors.ErrUnauthorized, "%q is not an owner", executor)
	}
	if seq != a.LastResolved+1 {
		return nil, nil, errors.Wrapf(ErrOutOfOrder,
			"expected sequence %d, got %d", a.LastResolved+1, seq)
	}
	p, err := c.Proposal(db, a.Address, seq)
	if err != nil {
		return nil, nil, err
	}
	if p.Vote(executor) == nil {
		p.SetVote(executor, true)
	}
	approvals, _ := Tally(p, a)
	if approvals < a.Threshold {
		return nil, nil, errors.Wrapf(ErrInsufficientVotes,
			"%d of %d approvals", approvals, a.Threshold)
	}

	switch {
	case len(p.PayloadHash) != 0:
		if len(payload) == 0 {
			return nil, nil, errors.Wrap(ErrPayloadMismatch, "payload must be disclosed")
		}
		if !p.MatchesPayload(payload) {
			return nil, nil, errors.Wrap(ErrPayloadMismatch, "hash commitment does not match")
		}
		return p, payload, nil
	case len(payload) == 0:
		return p, p.Payload, nil
	case p.MatchesPayload(payload):
		return p, payload, nil
	case strictMatch:
		return nil, nil, errors.Wrap(ErrPayloadMismatch, "stored payload differs")
	default:
		// Lenient policy, the submitted payload wins.
		return p, payload, nil
	}
}

// FinishExecution removes the resolved proposal from the queue and
// advances the resolution pointer. It is called regardless of the payload
// execution outcome, a failed execution still consumes the sequence
// number.
func (c controller) FinishExecution(db weave.KVStore, a *MultisigAccount, p *Proposal) error {
	if err := c.proposals.Delete(db, proposalKey(a.Address, p.Sequence)); err != nil {
		return errors.Wrap(err, "delete proposal")
	}
	a.LastResolved = p.Sequence
	if _, err := c.accounts.Put(db, a.Address, a); err != nil {
		return errors.Wrap(err, "store account")
	}
	return nil
}

// ResolveReject removes the next queued proposal after it collected
// threshold many rejections. Like execution, rejection resolves proposals
// strictly in order.
func (c controller) ResolveReject(db weave.KVStore, a *MultisigAccount, seq int64) (*Proposal, error) {
	if seq != a.LastResolved+1 {
		return nil, errors.Wrapf(ErrOutOfOrder,
			"expected sequence %d, got %d", a.LastResolved+1, seq)
	}
	p, err := c.Proposal(db, a.Address, seq)
	if err != nil {
		return nil, err
	}
	_, rejections := Tally(p, a)
	if rejections < a.Threshold {
		return nil, errors.Wrapf(ErrInsufficientVotes,
			"%d of %d rejections", rejections, a.Threshold)
	}
	if err := c.proposals.Delete(db, proposalKey(a.Address, seq)); err != nil {
		return nil, errors.Wrap(err, "delete proposal")
	}
	a.LastResolved = seq
	if _, err := c.accounts.Put(db, a.Address, a); err != nil {
		return nil, errors.Wrap(err, "store account")
	}
	return p, nil
}

// UpdateOwners applies an owner set change. Votes already recorded on
// queued proposals are not touched, the next tally naturally reflects the
// new owner set.
func (c controller) UpdateOwners(db weave.KVStore, a *MultisigAccount, add, remove []weave.Address, threshold uint32) error {
	owners := make([]weave.Address, 0, len(a.Owners)+len(add))
next:
	for _, o := range a.Owners {
		for _, r := range remove {
			if o.Equals(r) {
				continue next
			}
		}
		owners = append(owners, o)
	}
	for _, n := range add {
		dup := false
		for _, o := range owners {
			if o.Equals(n) {
				dup = true
				break
			}
		}
		if !dup {
			owners = append(owners, n)
		}
	}
	if threshold == 0 {
		threshold = a.Threshold
	}
	if err := validateOwners(errors.ErrState, owners, threshold); err != nil {
		return err
	}
	a.Owners = owners
	a.Threshold = threshold
	if _, err := c.accounts.Put(db, a.Address, a); err != nil {
		return errors.Wrap(err, "store account")
	}
	return nil
}
