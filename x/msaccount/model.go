package msaccount

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
)

func init() {
	migration.MustRegister(1, &MultisigAccount{}, migration.NoModification)
	migration.MustRegister(1, &Proposal{}, migration.NoModification)
	migration.MustRegister(1, &Revocation{}, migration.NoModification)
}

const (
	// maxOwners bounds the owner set. Tallies are linear in the owner
	// count so an unbounded set would make voting unboundedly expensive.
	maxOwners = 100

	// maxAnnotations bounds the attachment list of a single account.
	maxAnnotations = 100
)

var _ orm.Model = (*MultisigAccount)(nil)

func (a *MultisigAccount) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", a.Metadata.Validate())
	errs = errors.AppendField(errs, "Address", a.Address.Validate())
	errs = errors.AppendField(errs, "Owners", validateOwners(errors.ErrModel, a.Owners, a.Threshold))
	if a.NextSequence < 1 {
		errs = errors.AppendField(errs, "NextSequence",
			errors.Wrap(errors.ErrModel, "must be at least 1"))
	}
	if a.LastResolved < 0 || a.LastResolved >= a.NextSequence {
		errs = errors.AppendField(errs, "LastResolved",
			errors.Wrap(errors.ErrModel, "must be below next sequence"))
	}
	errs = errors.AppendField(errs, "Annotations", validateAnnotations(a.Annotations))
	return errs
}

// IsOwner returns true if given address belongs to the current owner set.
func (a *MultisigAccount) IsOwner(addr weave.Address) bool {
	for _, o := range a.Owners {
		if o.Equals(addr) {
			return true
		}
	}
	return false
}

// validateOwners returns an error if given owner set and threshold
// configuration is not valid. The check is shared by models and messages,
// baseErr keeps the error class appropriate for the caller.
func validateOwners(baseErr error, owners []weave.Address, threshold uint32) error {
	switch n := len(owners); {
	case n == 0:
		return errors.Wrap(baseErr, "no owners")
	case n > maxOwners:
		return errors.Wrap(baseErr, "too many owners")
	}
	if err := validateOwnerAddresses(owners); err != nil {
		return err
	}
	if threshold < 1 || int(threshold) > len(owners) {
		return errors.Wrap(baseErr,
			"threshold must be between 1 and the number of owners")
	}
	return nil
}

func validateOwnerAddresses(owners []weave.Address) error {
	for i, o := range owners {
		if err := o.Validate(); err != nil {
			return errors.Wrapf(err, "owner #%d", i)
		}
		for _, prev := range owners[:i] {
			if prev.Equals(o) {
				return errors.Wrapf(errors.ErrDuplicate, "owner %q", o)
			}
		}
	}
	return nil
}

func validateAnnotations(as []*Annotation) error {
	if len(as) > maxAnnotations {
		return errors.Wrap(errors.ErrModel, "too many annotations")
	}
	for i, a := range as {
		if a == nil || len(a.Key) == 0 {
			return errors.Wrapf(errors.ErrModel, "annotation #%d: empty key", i)
		}
		for _, prev := range as[:i] {
			if prev.Key == a.Key {
				return errors.Wrapf(errors.ErrDuplicate, "annotation %q", a.Key)
			}
		}
	}
	return nil
}

var _ orm.Model = (*Proposal)(nil)

func (p *Proposal) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", p.Metadata.Validate())
	errs = errors.AppendField(errs, "Account", p.Account.Validate())
	if p.Sequence < 1 {
		errs = errors.AppendField(errs, "Sequence",
			errors.Wrap(errors.ErrModel, "must be at least 1"))
	}
	errs = errors.AppendField(errs, "Payload", validatePayloadShape(p.Payload, p.PayloadHash))
	errs = errors.AppendField(errs, "Creator", p.Creator.Validate())
	if p.CreatedAt == 0 {
		errs = errors.AppendField(errs, "CreatedAt",
			errors.Wrap(errors.ErrModel, "missing creation time"))
	}
	for i, v := range p.Votes {
		if v == nil {
			errs = errors.AppendField(errs, "Votes",
				errors.Wrapf(errors.ErrModel, "vote #%d is nil", i))
			continue
		}
		errs = errors.AppendField(errs, "Votes", v.Owner.Validate())
	}
	return errs
}

func validatePayloadShape(payload, hash []byte) error {
	if (len(payload) == 0) == (len(hash) == 0) {
		return ErrPayloadShape
	}
	if len(hash) != 0 && len(hash) != sha256.Size {
		return errors.Wrap(errors.ErrInput, "payload hash must be a sha256 digest")
	}
	return nil
}

// SetVote records the latest voting decision of an owner, replacing any
// previous vote of the same address.
func (p *Proposal) SetVote(owner weave.Address, approve bool) {
	for _, v := range p.Votes {
		if v.Owner.Equals(owner) {
			v.Approve = approve
			return
		}
	}
	p.Votes = append(p.Votes, &Vote{Owner: owner, Approve: approve})
}

// Vote returns the recorded vote of given address or nil if that address
// never voted.
func (p *Proposal) Vote(owner weave.Address) *Vote {
	for _, v := range p.Votes {
		if v.Owner.Equals(owner) {
			return v
		}
	}
	return nil
}

// MatchesPayload returns true if given payload is what this proposal
// committed to, either directly or via a hash commitment.
func (p *Proposal) MatchesPayload(payload []byte) bool {
	if len(p.PayloadHash) != 0 {
		h := sha256.Sum256(payload)
		return bytes.Equal(h[:], p.PayloadHash)
	}
	return bytes.Equal(p.Payload, payload)
}

var _ orm.Model = (*Revocation)(nil)

func (r *Revocation) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", r.Metadata.Validate())
	errs = errors.AppendField(errs, "Address", r.Address.Validate())
	return errs
}

// NewAccountBucket returns a bucket for keeping multisig account state.
// Accounts are indexed by their address.
func NewAccountBucket() orm.ModelBucket {
	b := orm.NewModelBucket("msaccounts", &MultisigAccount{})
	return migration.NewModelBucket("msaccount", b)
}

// NewProposalBucket returns a bucket for keeping pending proposals. Each
// proposal is indexed by the account address followed by the big endian
// encoded sequence number, so that iteration order is resolution order.
func NewProposalBucket() orm.ModelBucket {
	b := orm.NewModelBucket("msproposal", &Proposal{})
	return migration.NewModelBucket("msaccount", b)
}

// NewRevocationBucket returns a bucket for keeping revoked signing keys.
func NewRevocationBucket() orm.ModelBucket {
	b := orm.NewModelBucket("msrevoked", &Revocation{})
	return migration.NewModelBucket("msaccount", b)
}

// proposalKey returns the bucket key of a proposal of given account and
// sequence number.
func proposalKey(account weave.Address, seq int64) []byte {
	key := make([]byte, len(account)+8)
	copy(key, account)
	binary.BigEndian.PutUint64(key[len(account):], uint64(seq))
	return key
}

// AccountCondition returns the condition that a multisig account fulfills
// when an approved proposal of that account is executed.
func AccountCondition(id []byte) weave.Condition {
	return weave.NewCondition("msaccount", "usage", id)
}

// derivedID computes the identity of a newly created account from its
// creator address and a creator scoped nonce.
func derivedID(creator weave.Address, nonce int64) []byte {
	raw := make([]byte, len(creator)+8)
	copy(raw, creator)
	binary.BigEndian.PutUint64(raw[len(creator):], uint64(nonce))
	sum := sha256.Sum256(raw)
	return sum[:]
}
