package msaccount

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/orm"
	"github.com/iov-one/weave/x"
)

// RevocationDecorator rejects transactions authorized by a key that was
// revoked during account conversion. Place it after the signature
// verification decorator so that revoked keys cannot act on their own
// while the multisig account built on top of them still can.
type RevocationDecorator struct {
	auth    x.Authenticator
	revoked orm.ModelBucket
}

var _ weave.Decorator = RevocationDecorator{}

// NewRevocationDecorator returns a decorator enforcing key revocations.
func NewRevocationDecorator(auth x.Authenticator) RevocationDecorator {
	return RevocationDecorator{
		auth:    auth,
		revoked: NewRevocationBucket(),
	}
}

// Check rejects revoked signers before calling down the stack.
func (d RevocationDecorator) Check(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	if err := d.enforce(ctx, store); err != nil {
		return nil, err
	}
	return next.Check(ctx, store, tx)
}

// Deliver rejects revoked signers before calling down the stack.
func (d RevocationDecorator) Deliver(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	if err := d.enforce(ctx, store); err != nil {
		return nil, err
	}
	return next.Deliver(ctx, store, tx)
}

func (d RevocationDecorator) enforce(ctx weave.Context, store weave.KVStore) error {
	for _, c := range d.auth.GetConditions(ctx) {
		addr := c.Address()
		switch err := d.revoked.Has(store, addr); {
		case err == nil:
			return errors.Wrapf(ErrRevoked, "signer %q", addr)
		case errors.ErrNotFound.Is(err):
			// That signer is fine.
		default:
			return errors.Wrap(err, "revocation lookup")
		}
	}
	return nil
}
