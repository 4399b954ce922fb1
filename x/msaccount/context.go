package msaccount

import (
	"context"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/x"
)

type contextKey int // local to the msaccount module

const (
	contextKeyAccount contextKey = iota
)

type accountAuthority struct {
	cond weave.Condition
	addr weave.Address
}

// withAccount is private, only proposal execution can grant the account
// authority. The account address is carried next to the condition because
// converted accounts keep their original address which is not derivable
// from the condition.
func withAccount(ctx weave.Context, a *MultisigAccount) weave.Context {
	data := a.DerivationId
	if len(data) == 0 {
		// Converted accounts have no derivation id. Their original
		// address doubles as the condition data and authentication
		// falls back to the stored address.
		data = a.Address
	}
	auth := accountAuthority{
		cond: AccountCondition(data),
		addr: a.Address,
	}
	return context.WithValue(ctx, contextKeyAccount, auth)
}

// Authenticate provides the multisig account authority to handlers that
// execute proposal payloads.
type Authenticate struct {
}

var _ x.Authenticator = Authenticate{}

// GetConditions returns the account condition previously set on this context.
func (a Authenticate) GetConditions(ctx weave.Context) []weave.Condition {
	// (val, ok) form to return nil instead of panic if unset
	val, ok := ctx.Value(contextKeyAccount).(accountAuthority)
	if !ok {
		return nil
	}
	return []weave.Condition{val.cond}
}

// HasAddress returns true iff this address is the executing account or the
// address of any condition set on this context.
func (a Authenticate) HasAddress(ctx weave.Context, addr weave.Address) bool {
	val, ok := ctx.Value(contextKeyAccount).(accountAuthority)
	if !ok {
		return false
	}
	return addr.Equals(val.addr) || addr.Equals(val.cond.Address())
}
