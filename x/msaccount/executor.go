package msaccount

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
)

// PayloadDecoder turns raw proposal payload bytes into a message that can
// be routed. The application configures how payloads are encoded, this
// package only stores and compares the raw bytes.
type PayloadDecoder func(payload []byte) (weave.Msg, error)

// Executor runs a resolved proposal payload with the multisig account
// authority present in the context.
type Executor func(ctx weave.Context, store weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error)

// HandlerAsExecutor wraps a handler, usually the application router, so
// that it can execute proposal payloads.
func HandlerAsExecutor(h weave.Handler) Executor {
	return h.Deliver
}

// payloadTx wraps a decoded payload message so that it can be passed
// through a weave.Handler. It exists only in memory during execution and
// must never be serialized.
type payloadTx struct {
	msg weave.Msg
}

var _ weave.Tx = (*payloadTx)(nil)

func (tx *payloadTx) GetMsg() (weave.Msg, error) {
	return tx.msg, nil
}

func (tx *payloadTx) Marshal() ([]byte, error) {
	return nil, errors.Wrap(errors.ErrHuman, "payload tx cannot be serialized")
}

func (tx *payloadTx) Unmarshal([]byte) error {
	return errors.Wrap(errors.ErrHuman, "payload tx cannot be serialized")
}
