package msaccount

import (
	"strconv"
	"strings"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/gconf"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
	"github.com/iov-one/weave/x"
	"github.com/iov-one/weave/x/cash"
	"github.com/iov-one/weave/x/sigs"
	"github.com/tendermint/tendermint/libs/common"
)

const (
	creationCost int64 = 300
	proposeCost  int64 = 150
	voteCost     int64 = 50
	executeCost  int64 = 300
	updateCost   int64 = 150
)

// RegisterRoutes will instantiate and register all handlers in this
// package. The executor and decoder define how resolved proposal payloads
// are interpreted and run, usually the application router with its
// message codec.
func RegisterRoutes(r weave.Registry, auth x.Authenticator, ctrl cash.Controller, executor Executor, decoder PayloadDecoder) {
	r = migration.SchemaMigratingRegistry("msaccount", r)

	r.Handle(&CreateMsg{}, CreateHandler{auth: auth, ctrl: newController(), bank: ctrl})
	r.Handle(&CreateFromExistingMsg{}, CreateFromExistingHandler{auth: auth, ctrl: newController(), revoked: NewRevocationBucket()})
	r.Handle(&ProposeMsg{}, ProposeHandler{auth: auth, ctrl: newController()})
	r.Handle(&VoteMsg{}, VoteHandler{auth: auth, ctrl: newController()})
	r.Handle(&RejectMsg{}, RejectHandler{auth: auth, ctrl: newController()})
	r.Handle(&ExecuteMsg{}, ExecuteHandler{auth: auth, ctrl: newController(), executor: executor, decoder: decoder})
	r.Handle(&UpdateOwnersMsg{}, UpdateOwnersHandler{auth: auth, ctrl: newController()})
	r.Handle(&UpdateAnnotationsMsg{}, UpdateAnnotationsHandler{auth: auth, ctrl: newController()})
	r.Handle(&UpdateConfigurationMsg{}, gconf.NewUpdateConfigurationHandler(
		"msaccount", &Configuration{}, auth, migration.CurrentAdmin))
}

// RegisterQuery registers buckets from this package.
func RegisterQuery(qr weave.QueryRouter) {
	NewAccountBucket().Register("msaccounts", qr)
	NewProposalBucket().Register("msproposal", qr)
	NewRevocationBucket().Register("msrevoked", qr)
}

// ownerSigner returns the address of the first transaction signer that
// belongs to the owner set of given account.
func ownerSigner(ctx weave.Context, auth x.Authenticator, a *MultisigAccount) (weave.Address, error) {
	for _, c := range auth.GetConditions(ctx) {
		if a.IsOwner(c.Address()) {
			return c.Address(), nil
		}
	}
	return nil, errors.Wrap(errors.ErrUnauthorized, "not signed by an owner")
}

func accountTags(action string, account weave.Address, seq int64) []common.KVPair {
	tags := []common.KVPair{
		{Key: []byte("msaccount:action"), Value: []byte(action)},
		{Key: []byte("msaccount:account"), Value: []byte(account.String())},
	}
	if seq > 0 {
		tags = append(tags, common.KVPair{
			Key:   []byte("msaccount:sequence"),
			Value: []byte(strconv.FormatInt(seq, 10)),
		})
	}
	return tags
}

// CreateHandler creates a multisig account with a freshly derived address.
type CreateHandler struct {
	auth x.Authenticator
	ctrl controller
	bank cash.CoinMover
}

var _ weave.Handler = CreateHandler{}

func (h CreateHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: creationCost}, nil
}

func (h CreateHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, creator, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	owners := msg.Owners
	if !contains(owners, creator) {
		owners = append([]weave.Address{creator}, owners...)
	}
	if err := validateOwners(errors.ErrMsg, owners, msg.Threshold); err != nil {
		return nil, err
	}

	nonce, err := creatorNonce(db, creator)
	if err != nil {
		return nil, err
	}
	id := derivedID(creator, nonce)
	address := AccountCondition(id).Address()
	if err := h.ctrl.accounts.Has(db, address); err == nil {
		return nil, errors.Wrapf(errors.ErrDuplicate, "account %q", address)
	} else if !errors.ErrNotFound.Is(err) {
		return nil, errors.Wrap(err, "account lookup")
	}

	account := &MultisigAccount{
		Metadata:     &weave.Metadata{Schema: 1},
		Address:      address,
		Owners:       owners,
		Threshold:    msg.Threshold,
		NextSequence: 1,
		LastResolved: 0,
		Annotations:  msg.Annotations,
		DerivationId: id,
	}
	if msg.DropCreator {
		kept := make([]weave.Address, 0, len(owners))
		for _, o := range owners {
			if !o.Equals(creator) {
				kept = append(kept, o)
			}
		}
		if err := validateOwners(errors.ErrMsg, kept, msg.Threshold); err != nil {
			return nil, errors.Wrap(err, "owners after dropping creator")
		}
		account.Owners = kept
	}
	if _, err := h.ctrl.accounts.Put(db, address, account); err != nil {
		return nil, errors.Wrap(err, "store account")
	}

	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if h.bank != nil && !conf.InitialFunds.IsZero() {
		if err := h.bank.MoveCoins(db, creator, address, conf.InitialFunds); err != nil {
			return nil, errors.Wrap(err, "initial funds")
		}
	}

	return &weave.DeliverResult{
		Data: address,
		Tags: accountTags("create", address, 0),
	}, nil
}

func (h CreateHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CreateMsg, weave.Address, error) {
	var msg CreateMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	creator := x.AnySigner(ctx, h.auth)
	if creator == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return &msg, creator.Address(), nil
}

// creatorNonce returns a creator scoped value that changes with every
// signed transaction, making derived account addresses unique.
func creatorNonce(db weave.KVStore, creator weave.Address) (int64, error) {
	obj, err := sigs.NewBucket().Get(db, creator)
	if err != nil {
		return 0, errors.Wrap(err, "sigs lookup")
	}
	user := sigs.AsUser(obj)
	if user == nil {
		return 0, nil
	}
	return user.Sequence, nil
}

func joinAddresses(addrs []weave.Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

func contains(addrs []weave.Address, a weave.Address) bool {
	for _, have := range addrs {
		if have.Equals(a) {
			return true
		}
	}
	return false
}

// CreateFromExistingHandler converts an already existing account into a
// multisig account, keeping its address.
type CreateFromExistingHandler struct {
	auth    x.Authenticator
	ctrl    controller
	revoked orm.ModelBucket
}

var _ weave.Handler = CreateFromExistingHandler{}

func (h CreateFromExistingHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: creationCost}, nil
}

func (h CreateFromExistingHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	if err := h.ctrl.accounts.Has(db, msg.Address); err == nil {
		return nil, errors.Wrapf(errors.ErrDuplicate, "account %q", msg.Address)
	} else if !errors.ErrNotFound.Is(err) {
		return nil, errors.Wrap(err, "account lookup")
	}

	bucket := sigs.NewBucket()
	obj, err := bucket.Get(db, msg.Address)
	if err != nil {
		return nil, errors.Wrap(err, "sigs lookup")
	}
	user := sigs.AsUser(obj)
	if user == nil || user.Pubkey == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "no key for account %q", msg.Address)
	}

	chainID := weave.GetChainID(ctx)
	signBytes, err := ConversionSignBytes(chainID, msg.Address, user.Sequence, msg.Owners, msg.Threshold)
	if err != nil {
		return nil, errors.Wrap(err, "sign bytes")
	}
	if !user.Pubkey.Verify(signBytes, msg.Signature) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid conversion signature")
	}
	// Burn the grant so that the same signature cannot convert twice.
	if err := user.CheckAndIncrementSequence(user.Sequence); err != nil {
		return nil, errors.Wrap(err, "increment sequence")
	}
	if err := bucket.Save(db, obj); err != nil {
		return nil, errors.Wrap(err, "save user")
	}

	account := &MultisigAccount{
		Metadata:     &weave.Metadata{Schema: 1},
		Address:      msg.Address,
		Owners:       msg.Owners,
		Threshold:    msg.Threshold,
		NextSequence: 1,
		LastResolved: 0,
		Converted:    true,
	}
	if _, err := h.ctrl.accounts.Put(db, msg.Address, account); err != nil {
		return nil, errors.Wrap(err, "store account")
	}

	if msg.Revoke {
		rev := &Revocation{
			Metadata: &weave.Metadata{Schema: 1},
			Address:  msg.Address,
		}
		if _, err := h.revoked.Put(db, msg.Address, rev); err != nil {
			return nil, errors.Wrap(err, "store revocation")
		}
	}

	return &weave.DeliverResult{
		Data: msg.Address,
		Tags: accountTags("convert", msg.Address, 0),
	}, nil
}

func (h CreateFromExistingHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CreateFromExistingMsg, error) {
	var msg CreateFromExistingMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return &msg, nil
}

// ProposeHandler queues a new proposal on an account.
type ProposeHandler struct {
	auth x.Authenticator
	ctrl controller
}

var _ weave.Handler = ProposeHandler{}

func (h ProposeHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: proposeCost}, nil
}

func (h ProposeHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, account, creator, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	now, err := weave.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	proposal := &Proposal{
		Metadata:    &weave.Metadata{Schema: 1},
		Account:     account.Address,
		Payload:     msg.Payload,
		PayloadHash: msg.PayloadHash,
		Creator:     creator,
		CreatedAt:   weave.AsUnixTime(now),
	}

	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	seq, err := h.ctrl.Enqueue(db, account, proposal, conf.QueueCap)
	if err != nil {
		return nil, err
	}

	return &weave.DeliverResult{
		Data: []byte(strconv.FormatInt(seq, 10)),
		Tags: accountTags("propose", account.Address, seq),
	}, nil
}

func (h ProposeHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*ProposeMsg, *MultisigAccount, weave.Address, error) {
	var msg ProposeMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	account, err := h.ctrl.Account(db, msg.Account)
	if err != nil {
		return nil, nil, nil, err
	}
	creator, err := ownerSigner(ctx, h.auth, account)
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, account, creator, nil
}

// VoteHandler records an approval or a rejection vote of an owner.
type VoteHandler struct {
	auth x.Authenticator
	ctrl controller
}

var _ weave.Handler = VoteHandler{}

func (h VoteHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: voteCost}, nil
}

func (h VoteHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, account, voter, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.ctrl.CastVote(db, account, msg.Sequence, voter, msg.Approve); err != nil {
		return nil, err
	}
	action := "approve"
	if !msg.Approve {
		action = "reject_vote"
	}
	return &weave.DeliverResult{
		Tags: accountTags(action, account.Address, msg.Sequence),
	}, nil
}

func (h VoteHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*VoteMsg, *MultisigAccount, weave.Address, error) {
	var msg VoteMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	account, err := h.ctrl.Account(db, msg.Account)
	if err != nil {
		return nil, nil, nil, err
	}
	voter, err := ownerSigner(ctx, h.auth, account)
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, account, voter, nil
}

// RejectHandler removes the next queued proposal once it collected enough
// rejections.
type RejectHandler struct {
	auth x.Authenticator
	ctrl controller
}

var _ weave.Handler = RejectHandler{}

func (h RejectHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: voteCost}, nil
}

func (h RejectHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, account, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	p, err := h.ctrl.ResolveReject(db, account, msg.Sequence)
	if err != nil {
		return nil, err
	}
	_, rejections := Tally(p, account)
	tags := accountTags("reject", account.Address, msg.Sequence)
	tags = append(tags, common.KVPair{
		Key:   []byte("msaccount:rejections"),
		Value: []byte(strconv.FormatUint(uint64(rejections), 10)),
	})
	return &weave.DeliverResult{Tags: tags}, nil
}

func (h RejectHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*RejectMsg, *MultisigAccount, error) {
	var msg RejectMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	account, err := h.ctrl.Account(db, msg.Account)
	if err != nil {
		return nil, nil, err
	}
	if _, err := ownerSigner(ctx, h.auth, account); err != nil {
		return nil, nil, err
	}
	return &msg, account, nil
}

// ExecuteHandler runs the payload of the next approved proposal with the
// account authority.
type ExecuteHandler struct {
	auth     x.Authenticator
	ctrl     controller
	executor Executor
	decoder  PayloadDecoder
}

var _ weave.Handler = ExecuteHandler{}

func (h ExecuteHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	msg, account, executor, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if _, _, err := h.ctrl.BeginExecution(db, account, msg.Sequence, msg.Payload, executor, conf.StrictPayloadMatch); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: executeCost}, nil
}

func (h ExecuteHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, account, executor, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	proposal, payload, err := h.ctrl.BeginExecution(db, account, msg.Sequence, msg.Payload, executor, conf.StrictPayloadMatch)
	if err != nil {
		return nil, err
	}

	approvals, _ := Tally(proposal, account)

	res, runErr := h.run(ctx, db, account, payload)

	// A failed payload run still consumes the sequence number. Only the
	// payload side effects are rolled back.
	if err := h.ctrl.FinishExecution(db, account, proposal); err != nil {
		return nil, err
	}

	tags := accountTags("execute", account.Address, msg.Sequence)
	tags = append(tags, common.KVPair{
		Key:   []byte("msaccount:approvals"),
		Value: []byte(strconv.FormatUint(uint64(approvals), 10)),
	})
	if runErr != nil {
		return &weave.DeliverResult{
			Log:  runErr.Error(),
			Tags: append(tags, common.KVPair{Key: []byte("msaccount:result"), Value: []byte("failure")}),
		}, nil
	}
	var data []byte
	var log string
	if res != nil {
		data = res.Data
		log = res.Log
		tags = append(tags, res.Tags...)
	}
	return &weave.DeliverResult{
		Data: data,
		Log:  log,
		Tags: append(tags, common.KVPair{Key: []byte("msaccount:result"), Value: []byte("success")}),
	}, nil
}

// run decodes and executes the payload on a cache wrapped store so that a
// failing payload cannot leave partial writes behind.
func (h ExecuteHandler) run(ctx weave.Context, db weave.KVStore, account *MultisigAccount, payload []byte) (*weave.DeliverResult, error) {
	msg, err := h.decoder(payload)
	if err != nil {
		return nil, errors.Wrap(err, "decode payload")
	}
	cstore, ok := db.(weave.CacheableKVStore)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "store cannot be cache wrapped")
	}
	sub := cstore.CacheWrap()
	res, err := h.executor(withAccount(ctx, account), sub, &payloadTx{msg: msg})
	if err != nil {
		sub.Discard()
		return nil, err
	}
	if err := sub.Write(); err != nil {
		return nil, errors.Wrap(err, "commit payload writes")
	}
	return res, nil
}

func (h ExecuteHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*ExecuteMsg, *MultisigAccount, weave.Address, error) {
	var msg ExecuteMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	account, err := h.ctrl.Account(db, msg.Account)
	if err != nil {
		return nil, nil, nil, err
	}
	executor, err := ownerSigner(ctx, h.auth, account)
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, account, executor, nil
}

// UpdateOwnersHandler changes the owner set and threshold. Only the
// account itself, through an executed proposal, can authorize this.
type UpdateOwnersHandler struct {
	auth x.Authenticator
	ctrl controller
}

var _ weave.Handler = UpdateOwnersHandler{}

func (h UpdateOwnersHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: updateCost}, nil
}

func (h UpdateOwnersHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, account, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.UpdateOwners(db, account, msg.Add, msg.Remove, msg.Threshold); err != nil {
		return nil, err
	}
	tags := accountTags("update_owners", account.Address, 0)
	if len(msg.Add) != 0 {
		tags = append(tags, common.KVPair{Key: []byte("msaccount:added"), Value: []byte(joinAddresses(msg.Add))})
	}
	if len(msg.Remove) != 0 {
		tags = append(tags, common.KVPair{Key: []byte("msaccount:removed"), Value: []byte(joinAddresses(msg.Remove))})
	}
	return &weave.DeliverResult{Tags: tags}, nil
}

func (h UpdateOwnersHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*UpdateOwnersMsg, *MultisigAccount, error) {
	var msg UpdateOwnersMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	account, err := h.ctrl.Account(db, msg.Account)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, account.Address) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the account itself can update owners")
	}
	return &msg, account, nil
}

// UpdateAnnotationsHandler replaces the annotation list of an account as a
// whole. Only the account itself can authorize this.
type UpdateAnnotationsHandler struct {
	auth x.Authenticator
	ctrl controller
}

var _ weave.Handler = UpdateAnnotationsHandler{}

func (h UpdateAnnotationsHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: updateCost}, nil
}

func (h UpdateAnnotationsHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, account, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	account.Annotations = msg.Annotations
	if _, err := h.ctrl.accounts.Put(db, account.Address, account); err != nil {
		return nil, errors.Wrap(err, "store account")
	}
	return &weave.DeliverResult{
		Tags: accountTags("update_annotations", account.Address, 0),
	}, nil
}

func (h UpdateAnnotationsHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*UpdateAnnotationsMsg, *MultisigAccount, error) {
	var msg UpdateAnnotationsMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	account, err := h.ctrl.Account(db, msg.Account)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, account.Address) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the account itself can update annotations")
	}
	return &msg, account, nil
}
