package msaccount

import (
	"context"
	"testing"
	"time"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/crypto"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/gconf"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/store"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/weavetest/assert"
	"github.com/iov-one/weave/x/sigs"
)

// handlerTestDB returns a store with the schema and the given
// configuration installed, the way genesis initialization would leave it.
func handlerTestDB(t testing.TB, conf Configuration) weave.CacheableKVStore {
	t.Helper()
	db := store.MemStore()
	migration.MustInitPkg(db, "msaccount", "sigs")
	if conf.Metadata == nil {
		conf.Metadata = &weave.Metadata{Schema: 1}
	}
	if conf.QueueCap == 0 {
		conf.QueueCap = 20
	}
	if err := gconf.Save(db, "msaccount", &conf); err != nil {
		t.Fatalf("cannot save configuration: %s", err)
	}
	return db
}

func TestCreateHandler(t *testing.T) {
	auth := &weavetest.CtxAuth{Key: "auth"}
	aliceCond := weavetest.NewCondition()
	alice := aliceCond.Address()
	bob := weavetest.NewCondition().Address()

	cases := map[string]struct {
		Conditions     []weave.Condition
		Msg            CreateMsg
		WantCheckErr   *errors.Error
		WantDeliverErr *errors.Error
		WantOwners     int
	}{
		"creator is implicitly added to the owner set": {
			Conditions: []weave.Condition{aliceCond},
			Msg: CreateMsg{
				Metadata:  &weave.Metadata{Schema: 1},
				Owners:    []weave.Address{bob},
				Threshold: 2,
			},
			WantOwners: 2,
		},
		"creator already listed is not duplicated": {
			Conditions: []weave.Condition{aliceCond},
			Msg: CreateMsg{
				Metadata:  &weave.Metadata{Schema: 1},
				Owners:    []weave.Address{alice, bob},
				Threshold: 2,
			},
			WantOwners: 2,
		},
		"dropping the creator keeps the rest of the owner set": {
			Conditions: []weave.Condition{aliceCond},
			Msg: CreateMsg{
				Metadata:    &weave.Metadata{Schema: 1},
				Owners:      []weave.Address{bob},
				Threshold:   1,
				DropCreator: true,
			},
			WantOwners: 1,
		},
		"dropping the creator must leave a reachable threshold": {
			Conditions: []weave.Condition{aliceCond},
			Msg: CreateMsg{
				Metadata:    &weave.Metadata{Schema: 1},
				Owners:      []weave.Address{bob},
				Threshold:   2,
				DropCreator: true,
			},
			WantDeliverErr: errors.ErrMsg,
		},
		"transaction must be signed": {
			Conditions: nil,
			Msg: CreateMsg{
				Metadata:  &weave.Metadata{Schema: 1},
				Owners:    []weave.Address{bob},
				Threshold: 1,
			},
			WantCheckErr:   errors.ErrUnauthorized,
			WantDeliverErr: errors.ErrUnauthorized,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := handlerTestDB(t, Configuration{})
			h := CreateHandler{auth: auth, ctrl: newController()}
			ctx := auth.SetConditions(context.Background(), tc.Conditions...)
			tx := &weavetest.Tx{Msg: &tc.Msg}

			cache := db.CacheWrap()
			if _, err := h.Check(ctx, cache, tx); !tc.WantCheckErr.Is(err) {
				t.Fatalf("unexpected check error: %+v", err)
			}
			cache.Discard()

			res, err := h.Deliver(ctx, db, tx)
			if !tc.WantDeliverErr.Is(err) {
				t.Fatalf("unexpected deliver error: %+v", err)
			}
			if tc.WantDeliverErr != nil {
				return
			}

			var account MultisigAccount
			if err := h.ctrl.accounts.One(db, res.Data, &account); err != nil {
				t.Fatalf("cannot load created account: %s", err)
			}
			assert.Equal(t, tc.WantOwners, len(account.Owners))
			assert.Equal(t, int64(1), account.NextSequence)
			assert.Equal(t, int64(0), account.LastResolved)
			if !AccountCondition(account.DerivationId).Address().Equals(account.Address) {
				t.Fatal("account address must be derivable from the stored derivation id")
			}
			if tc.Msg.DropCreator && account.IsOwner(alice) {
				t.Fatal("creator was not dropped from the owner set")
			}
		})
	}
}

func TestCreateHandlerRejectsDuplicateDerivedAddress(t *testing.T) {
	db := handlerTestDB(t, Configuration{})
	auth := &weavetest.CtxAuth{Key: "auth"}
	aliceCond := weavetest.NewCondition()
	ctx := auth.SetConditions(context.Background(), aliceCond)

	h := CreateHandler{auth: auth, ctrl: newController()}
	tx := &weavetest.Tx{Msg: &CreateMsg{
		Metadata:  &weave.Metadata{Schema: 1},
		Owners:    []weave.Address{weavetest.NewCondition().Address()},
		Threshold: 1,
	}}
	if _, err := h.Deliver(ctx, db, tx); err != nil {
		t.Fatalf("first creation failed: %+v", err)
	}
	// The creator has no signature sequence so the nonce and the derived
	// address do not change between the two transactions.
	if _, err := h.Deliver(ctx, db, tx); !errors.ErrDuplicate.Is(err) {
		t.Fatalf("want a duplicate error, got %+v", err)
	}
}

func TestCreateFromExistingHandler(t *testing.T) {
	const chainID = "test-chain-1"

	priv := crypto.GenPrivKeyEd25519()
	existing := priv.PublicKey().Address()
	bob := weavetest.NewCondition().Address()
	carol := weavetest.NewCondition().Address()
	owners := []weave.Address{bob, carol}

	signConversion := func(t testing.TB, seq int64, threshold uint32) *crypto.Signature {
		t.Helper()
		signBytes, err := ConversionSignBytes(chainID, existing, seq, owners, threshold)
		if err != nil {
			t.Fatalf("cannot build sign bytes: %s", err)
		}
		sig, err := priv.Sign(signBytes)
		if err != nil {
			t.Fatalf("cannot sign: %s", err)
		}
		return sig
	}

	cases := map[string]struct {
		SeedUser       bool
		Signature      func(t testing.TB) *crypto.Signature
		Revoke         bool
		WantDeliverErr *errors.Error
	}{
		"a signed grant converts the account": {
			SeedUser:  true,
			Signature: func(t testing.TB) *crypto.Signature { return signConversion(t, 0, 2) },
		},
		"conversion can revoke the original key": {
			SeedUser:  true,
			Signature: func(t testing.TB) *crypto.Signature { return signConversion(t, 0, 2) },
			Revoke:    true,
		},
		"a grant over a different owner schema is refused": {
			SeedUser:       true,
			Signature:      func(t testing.TB) *crypto.Signature { return signConversion(t, 0, 1) },
			WantDeliverErr: errors.ErrUnauthorized,
		},
		"a stale sequence grant is refused": {
			SeedUser:       true,
			Signature:      func(t testing.TB) *crypto.Signature { return signConversion(t, 4, 2) },
			WantDeliverErr: errors.ErrUnauthorized,
		},
		"account without a registered key cannot be converted": {
			SeedUser:       false,
			Signature:      func(t testing.TB) *crypto.Signature { return signConversion(t, 0, 2) },
			WantDeliverErr: errors.ErrNotFound,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := handlerTestDB(t, Configuration{})
			bucket := sigs.NewBucket()
			if tc.SeedUser {
				obj := sigs.NewUser(priv.PublicKey())
				if err := bucket.Save(db, obj); err != nil {
					t.Fatalf("cannot seed user: %s", err)
				}
			}

			auth := &weavetest.CtxAuth{Key: "auth"}
			ctx := weave.WithChainID(context.Background(), chainID)
			h := CreateFromExistingHandler{
				auth:    auth,
				ctrl:    newController(),
				revoked: NewRevocationBucket(),
			}
			tx := &weavetest.Tx{Msg: &CreateFromExistingMsg{
				Metadata:  &weave.Metadata{Schema: 1},
				Address:   existing,
				Owners:    owners,
				Threshold: 2,
				Signature: tc.Signature(t),
				Revoke:    tc.Revoke,
			}}

			_, err := h.Deliver(ctx, db, tx)
			if !tc.WantDeliverErr.Is(err) {
				t.Fatalf("unexpected deliver error: %+v", err)
			}
			if tc.WantDeliverErr != nil {
				return
			}

			var account MultisigAccount
			if err := h.ctrl.accounts.One(db, existing, &account); err != nil {
				t.Fatalf("cannot load converted account: %s", err)
			}
			if !account.Converted {
				t.Fatal("account is not marked as converted")
			}
			assert.Equal(t, uint32(2), account.Threshold)

			obj, err := bucket.Get(db, existing)
			if err != nil {
				t.Fatalf("cannot load user: %s", err)
			}
			// The grant is burned by bumping the signature sequence.
			assert.Equal(t, int64(1), sigs.AsUser(obj).Sequence)

			err = h.revoked.Has(db, existing)
			if tc.Revoke {
				assert.Nil(t, err)
			} else if !errors.ErrNotFound.Is(err) {
				t.Fatalf("unexpected revocation state: %+v", err)
			}
		})
	}
}

func TestConversionSignatureCannotBeReplayed(t *testing.T) {
	const chainID = "test-chain-1"

	db := handlerTestDB(t, Configuration{})
	priv := crypto.GenPrivKeyEd25519()
	existing := priv.PublicKey().Address()
	owners := []weave.Address{weavetest.NewCondition().Address()}

	bucket := sigs.NewBucket()
	obj := sigs.NewUser(priv.PublicKey())
	if err := bucket.Save(db, obj); err != nil {
		t.Fatalf("cannot seed user: %s", err)
	}

	signBytes, err := ConversionSignBytes(chainID, existing, 0, owners, 1)
	if err != nil {
		t.Fatalf("cannot build sign bytes: %s", err)
	}
	sig, err := priv.Sign(signBytes)
	if err != nil {
		t.Fatalf("cannot sign: %s", err)
	}

	h := CreateFromExistingHandler{auth: &weavetest.CtxAuth{Key: "auth"}, ctrl: newController(), revoked: NewRevocationBucket()}
	ctx := weave.WithChainID(context.Background(), chainID)
	tx := &weavetest.Tx{Msg: &CreateFromExistingMsg{
		Metadata:  &weave.Metadata{Schema: 1},
		Address:   existing,
		Owners:    owners,
		Threshold: 1,
		Signature: sig,
	}}
	if _, err := h.Deliver(ctx, db, tx); err != nil {
		t.Fatalf("first conversion failed: %+v", err)
	}

	// Remove the account so that the duplicate check does not mask the
	// sequence check.
	if err := h.ctrl.accounts.Delete(db, existing); err != nil {
		t.Fatalf("cannot delete account: %s", err)
	}
	if _, err := h.Deliver(ctx, db, tx); !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("want an unauthorized error, got %+v", err)
	}
}

func TestProposeVoteExecuteFlow(t *testing.T) {
	db := handlerTestDB(t, Configuration{})
	auth := &weavetest.CtxAuth{Key: "auth"}
	ctrl := newController()

	aliceCond := weavetest.NewCondition()
	bobCond := weavetest.NewCondition()
	account := newTestAccount(t, db, ctrl, 2, aliceCond.Address(), bobCond.Address())

	executed := 0
	executor := func(ctx weave.Context, store weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
		executed++
		// The payload must run with the account authority.
		if !(Authenticate{}).HasAddress(ctx, account.Address) {
			t.Fatal("payload is not executed with the account authority")
		}
		store.Set([]byte("payload-ran"), []byte("yes"))
		return &weave.DeliverResult{Data: []byte("done")}, nil
	}
	decoder := func(raw []byte) (weave.Msg, error) {
		return &weavetest.Msg{RoutePath: "test/any", Serialized: raw}, nil
	}

	baseCtx := weave.WithBlockTime(context.Background(), time.Now())

	propose := ProposeHandler{auth: auth, ctrl: ctrl}
	aliceCtx := auth.SetConditions(baseCtx, aliceCond)
	res, err := propose.Deliver(aliceCtx, db, &weavetest.Tx{Msg: &ProposeMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Account:  account.Address,
		Payload:  []byte("transfer"),
	}})
	if err != nil {
		t.Fatalf("cannot propose: %+v", err)
	}
	assert.Equal(t, []byte("1"), res.Data)

	// Bob has not voted yet. His execution attempt counts as an implicit
	// approval and satisfies the 2 of 2 threshold.
	execute := ExecuteHandler{auth: auth, ctrl: ctrl, executor: executor, decoder: decoder}
	bobCtx := auth.SetConditions(baseCtx, bobCond)
	eres, err := execute.Deliver(bobCtx, db, &weavetest.Tx{Msg: &ExecuteMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Account:  account.Address,
		Sequence: 1,
	}})
	if err != nil {
		t.Fatalf("cannot execute: %+v", err)
	}
	assert.Equal(t, 1, executed)
	assert.Equal(t, []byte("done"), eres.Data)

	raw, err := db.Get([]byte("payload-ran"))
	if err != nil {
		t.Fatalf("cannot read store: %s", err)
	}
	assert.Equal(t, []byte("yes"), raw)

	fresh, err := ctrl.Account(db, account.Address)
	if err != nil {
		t.Fatalf("cannot load account: %s", err)
	}
	assert.Equal(t, int64(1), fresh.LastResolved)
	assert.Equal(t, int64(2), fresh.NextSequence)
	if _, err := ctrl.Proposal(db, account.Address, 1); !errors.ErrNotFound.Is(err) {
		t.Fatalf("proposal must be deleted after execution: %+v", err)
	}
}

func TestExecuteFailureRollsBackPayloadOnly(t *testing.T) {
	db := handlerTestDB(t, Configuration{})
	auth := &weavetest.CtxAuth{Key: "auth"}
	ctrl := newController()

	aliceCond := weavetest.NewCondition()
	account := newTestAccount(t, db, ctrl, 1, aliceCond.Address())
	enqueuePayload(t, db, ctrl, account, aliceCond.Address(), []byte("doomed"))

	executor := func(ctx weave.Context, store weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
		store.Set([]byte("partial-write"), []byte("leak"))
		return nil, errors.Wrap(errors.ErrState, "payload exploded")
	}
	decoder := func(raw []byte) (weave.Msg, error) {
		return &weavetest.Msg{RoutePath: "test/any", Serialized: raw}, nil
	}

	execute := ExecuteHandler{auth: auth, ctrl: ctrl, executor: executor, decoder: decoder}
	ctx := auth.SetConditions(context.Background(), aliceCond)
	res, err := execute.Deliver(ctx, db, &weavetest.Tx{Msg: &ExecuteMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Account:  account.Address,
		Sequence: 1,
	}})
	// Payload failure is not a transaction failure.
	if err != nil {
		t.Fatalf("unexpected deliver error: %+v", err)
	}

	var failure bool
	for _, tag := range res.Tags {
		if string(tag.Key) == "msaccount:result" {
			failure = string(tag.Value) == "failure"
		}
	}
	if !failure {
		t.Fatalf("missing failure tag: %+v", res.Tags)
	}

	if raw, err := db.Get([]byte("partial-write")); err != nil {
		t.Fatalf("cannot read store: %s", err)
	} else if raw != nil {
		t.Fatal("payload writes were not rolled back")
	}

	fresh, err := ctrl.Account(db, account.Address)
	if err != nil {
		t.Fatalf("cannot load account: %s", err)
	}
	// The sequence number is consumed even though the payload failed.
	assert.Equal(t, int64(1), fresh.LastResolved)
}

func TestVoteAndRejectFlow(t *testing.T) {
	db := handlerTestDB(t, Configuration{})
	auth := &weavetest.CtxAuth{Key: "auth"}
	ctrl := newController()

	aliceCond := weavetest.NewCondition()
	bobCond := weavetest.NewCondition()
	account := newTestAccount(t, db, ctrl, 2, aliceCond.Address(), bobCond.Address())
	enqueuePayload(t, db, ctrl, account, aliceCond.Address(), []byte("contested"))

	vote := VoteHandler{auth: auth, ctrl: ctrl}
	reject := RejectHandler{auth: auth, ctrl: ctrl}

	// Only two rejections resolve a 2 of 2 account.
	bobCtx := auth.SetConditions(context.Background(), bobCond)
	if _, err := vote.Deliver(bobCtx, db, &weavetest.Tx{Msg: &VoteMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Account:  account.Address,
		Sequence: 1,
		Approve:  false,
	}}); err != nil {
		t.Fatalf("cannot vote: %+v", err)
	}
	if _, err := reject.Deliver(bobCtx, db, &weavetest.Tx{Msg: &RejectMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Account:  account.Address,
		Sequence: 1,
	}}); !ErrInsufficientVotes.Is(err) {
		t.Fatalf("want an insufficient votes error, got %+v", err)
	}

	// The creator flips the initial approval into a rejection.
	aliceCtx := auth.SetConditions(context.Background(), aliceCond)
	if _, err := vote.Deliver(aliceCtx, db, &weavetest.Tx{Msg: &VoteMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Account:  account.Address,
		Sequence: 1,
		Approve:  false,
	}}); err != nil {
		t.Fatalf("cannot vote: %+v", err)
	}
	if _, err := reject.Deliver(aliceCtx, db, &weavetest.Tx{Msg: &RejectMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Account:  account.Address,
		Sequence: 1,
	}}); err != nil {
		t.Fatalf("cannot reject: %+v", err)
	}

	fresh, err := ctrl.Account(db, account.Address)
	if err != nil {
		t.Fatalf("cannot load account: %s", err)
	}
	assert.Equal(t, int64(1), fresh.LastResolved)
	if _, err := ctrl.Proposal(db, account.Address, 1); !errors.ErrNotFound.Is(err) {
		t.Fatalf("proposal must be deleted after rejection: %+v", err)
	}
}

func TestNonOwnerCannotActOnQueue(t *testing.T) {
	db := handlerTestDB(t, Configuration{})
	auth := &weavetest.CtxAuth{Key: "auth"}
	ctrl := newController()

	aliceCond := weavetest.NewCondition()
	account := newTestAccount(t, db, ctrl, 1, aliceCond.Address())
	enqueuePayload(t, db, ctrl, account, aliceCond.Address(), []byte("private"))

	strangerCtx := auth.SetConditions(context.Background(), weavetest.NewCondition())

	vote := VoteHandler{auth: auth, ctrl: ctrl}
	if _, err := vote.Deliver(strangerCtx, db, &weavetest.Tx{Msg: &VoteMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Account:  account.Address,
		Sequence: 1,
		Approve:  true,
	}}); !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("want an unauthorized error, got %+v", err)
	}

	execute := ExecuteHandler{auth: auth, ctrl: ctrl}
	if _, err := execute.Deliver(strangerCtx, db, &weavetest.Tx{Msg: &ExecuteMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Account:  account.Address,
		Sequence: 1,
	}}); !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("want an unauthorized error, got %+v", err)
	}

	propose := ProposeHandler{auth: auth, ctrl: ctrl}
	blockCtx := weave.WithBlockTime(strangerCtx, time.Now())
	if _, err := propose.Deliver(blockCtx, db, &weavetest.Tx{Msg: &ProposeMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Account:  account.Address,
		Payload:  []byte("intrusion"),
	}}); !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("want an unauthorized error, got %+v", err)
	}
}

func TestProposeRespectsConfiguredQueueCap(t *testing.T) {
	db := handlerTestDB(t, Configuration{QueueCap: 2})
	auth := &weavetest.CtxAuth{Key: "auth"}
	ctrl := newController()

	aliceCond := weavetest.NewCondition()
	account := newTestAccount(t, db, ctrl, 1, aliceCond.Address())

	propose := ProposeHandler{auth: auth, ctrl: ctrl}
	ctx := weave.WithBlockTime(auth.SetConditions(context.Background(), aliceCond), time.Now())
	tx := &weavetest.Tx{Msg: &ProposeMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Account:  account.Address,
		Payload:  []byte("queued"),
	}}

	for i := 0; i < 2; i++ {
		if _, err := propose.Deliver(ctx, db, tx); err != nil {
			t.Fatalf("cannot propose #%d: %+v", i+1, err)
		}
	}
	if _, err := propose.Deliver(ctx, db, tx); !ErrQueueFull.Is(err) {
		t.Fatalf("want a queue full error, got %+v", err)
	}
}

func TestUpdateOwnersHandler(t *testing.T) {
	db := handlerTestDB(t, Configuration{})
	ctxAuth := &weavetest.CtxAuth{Key: "auth"}
	ctrl := newController()

	aliceCond := weavetest.NewCondition()
	bobCond := weavetest.NewCondition()
	carol := weavetest.NewCondition().Address()
	account := newTestAccount(t, db, ctrl, 2, aliceCond.Address(), bobCond.Address())

	msg := &UpdateOwnersMsg{
		Metadata:  &weave.Metadata{Schema: 1},
		Account:   account.Address,
		Add:       []weave.Address{carol},
		Remove:    []weave.Address{bobCond.Address()},
		Threshold: 1,
	}

	// An owner signature is not enough, the change must come from an
	// executed proposal carrying the account authority.
	direct := UpdateOwnersHandler{auth: ctxAuth, ctrl: ctrl}
	ownerCtx := ctxAuth.SetConditions(context.Background(), aliceCond)
	if _, err := direct.Deliver(ownerCtx, db, &weavetest.Tx{Msg: msg}); !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("want an unauthorized error, got %+v", err)
	}

	h := UpdateOwnersHandler{auth: Authenticate{}, ctrl: ctrl}
	accountCtx := withAccount(context.Background(), account)
	if _, err := h.Deliver(accountCtx, db, &weavetest.Tx{Msg: msg}); err != nil {
		t.Fatalf("cannot update owners: %+v", err)
	}

	fresh, err := ctrl.Account(db, account.Address)
	if err != nil {
		t.Fatalf("cannot load account: %s", err)
	}
	assert.Equal(t, uint32(1), fresh.Threshold)
	if !fresh.IsOwner(carol) {
		t.Fatal("carol was not added")
	}
	if fresh.IsOwner(bobCond.Address()) {
		t.Fatal("bob was not removed")
	}
	if !fresh.IsOwner(aliceCond.Address()) {
		t.Fatal("alice must remain an owner")
	}
}

func TestUpdateAnnotationsHandler(t *testing.T) {
	db := handlerTestDB(t, Configuration{})
	ctrl := newController()

	aliceCond := weavetest.NewCondition()
	account := newTestAccount(t, db, ctrl, 1, aliceCond.Address())
	account.Annotations = []*Annotation{{Key: "team", Value: []byte("ops")}}
	if _, err := ctrl.accounts.Put(db, account.Address, account); err != nil {
		t.Fatalf("cannot store account: %s", err)
	}

	h := UpdateAnnotationsHandler{auth: Authenticate{}, ctrl: ctrl}
	accountCtx := withAccount(context.Background(), account)

	// Annotations are replaced as a whole, not merged.
	msg := &UpdateAnnotationsMsg{
		Metadata:    &weave.Metadata{Schema: 1},
		Account:     account.Address,
		Annotations: []*Annotation{{Key: "purpose", Value: []byte("treasury")}},
	}
	if _, err := h.Deliver(accountCtx, db, &weavetest.Tx{Msg: msg}); err != nil {
		t.Fatalf("cannot update annotations: %+v", err)
	}

	fresh, err := ctrl.Account(db, account.Address)
	if err != nil {
		t.Fatalf("cannot load account: %s", err)
	}
	assert.Equal(t, 1, len(fresh.Annotations))
	assert.Equal(t, "purpose", fresh.Annotations[0].Key)

	// An empty list clears all annotations.
	clear := &UpdateAnnotationsMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Account:  account.Address,
	}
	if _, err := h.Deliver(accountCtx, db, &weavetest.Tx{Msg: clear}); err != nil {
		t.Fatalf("cannot clear annotations: %+v", err)
	}
	fresh, err = ctrl.Account(db, account.Address)
	if err != nil {
		t.Fatalf("cannot load account: %s", err)
	}
	assert.Equal(t, 0, len(fresh.Annotations))
}
