package msaccount

import (
	"crypto/sha256"
	"testing"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/weavetest/assert"
)

func TestMultisigAccountValidate(t *testing.T) {
	alice := weavetest.NewCondition().Address()
	bob := weavetest.NewCondition().Address()
	addr := weavetest.NewCondition().Address()

	cases := map[string]struct {
		Model   MultisigAccount
		WantErr *errors.Error
	}{
		"valid account": {
			Model: MultisigAccount{
				Metadata:     &weave.Metadata{Schema: 1},
				Address:      addr,
				Owners:       []weave.Address{alice, bob},
				Threshold:    2,
				NextSequence: 1,
				LastResolved: 0,
			},
		},
		"missing metadata": {
			Model: MultisigAccount{
				Address:      addr,
				Owners:       []weave.Address{alice},
				Threshold:    1,
				NextSequence: 1,
			},
			WantErr: errors.ErrMetadata,
		},
		"no owners": {
			Model: MultisigAccount{
				Metadata:     &weave.Metadata{Schema: 1},
				Address:      addr,
				Threshold:    1,
				NextSequence: 1,
			},
			WantErr: errors.ErrModel,
		},
		"duplicated owner": {
			Model: MultisigAccount{
				Metadata:     &weave.Metadata{Schema: 1},
				Address:      addr,
				Owners:       []weave.Address{alice, alice},
				Threshold:    1,
				NextSequence: 1,
			},
			WantErr: errors.ErrDuplicate,
		},
		"threshold above owner count": {
			Model: MultisigAccount{
				Metadata:     &weave.Metadata{Schema: 1},
				Address:      addr,
				Owners:       []weave.Address{alice, bob},
				Threshold:    3,
				NextSequence: 1,
			},
			WantErr: errors.ErrModel,
		},
		"zero threshold": {
			Model: MultisigAccount{
				Metadata:     &weave.Metadata{Schema: 1},
				Address:      addr,
				Owners:       []weave.Address{alice},
				Threshold:    0,
				NextSequence: 1,
			},
			WantErr: errors.ErrModel,
		},
		"next sequence below one": {
			Model: MultisigAccount{
				Metadata:     &weave.Metadata{Schema: 1},
				Address:      addr,
				Owners:       []weave.Address{alice},
				Threshold:    1,
				NextSequence: 0,
			},
			WantErr: errors.ErrModel,
		},
		"last resolved above next sequence": {
			Model: MultisigAccount{
				Metadata:     &weave.Metadata{Schema: 1},
				Address:      addr,
				Owners:       []weave.Address{alice},
				Threshold:    1,
				NextSequence: 1,
				LastResolved: 1,
			},
			WantErr: errors.ErrModel,
		},
		"duplicated annotation key": {
			Model: MultisigAccount{
				Metadata:     &weave.Metadata{Schema: 1},
				Address:      addr,
				Owners:       []weave.Address{alice},
				Threshold:    1,
				NextSequence: 1,
				Annotations: []*Annotation{
					{Key: "purpose", Value: []byte("a")},
					{Key: "purpose", Value: []byte("b")},
				},
			},
			WantErr: errors.ErrDuplicate,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.Model.Validate(); !tc.WantErr.Is(err) {
				t.Fatalf("unexpected validation error: %s", err)
			}
		})
	}
}

func TestProposalValidate(t *testing.T) {
	alice := weavetest.NewCondition().Address()
	addr := weavetest.NewCondition().Address()
	digest := sha256.Sum256([]byte("payload"))

	cases := map[string]struct {
		Model   Proposal
		WantErr *errors.Error
	}{
		"valid with payload": {
			Model: Proposal{
				Metadata:  &weave.Metadata{Schema: 1},
				Account:   addr,
				Sequence:  1,
				Payload:   []byte("payload"),
				Creator:   alice,
				CreatedAt: 1234567890,
			},
		},
		"valid with hash": {
			Model: Proposal{
				Metadata:    &weave.Metadata{Schema: 1},
				Account:     addr,
				Sequence:    1,
				PayloadHash: digest[:],
				Creator:     alice,
				CreatedAt:   1234567890,
			},
		},
		"both payload and hash": {
			Model: Proposal{
				Metadata:    &weave.Metadata{Schema: 1},
				Account:     addr,
				Sequence:    1,
				Payload:     []byte("payload"),
				PayloadHash: digest[:],
				Creator:     alice,
				CreatedAt:   1234567890,
			},
			WantErr: ErrPayloadShape,
		},
		"neither payload nor hash": {
			Model: Proposal{
				Metadata:  &weave.Metadata{Schema: 1},
				Account:   addr,
				Sequence:  1,
				Creator:   alice,
				CreatedAt: 1234567890,
			},
			WantErr: ErrPayloadShape,
		},
		"hash of a wrong length": {
			Model: Proposal{
				Metadata:    &weave.Metadata{Schema: 1},
				Account:     addr,
				Sequence:    1,
				PayloadHash: []byte("too short"),
				Creator:     alice,
				CreatedAt:   1234567890,
			},
			WantErr: errors.ErrInput,
		},
		"zero sequence": {
			Model: Proposal{
				Metadata:  &weave.Metadata{Schema: 1},
				Account:   addr,
				Payload:   []byte("payload"),
				Creator:   alice,
				CreatedAt: 1234567890,
			},
			WantErr: errors.ErrModel,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.Model.Validate(); !tc.WantErr.Is(err) {
				t.Fatalf("unexpected validation error: %s", err)
			}
		})
	}
}

func TestProposalVoteReplacement(t *testing.T) {
	alice := weavetest.NewCondition().Address()
	bob := weavetest.NewCondition().Address()

	var p Proposal
	p.SetVote(alice, true)
	p.SetVote(bob, false)
	p.SetVote(alice, false)

	if len(p.Votes) != 2 {
		t.Fatalf("want 2 votes, got %d", len(p.Votes))
	}
	v := p.Vote(alice)
	if v == nil || v.Approve {
		t.Fatal("alice's second vote must replace the first one")
	}
}

func TestProposalMatchesPayload(t *testing.T) {
	payload := []byte("send the money")
	digest := sha256.Sum256(payload)

	byHash := Proposal{PayloadHash: digest[:]}
	if !byHash.MatchesPayload(payload) {
		t.Fatal("hash commitment must match its preimage")
	}
	if byHash.MatchesPayload([]byte("other")) {
		t.Fatal("hash commitment must not match a different payload")
	}

	byPayload := Proposal{Payload: payload}
	if !byPayload.MatchesPayload(payload) {
		t.Fatal("stored payload must match itself")
	}
	if byPayload.MatchesPayload([]byte("other")) {
		t.Fatal("stored payload must not match a different payload")
	}
}

func TestProposalKeyOrdering(t *testing.T) {
	addr := weavetest.NewCondition().Address()
	prev := proposalKey(addr, 1)
	for seq := int64(2); seq < 300; seq += 13 {
		key := proposalKey(addr, seq)
		if string(key) <= string(prev) {
			t.Fatalf("keys must be strictly ascending, %d broke the order", seq)
		}
		prev = key
	}
}

func TestAccountCondition(t *testing.T) {
	cond := AccountCondition([]byte("an-account-id"))
	assert.Equal(t, weave.AddressLength, len(cond.Address()))
	// The same ID must always produce the same address.
	assert.Equal(t, cond.Address(), AccountCondition([]byte("an-account-id")).Address())
}
