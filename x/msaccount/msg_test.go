package msaccount

import (
	"testing"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/crypto"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/weavetest"
)

func TestCreateMsgValidate(t *testing.T) {
	alice := weavetest.NewCondition().Address()
	bob := weavetest.NewCondition().Address()

	cases := map[string]struct {
		Msg     CreateMsg
		WantErr *errors.Error
	}{
		"valid message": {
			Msg: CreateMsg{
				Metadata:  &weave.Metadata{Schema: 1},
				Owners:    []weave.Address{alice, bob},
				Threshold: 2,
			},
		},
		"missing metadata": {
			Msg: CreateMsg{
				Owners:    []weave.Address{alice},
				Threshold: 1,
			},
			WantErr: errors.ErrMetadata,
		},
		"no owners, the creator becomes the only one": {
			Msg: CreateMsg{
				Metadata:  &weave.Metadata{Schema: 1},
				Threshold: 1,
			},
		},
		"threshold may count the creator that is not listed": {
			Msg: CreateMsg{
				Metadata:  &weave.Metadata{Schema: 1},
				Owners:    []weave.Address{bob},
				Threshold: 2,
			},
		},
		"threshold above owner count plus the creator": {
			Msg: CreateMsg{
				Metadata:  &weave.Metadata{Schema: 1},
				Owners:    []weave.Address{alice},
				Threshold: 3,
			},
			WantErr: errors.ErrMsg,
		},
		"zero threshold": {
			Msg: CreateMsg{
				Metadata:  &weave.Metadata{Schema: 1},
				Owners:    []weave.Address{alice},
				Threshold: 0,
			},
			WantErr: errors.ErrMsg,
		},
		"duplicated owner": {
			Msg: CreateMsg{
				Metadata:  &weave.Metadata{Schema: 1},
				Owners:    []weave.Address{alice, alice},
				Threshold: 1,
			},
			WantErr: errors.ErrDuplicate,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.Msg.Validate(); !tc.WantErr.Is(err) {
				t.Fatalf("unexpected validation error: %s", err)
			}
		})
	}
}

func TestCreateFromExistingMsgValidate(t *testing.T) {
	alice := weavetest.NewCondition().Address()
	addr := weavetest.NewCondition().Address()

	cases := map[string]struct {
		Msg     CreateFromExistingMsg
		WantErr *errors.Error
	}{
		"valid message": {
			Msg: CreateFromExistingMsg{
				Metadata:  &weave.Metadata{Schema: 1},
				Address:   addr,
				Owners:    []weave.Address{alice},
				Threshold: 1,
				Signature: &crypto.Signature{},
			},
		},
		"missing signature": {
			Msg: CreateFromExistingMsg{
				Metadata:  &weave.Metadata{Schema: 1},
				Address:   addr,
				Owners:    []weave.Address{alice},
				Threshold: 1,
			},
			WantErr: errors.ErrMsg,
		},
		"missing address": {
			Msg: CreateFromExistingMsg{
				Metadata:  &weave.Metadata{Schema: 1},
				Owners:    []weave.Address{alice},
				Threshold: 1,
				Signature: &crypto.Signature{},
			},
			WantErr: errors.ErrEmpty,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.Msg.Validate(); !tc.WantErr.Is(err) {
				t.Fatalf("unexpected validation error: %s", err)
			}
		})
	}
}

func TestProposeMsgValidate(t *testing.T) {
	addr := weavetest.NewCondition().Address()

	cases := map[string]struct {
		Msg     ProposeMsg
		WantErr *errors.Error
	}{
		"valid with payload": {
			Msg: ProposeMsg{
				Metadata: &weave.Metadata{Schema: 1},
				Account:  addr,
				Payload:  []byte("payload"),
			},
		},
		"payload and hash are exclusive": {
			Msg: ProposeMsg{
				Metadata:    &weave.Metadata{Schema: 1},
				Account:     addr,
				Payload:     []byte("payload"),
				PayloadHash: make([]byte, 32),
			},
			WantErr: ErrPayloadShape,
		},
		"one of payload and hash is required": {
			Msg: ProposeMsg{
				Metadata: &weave.Metadata{Schema: 1},
				Account:  addr,
			},
			WantErr: ErrPayloadShape,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.Msg.Validate(); !tc.WantErr.Is(err) {
				t.Fatalf("unexpected validation error: %s", err)
			}
		})
	}
}

func TestUpdateOwnersMsgValidate(t *testing.T) {
	alice := weavetest.NewCondition().Address()
	addr := weavetest.NewCondition().Address()

	cases := map[string]struct {
		Msg     UpdateOwnersMsg
		WantErr *errors.Error
	}{
		"valid add": {
			Msg: UpdateOwnersMsg{
				Metadata: &weave.Metadata{Schema: 1},
				Account:  addr,
				Add:      []weave.Address{alice},
			},
		},
		"valid threshold only change": {
			Msg: UpdateOwnersMsg{
				Metadata:  &weave.Metadata{Schema: 1},
				Account:   addr,
				Threshold: 2,
			},
		},
		"empty update": {
			Msg: UpdateOwnersMsg{
				Metadata: &weave.Metadata{Schema: 1},
				Account:  addr,
			},
			WantErr: errors.ErrEmpty,
		},
		"address both added and removed": {
			Msg: UpdateOwnersMsg{
				Metadata: &weave.Metadata{Schema: 1},
				Account:  addr,
				Add:      []weave.Address{alice},
				Remove:   []weave.Address{alice},
			},
			WantErr: errors.ErrMsg,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.Msg.Validate(); !tc.WantErr.Is(err) {
				t.Fatalf("unexpected validation error: %s", err)
			}
		})
	}
}

func TestVoteMsgValidate(t *testing.T) {
	addr := weavetest.NewCondition().Address()

	msg := VoteMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Account:  addr,
		Sequence: 1,
		Approve:  true,
	}
	if err := msg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %s", err)
	}

	msg.Sequence = 0
	if err := msg.Validate(); !errors.ErrMsg.Is(err) {
		t.Fatalf("want message error for zero sequence, got %v", err)
	}
}
