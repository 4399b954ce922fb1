package msaccount

import (
	"context"
	"testing"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/weavetest"
)

func TestAuthenticate(t *testing.T) {
	derived := &MultisigAccount{
		Metadata:     &weave.Metadata{Schema: 1},
		Address:      AccountCondition([]byte("an-account-id")).Address(),
		DerivationId: []byte("an-account-id"),
	}
	// A converted account keeps its original address which cannot be
	// computed from the account condition.
	converted := &MultisigAccount{
		Metadata:  &weave.Metadata{Schema: 1},
		Address:   weavetest.NewCondition().Address(),
		Converted: true,
	}

	var auth Authenticate

	t.Run("empty context carries no authority", func(t *testing.T) {
		ctx := context.Background()
		if conds := auth.GetConditions(ctx); len(conds) != 0 {
			t.Fatalf("want no conditions, got %v", conds)
		}
		if auth.HasAddress(ctx, derived.Address) {
			t.Fatal("no authority must be granted")
		}
	})

	t.Run("derived account authority", func(t *testing.T) {
		ctx := withAccount(context.Background(), derived)
		conds := auth.GetConditions(ctx)
		if len(conds) != 1 {
			t.Fatalf("want one condition, got %v", conds)
		}
		if !conds[0].Address().Equals(derived.Address) {
			t.Fatal("condition must resolve to the account address")
		}
		if !auth.HasAddress(ctx, derived.Address) {
			t.Fatal("account address must be authorized")
		}
		if auth.HasAddress(ctx, weavetest.NewCondition().Address()) {
			t.Fatal("foreign address must not be authorized")
		}
	})

	t.Run("converted account authority", func(t *testing.T) {
		ctx := withAccount(context.Background(), converted)
		if !auth.HasAddress(ctx, converted.Address) {
			t.Fatal("original address of a converted account must be authorized")
		}
		// The condition address is authorized as well so that payloads
		// can address the account either way.
		if !auth.HasAddress(ctx, AccountCondition(converted.Address).Address()) {
			t.Fatal("condition address must be authorized")
		}
	})
}
