package msaccount

import (
	"context"
	"testing"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/store"
	"github.com/iov-one/weave/weavetest"
)

func TestRevocationDecorator(t *testing.T) {
	revokedCond := weavetest.NewCondition()
	cleanCond := weavetest.NewCondition()

	cases := map[string]struct {
		Conditions []weave.Condition
		WantCalls  int
	}{
		"clean signer passes through": {
			Conditions: []weave.Condition{cleanCond},
			WantCalls:  2,
		},
		"no signer passes through": {
			Conditions: nil,
			WantCalls:  2,
		},
		"revoked signer is blocked": {
			Conditions: []weave.Condition{revokedCond},
			WantCalls:  0,
		},
		"revoked signer among many is blocked": {
			Conditions: []weave.Condition{cleanCond, revokedCond},
			WantCalls:  0,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			migration.MustInitPkg(db, "msaccount")

			revoked := NewRevocationBucket()
			rev := &Revocation{
				Metadata: &weave.Metadata{Schema: 1},
				Address:  revokedCond.Address(),
			}
			if _, err := revoked.Put(db, revokedCond.Address(), rev); err != nil {
				t.Fatalf("cannot store revocation: %s", err)
			}

			auth := &weavetest.CtxAuth{Key: "auth"}
			d := NewRevocationDecorator(auth)
			ctx := auth.SetConditions(context.Background(), tc.Conditions...)
			next := &weavetest.Handler{}
			tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "test/any"}}

			_, checkErr := d.Check(ctx, db, tx, next)
			_, deliverErr := d.Deliver(ctx, db, tx, next)

			if tc.WantCalls == 0 {
				if !ErrRevoked.Is(checkErr) {
					t.Fatalf("want a revoked error from check, got %+v", checkErr)
				}
				if !ErrRevoked.Is(deliverErr) {
					t.Fatalf("want a revoked error from deliver, got %+v", deliverErr)
				}
			} else {
				if checkErr != nil {
					t.Fatalf("unexpected check error: %+v", checkErr)
				}
				if deliverErr != nil {
					t.Fatalf("unexpected deliver error: %+v", deliverErr)
				}
			}
			if got := next.CallCount(); got != tc.WantCalls {
				t.Fatalf("want %d calls down the stack, got %d", tc.WantCalls, got)
			}
		})
	}
}
