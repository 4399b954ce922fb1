package msaccount

import (
	"bytes"
	"testing"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/weavetest"
)

func TestConversionSignBytes(t *testing.T) {
	account := weavetest.NewCondition().Address()
	alice := weavetest.NewCondition().Address()
	bob := weavetest.NewCondition().Address()

	base, err := ConversionSignBytes("test-chain-1", account, 5, []weave.Address{alice, bob}, 2)
	if err != nil {
		t.Fatalf("cannot build sign bytes: %s", err)
	}

	// Same input must produce the same digest.
	again, err := ConversionSignBytes("test-chain-1", account, 5, []weave.Address{alice, bob}, 2)
	if err != nil {
		t.Fatalf("cannot build sign bytes: %s", err)
	}
	if !bytes.Equal(base, again) {
		t.Fatal("sign bytes are not deterministic")
	}

	variants := map[string]func() ([]byte, error){
		"different chain": func() ([]byte, error) {
			return ConversionSignBytes("test-chain-2", account, 5, []weave.Address{alice, bob}, 2)
		},
		"different sequence": func() ([]byte, error) {
			return ConversionSignBytes("test-chain-1", account, 6, []weave.Address{alice, bob}, 2)
		},
		"different threshold": func() ([]byte, error) {
			return ConversionSignBytes("test-chain-1", account, 5, []weave.Address{alice, bob}, 1)
		},
		"different owner order": func() ([]byte, error) {
			return ConversionSignBytes("test-chain-1", account, 5, []weave.Address{bob, alice}, 2)
		},
		"fewer owners": func() ([]byte, error) {
			return ConversionSignBytes("test-chain-1", account, 5, []weave.Address{alice}, 2)
		},
	}
	for testName, build := range variants {
		t.Run(testName, func(t *testing.T) {
			digest, err := build()
			if err != nil {
				t.Fatalf("cannot build sign bytes: %s", err)
			}
			if bytes.Equal(base, digest) {
				t.Fatal("digest must change with the input")
			}
		})
	}
}

func TestConversionSignBytesInput(t *testing.T) {
	account := weavetest.NewCondition().Address()

	if _, err := ConversionSignBytes("x", account, 0, nil, 1); !errors.ErrInput.Is(err) {
		t.Fatalf("want an input error for a bad chain id, got %+v", err)
	}
	if _, err := ConversionSignBytes("test-chain-1", weave.Address("short"), 0, nil, 1); err == nil {
		t.Fatal("want an error for a malformed address")
	}
	if _, err := ConversionSignBytes("test-chain-1", account, -1, nil, 1); !errors.ErrInput.Is(err) {
		t.Fatalf("want an input error for a negative sequence, got %+v", err)
	}
}
