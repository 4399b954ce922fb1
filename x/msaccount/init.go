package msaccount

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/gconf"
)

// Initializer fulfils the Initializer interface to load data from the
// genesis file.
type Initializer struct{}

var _ weave.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial multisig accounts and the package
// configuration from genesis and save them in the database.
func (*Initializer) FromGenesis(opts weave.Options, params weave.GenesisParams, kv weave.KVStore) error {
	if err := gconf.InitConfig(kv, opts, "msaccount", &Configuration{}); err != nil {
		return errors.Wrap(err, "init config")
	}

	var accounts []struct {
		Address     weave.Address   `json:"address"`
		Owners      []weave.Address `json:"owners"`
		Threshold   uint32          `json:"threshold"`
		Annotations []*Annotation   `json:"annotations"`
	}
	if err := opts.ReadOptions("msaccount", &accounts); err != nil {
		return err
	}

	bucket := NewAccountBucket()
	for i, acc := range accounts {
		account := MultisigAccount{
			Metadata:     &weave.Metadata{Schema: 1},
			Address:      acc.Address,
			Owners:       acc.Owners,
			Threshold:    acc.Threshold,
			NextSequence: 1,
			LastResolved: 0,
			Annotations:  acc.Annotations,
		}
		if _, err := bucket.Put(kv, acc.Address, &account); err != nil {
			return errors.Wrapf(err, "cannot save #%d account", i)
		}
	}
	return nil
}
