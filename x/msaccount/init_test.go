package msaccount

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/store"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/weavetest/assert"
)

func TestGenesisInitializer(t *testing.T) {
	alice := weavetest.NewCondition().Address()
	bob := weavetest.NewCondition().Address()
	accountAddr := AccountCondition([]byte("genesis-account")).Address()

	genesis := map[string]interface{}{
		"conf": map[string]interface{}{
			"msaccount": map[string]interface{}{
				"metadata":             map[string]uint32{"schema": 1},
				"queue_cap":            5,
				"strict_payload_match": true,
			},
		},
		"msaccount": []map[string]interface{}{
			{
				"address":   accountAddr,
				"owners":    []weave.Address{alice, bob},
				"threshold": 2,
				"annotations": []map[string]string{
					{"key": "purpose", "value": "treasury"},
				},
			},
		},
	}
	raw, err := json.Marshal(genesis)
	if err != nil {
		t.Fatalf("cannot serialize genesis: %s", err)
	}
	var opts weave.Options
	if err := json.Unmarshal(raw, &opts); err != nil {
		t.Fatalf("cannot unmarshal genesis: %s", err)
	}

	db := store.MemStore()
	migration.MustInitPkg(db, "msaccount")
	var ini Initializer
	if err := ini.FromGenesis(opts, weave.GenesisParams{}, db); err != nil {
		t.Fatalf("cannot load genesis: %s", err)
	}

	conf, err := loadConf(db)
	if err != nil {
		t.Fatalf("cannot load configuration: %s", err)
	}
	assert.Equal(t, uint32(5), conf.QueueCap)
	assert.Equal(t, true, conf.StrictPayloadMatch)

	var account MultisigAccount
	if err := NewAccountBucket().One(db, accountAddr, &account); err != nil {
		t.Fatalf("cannot load genesis account: %s", err)
	}
	assert.Equal(t, uint32(2), account.Threshold)
	assert.Equal(t, int64(1), account.NextSequence)
	assert.Equal(t, int64(0), account.LastResolved)
	if !account.IsOwner(alice) || !account.IsOwner(bob) {
		t.Fatal("owners not loaded from genesis")
	}
	assert.Equal(t, 1, len(account.Annotations))
	assert.Equal(t, "purpose", account.Annotations[0].Key)
}
