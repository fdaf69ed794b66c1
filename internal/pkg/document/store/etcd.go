package store

import (
	"context"

	etcd "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/clientv3util"

	"github.com/docwire/docwire/internal/pkg/encoding/json"
	"github.com/docwire/docwire/internal/pkg/utils/errors"
)

// DocumentKeyPrefix prefixes the etcd key of every centralized document.
const DocumentKeyPrefix = "docwire/document/"

// etcdStore keeps the document under one key in an etcd cluster.
type etcdStore struct {
	client *etcd.Client
	key    string
}

func NewEtcd(client *etcd.Client, identity string) Store {
	return &etcdStore{client: client, key: DocumentKeyPrefix + identity}
}

func (s *etcdStore) Kind() Kind {
	return KindCentralized
}

func (s *etcdStore) Load(ctx context.Context) (any, error) {
	response, err := s.client.Get(ctx, s.key)
	if err != nil {
		return nil, errors.Wrapf(err, `cannot load document key "%s"`, s.key)
	}
	if response.Count == 0 {
		return nil, nil
	}
	var out any
	if err := json.Decode(response.Kvs[0].Value, &out); err != nil {
		return nil, errors.Wrapf(err, `document key "%s" is invalid`, s.key)
	}
	return out, nil
}

func (s *etcdStore) Save(ctx context.Context, content any) error {
	data, err := json.EncodeString(content, false)
	if err != nil {
		return err
	}
	if _, err := s.client.Put(ctx, s.key, data); err != nil {
		return errors.Wrapf(err, `cannot save document key "%s"`, s.key)
	}
	return nil
}

// Seed writes the initial content in a transaction guarded by the key's
// create revision, the first writer wins, concurrent seeders are no-ops.
func (s *etcdStore) Seed(ctx context.Context, initial any) error {
	data, err := json.EncodeString(initial, false)
	if err != nil {
		return err
	}
	_, err = s.client.Txn(ctx).
		If(clientv3util.KeyMissing(s.key)).
		Then(etcd.OpPut(s.key, data)).
		Commit()
	if err != nil {
		return errors.Wrapf(err, `cannot seed document key "%s"`, s.key)
	}
	return nil
}

func (s *etcdStore) Close() error {
	return nil
}
