package storagemongodb

import (
	"io"

	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/storage/storage_common"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

const (
	_DEFAULT_DB_NAME = "chanworld"
)

type mongoDBStorage struct {
	db *mgo.Database
}

// OpenMongoDB opens mongodb as storage backend
func OpenMongoDB(url string, dbname string) (storagecommon.Backend, error) {
	gwlog.Debugf("Connecting MongoDB ...")
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, err
	}

	session.SetMode(mgo.Monotonic, true)
	if dbname == "" {
		dbname = _DEFAULT_DB_NAME
	}
	return &mongoDBStorage{
		db: session.DB(dbname),
	}, nil
}

func (es *mongoDBStorage) Write(kind string, key string, data map[string]interface{}) error {
	_, err := es.db.C(kind).UpsertId(key, bson.M{
		"data": data,
	})
	return err
}

func (es *mongoDBStorage) Read(kind string, key string) (map[string]interface{}, error) {
	var doc bson.M
	err := es.db.C(kind).FindId(key).One(&doc)
	if err == mgo.ErrNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	data, ok := doc["data"].(bson.M)
	if !ok {
		return nil, nil
	}
	return convertM2Map(data), nil
}

func convertM2Map(m bson.M) map[string]interface{} {
	ma := map[string]interface{}(m)
	for k, v := range ma {
		ma[k] = convertValue(v)
	}
	return ma
}

func convertValue(v interface{}) interface{} {
	switch im := v.(type) {
	case bson.M:
		return convertM2Map(im)
	case []interface{}:
		for i := range im {
			im[i] = convertValue(im[i])
		}
	}
	return v
}

func (es *mongoDBStorage) List(kind string) ([]string, error) {
	var docs []bson.M
	err := es.db.C(kind).Find(nil).Select(bson.M{"_id": 1}).All(&docs)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(docs))
	for _, doc := range docs {
		if key, ok := doc["_id"].(string); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (es *mongoDBStorage) Exists(kind string, key string) (bool, error) {
	n, err := es.db.C(kind).FindId(key).Count()
	return n > 0, err
}

func (es *mongoDBStorage) Delete(kind string, key string) error {
	err := es.db.C(kind).RemoveId(key)
	if err == mgo.ErrNotFound {
		return nil
	}
	return err
}

func (es *mongoDBStorage) Close() {
	es.db.Session.Close()
}

func (es *mongoDBStorage) IsEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
