package transport

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/back2basic/linkcollector/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func DecodeReply(payload []byte) (model.Reply, error) {
	var r model.Reply
	if len(payload) == 0 {
		return r, errors.New("empty payload")
	}
	if err := json.Unmarshal(payload, &r); err != nil {
		return model.Reply{}, errors.Wrap(err, "decode reply")
	}
	return r, nil
}

func EncodeReply(r model.Reply) ([]byte, error) {
	if r.Links == nil {
		r.Links = []model.StatusEntry{}
	}
	return json.Marshal(r)
}
