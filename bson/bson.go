// Package bson provides a BSON codec implementation.
//
// BSON documents make node trees directly storable in MongoDB collections;
// the node identity string becomes the document _id.
package bson

import (
	"github.com/zoobzio/objgraph"
	"go.mongodb.org/mongo-driver/bson"
)

// bsonCodec implements objgraph.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() objgraph.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as BSON.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(v)
}

// Unmarshal decodes BSON data into v.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	return bson.Unmarshal(data, v)
}

// MarshalExtJSON renders v as relaxed MongoDB extended JSON, handy for
// inspecting stored audit records.
func MarshalExtJSON(v any) ([]byte, error) {
	return bson.MarshalExtJSON(v, false, false)
}
