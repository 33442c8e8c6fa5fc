// Package api is the wire contract between the geodash server and its
// clients: the UserService gRPC service description, its messages, a JSON
// codec to carry them, and the error mapping both sides share.
package api

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// TODO: check in a users.proto with protoc-gen-go and protoc-gen-go-grpc
// stubs, then drop this codec and the hand-written ServiceDesc in service.go.

// CodecName is the gRPC content-subtype of the JSON codec.
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
