//go:build ignore

// gen.go generates the raw FileDescriptorProto bytes needed for proto/frame.pb.go.
// Run with: go run ./internal/proto/gen/gen.go
package main

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"

	"google.golang.org/protobuf/proto"
	descriptorpb "google.golang.org/protobuf/types/descriptorpb"
)

func main() {
	fd := &descriptorpb.FileDescriptorProto{
		Name:    s("proto/frame.proto"),
		Package: s("frame"),
		Options: &descriptorpb.FileOptions{
			GoPackage: s("github.com/tripwire/framewire/proto"),
		},
		Syntax: s("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: s("StreamFieldsRequest"),
			},
			{
				Name: s("FieldUpdate"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{Name: s("tag"), Number: p(1), Label: descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(), Type: descriptorpb.FieldDescriptorProto_TYPE_UINT64.Enum(), JsonName: s("tag")},
					{Name: s("data"), Number: p(2), Label: descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(), Type: descriptorpb.FieldDescriptorProto_TYPE_BYTES.Enum(), JsonName: s("data")},
					{Name: s("timestamp_us"), Number: p(3), Label: descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(), Type: descriptorpb.FieldDescriptorProto_TYPE_INT64.Enum(), JsonName: s("timestampUs")},
				},
			},
			{
				Name: s("SendFrameRequest"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{Name: s("frame_id"), Number: p(1), Label: descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(), Type: descriptorpb.FieldDescriptorProto_TYPE_UINT32.Enum(), JsonName: s("frameId")},
				},
			},
			{
				Name: s("SendFrameResponse"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{Name: s("ok"), Number: p(1), Label: descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(), Type: descriptorpb.FieldDescriptorProto_TYPE_BOOL.Enum(), JsonName: s("ok")},
					{Name: s("error"), Number: p(2), Label: descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(), Type: descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(), JsonName: s("error")},
				},
			},
		},
		Service: []*descriptorpb.ServiceDescriptorProto{
			{
				Name: s("FrameStreamService"),
				Method: []*descriptorpb.MethodDescriptorProto{
					{
						Name:            s("StreamFields"),
						InputType:       s(".frame.StreamFieldsRequest"),
						OutputType:      s(".frame.FieldUpdate"),
						ServerStreaming: b(true),
					},
					{
						Name:       s("SendFrame"),
						InputType:  s(".frame.SendFrameRequest"),
						OutputType: s(".frame.SendFrameResponse"),
					},
				},
			},
		},
	}

	raw, err := proto.Marshal(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal error: %v\n", err)
		os.Exit(1)
	}

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		fmt.Fprintf(os.Stderr, "gzip write error: %v\n", err)
		os.Exit(1)
	}
	if err := w.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "gzip close error: %v\n", err)
		os.Exit(1)
	}

	gzBytes := buf.Bytes()
	fmt.Printf("// Raw: %d bytes, GZip: %d bytes\n", len(raw), len(gzBytes))
	fmt.Printf("var file_proto_frame_proto_rawDescGZIP_once sync.Once\n")
	fmt.Printf("var file_proto_frame_proto_rawDescGZIP_data []byte\n\n")
	fmt.Printf("var file_proto_frame_proto_rawDesc = []byte{\n\t")
	for i, b := range gzBytes {
		if i > 0 && i%16 == 0 {
			fmt.Printf("\n\t")
		}
		fmt.Printf("0x%02x,", b)
	}
	fmt.Printf("\n}\n")
}

func s(v string) *string { return &v }
func p(v int32) *int32   { return &v }
func b(v bool) *bool     { return &v }
