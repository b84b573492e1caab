package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// RenderClient calls RenderService over an existing connection
type RenderClient struct {
	cc grpc.ClientConnInterface
}

// NewRenderClient wraps cc
func NewRenderClient(cc grpc.ClientConnInterface) *RenderClient {
	return &RenderClient{cc: cc}
}

// RenderPDF calls RenderService.RenderPDF
func (c *RenderClient) RenderPDF(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+RenderServiceName+"/RenderPDF", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RenderHTML calls RenderService.RenderHTML
func (c *RenderClient) RenderHTML(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, "/"+RenderServiceName+"/RenderHTML", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
