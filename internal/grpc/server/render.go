package server

import (
	"context"
	"errors"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"resume-render/internal/exporter"
	"resume-render/internal/grpc/interceptors"
	"resume-render/pkg/models"
)

// RenderServiceName is the fully qualified gRPC service name
const RenderServiceName = "resumerender.v1.RenderService"

// Response and request metadata keys
const (
	FilenameKey = "x-render-filename"
	TemplateKey = "x-render-template"
	CacheKey    = "x-render-cache"
	NoCacheKey  = "x-render-no-cache"
)

// RenderServiceServer takes the request envelope as a google.protobuf.Struct
// shaped like the HTTP body: {"data": {...}, "template": "id" | {...}}.
type RenderServiceServer interface {
	RenderPDF(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	RenderHTML(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
}

// RegisterRenderServiceServer registers srv on s
func RegisterRenderServiceServer(s grpc.ServiceRegistrar, srv RenderServiceServer) {
	s.RegisterService(&renderServiceDesc, srv)
}

var renderServiceDesc = grpc.ServiceDesc{
	ServiceName: RenderServiceName,
	HandlerType: (*RenderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RenderPDF", Handler: renderPDFHandler},
		{MethodName: "RenderHTML", Handler: renderHTMLHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "resumerender/v1/render.proto",
}

func renderPDFHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RenderServiceServer).RenderPDF(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + RenderServiceName + "/RenderPDF"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RenderServiceServer).RenderPDF(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func renderHTMLHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RenderServiceServer).RenderHTML(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + RenderServiceName + "/RenderHTML"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RenderServiceServer).RenderHTML(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RenderPDF implements RenderServiceServer
func (s *Server) RenderPDF(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, statusError(err)
	}

	res, err := s.svc.RenderPDF(ctx, req, s.options(ctx))
	if err != nil {
		return nil, statusError(err)
	}

	cache := "miss"
	if res.Cached {
		cache = "hit"
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(
		FilenameKey, res.Filename,
		TemplateKey, res.Template.ID,
		CacheKey, cache,
	))
	return wrapperspb.Bytes(res.PDF), nil
}

// RenderHTML implements RenderServiceServer
func (s *Server) RenderHTML(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, statusError(err)
	}

	res, err := s.svc.RenderHTML(ctx, req, s.options(ctx))
	if err != nil {
		return nil, statusError(err)
	}

	_ = grpc.SetHeader(ctx, metadata.Pairs(TemplateKey, res.Template.ID))
	return wrapperspb.String(res.HTML), nil
}

func (s *Server) options(ctx context.Context) models.RenderOptions {
	opts := models.RenderOptions{RequestID: interceptors.RequestID(ctx)}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(NoCacheKey); len(v) > 0 {
			opts.SkipCache, _ = strconv.ParseBool(v[0])
		}
	}
	return opts
}

// decodeRequest runs the struct through the same parser as the HTTP body
func decodeRequest(in *structpb.Struct) (*models.RenderRequest, error) {
	if in == nil || len(in.GetFields()) == 0 {
		return nil, exporter.ErrEmptyBody
	}
	body, err := protojson.Marshal(in)
	if err != nil {
		return nil, errors.Join(exporter.ErrMalformedJSON, err)
	}
	return exporter.ParseRequest(body)
}

// statusError maps exporter failures onto gRPC codes. The message starts with
// the same error code the HTTP API returns.
func statusError(err error) error {
	switch {
	case errors.Is(err, exporter.ErrEmptyBody),
		errors.Is(err, exporter.ErrMalformedJSON),
		errors.Is(err, exporter.ErrInvalidPayload),
		errors.Is(err, exporter.ErrMissingField):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, exporter.ErrRendererUnavailable):
		return status.Error(codes.Unavailable, exporter.ErrRendererUnavailable.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, exporter.ErrPDFGeneration.Error()+": deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request cancelled")
	case errors.Is(err, exporter.ErrHTMLGeneration):
		return status.Error(codes.Internal, exporter.ErrHTMLGeneration.Error())
	case errors.Is(err, exporter.ErrPDFGeneration):
		return status.Error(codes.Internal, exporter.ErrPDFGeneration.Error())
	default:
		return status.Error(codes.Internal, "internal_error")
	}
}
