// Package rpc serves the sentence router as a gRPC service. Messages are
// google.protobuf.Struct values so no generated stubs are needed.
package rpc

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/logging"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/router"
)

// #region service-desc

const (
	ServiceName   = "aslbridge.v1.Interpreter"
	respondMethod = "/" + ServiceName + "/Respond"
)

// InterpreterServer is the server API of the Interpreter service.
type InterpreterServer interface {
	Respond(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the Interpreter service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InterpreterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Respond", Handler: respondHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "aslbridge/v1/interpreter.proto",
}

func respondHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InterpreterServer).Respond(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: respondMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InterpreterServer).Respond(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion service-desc

// #region service

// Service implements InterpreterServer on top of a router.
type Service struct {
	router *router.Router
	logger *zap.Logger
}

// NewService creates the Interpreter implementation.
func NewService(rt *router.Router, logger *zap.Logger) *Service {
	return &Service{router: rt, logger: logging.OrNop(logger)}
}

// Respond accepts {"aslWords": [...]} or {"gloss": "..."} and returns
// {"asl", "sentence", "intent", "slots", "template"}.
func (s *Service) Respond(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	var asl string
	var resp router.Response
	if v, ok := fields["aslWords"]; ok {
		words, err := stringList(v)
		if err != nil {
			return nil, err
		}
		asl = router.Gloss(words)
		if asl == "" {
			return nil, status.Error(codes.InvalidArgument, "aslWords cannot be empty")
		}
		resp = s.router.Respond(words)
	} else if v, ok := fields["gloss"]; ok {
		asl = strings.TrimSpace(v.GetStringValue())
		if asl == "" {
			return nil, status.Error(codes.InvalidArgument, "gloss cannot be empty")
		}
		resp = s.router.RespondGloss(asl)
	} else {
		return nil, status.Error(codes.InvalidArgument, "request needs aslWords or gloss")
	}

	slots := make(map[string]interface{}, len(resp.Slots))
	for k, v := range resp.Slots {
		slots[k] = v
	}
	out, err := structpb.NewStruct(map[string]interface{}{
		"asl":      asl,
		"sentence": resp.Sentence,
		"intent":   resp.IntentKey,
		"template": resp.Template,
		"slots":    slots,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func stringList(v *structpb.Value) ([]string, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, status.Error(codes.InvalidArgument, "aslWords must be a list of strings")
	}
	words := make([]string, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		s, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "aslWords must be a list of strings")
		}
		words = append(words, s.StringValue)
	}
	return words, nil
}

// #endregion service
