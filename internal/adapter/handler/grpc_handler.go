package handler

import (
	"context"
	"errors"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jmarq76/beerstock/internal/core/domain"
	"github.com/jmarq76/beerstock/internal/core/service"
	"github.com/jmarq76/beerstock/internal/port"
)

const BeerServiceName = "beerstock.v1.BeerService"

// BeerServer is the gRPC surface of the ledger. Messages are google.protobuf.Struct.
type BeerServer interface {
	Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	FindByName(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListAll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteById(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Increment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Decrement(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var BeerServiceDesc = grpc.ServiceDesc{
	ServiceName: BeerServiceName,
	HandlerType: (*BeerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler("Register", BeerServer.Register)},
		{MethodName: "FindByName", Handler: unaryHandler("FindByName", BeerServer.FindByName)},
		{MethodName: "ListAll", Handler: unaryHandler("ListAll", BeerServer.ListAll)},
		{MethodName: "DeleteById", Handler: unaryHandler("DeleteById", BeerServer.DeleteById)},
		{MethodName: "Increment", Handler: unaryHandler("Increment", BeerServer.Increment)},
		{MethodName: "Decrement", Handler: unaryHandler("Decrement", BeerServer.Decrement)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "beerstock/v1/beer.proto",
}

func RegisterBeerServer(s grpc.ServiceRegistrar, srv BeerServer) {
	s.RegisterService(&BeerServiceDesc, srv)
}

func FullMethod(method string) string {
	return "/" + BeerServiceName + "/" + method
}

func unaryHandler(method string, call func(BeerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BeerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BeerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type GRPCHandler struct {
	beerService *service.BeerService
}

func NewGRPCHandler(beerService *service.BeerService) *GRPCHandler {
	return &GRPCHandler{beerService: beerService}
}

func (h *GRPCHandler) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	capacity, err := intField(req, "max")
	if err != nil {
		return nil, err
	}
	quantity, err := intField(req, "quantity")
	if err != nil {
		return nil, err
	}

	beer := domain.Beer{
		Name:     stringField(req, "name"),
		Brand:    stringField(req, "brand"),
		Type:     domain.BeerType(stringField(req, "type")),
		Max:      capacity,
		Quantity: quantity,
	}

	saved, err := h.beerService.Register(ctx, beer)
	if err != nil {
		return nil, mapError(err)
	}
	return beerToStruct(saved)
}

func (h *GRPCHandler) FindByName(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	beer, err := h.beerService.FindByName(ctx, stringField(req, "name"))
	if err != nil {
		return nil, mapError(err)
	}
	return beerToStruct(beer)
}

func (h *GRPCHandler) ListAll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	beers, err := h.beerService.ListAll(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	list := make([]any, 0, len(beers))
	for _, b := range beers {
		list = append(list, beerToMap(b))
	}

	out, err := structpb.NewStruct(map[string]any{"beers": list})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode beers: %v", err)
	}
	return out, nil
}

func (h *GRPCHandler) DeleteById(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := intField(req, "id")
	if err != nil {
		return nil, err
	}
	if err := h.beerService.DeleteByID(ctx, int64(id)); err != nil {
		return nil, mapError(err)
	}
	return &structpb.Struct{}, nil
}

func (h *GRPCHandler) Increment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.adjust(ctx, req, h.beerService.Increment)
}

func (h *GRPCHandler) Decrement(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.adjust(ctx, req, h.beerService.Decrement)
}

func (h *GRPCHandler) adjust(ctx context.Context, req *structpb.Struct, op adjustFunc) (*structpb.Struct, error) {
	id, err := intField(req, "id")
	if err != nil {
		return nil, err
	}
	quantity, err := intField(req, "quantity")
	if err != nil {
		return nil, err
	}

	beer, err := op(ctx, int64(id), quantity)
	if err != nil {
		return nil, mapError(err)
	}
	return beerToStruct(beer)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyRegistered):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrCapacityExceeded), errors.Is(err, service.ErrBelowZero):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrInvalidBeer), errors.Is(err, service.ErrInvalidQuantity):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, port.ErrOptimisticLock):
		return status.Error(codes.Aborted, err.Error())
	}
	return status.Errorf(codes.Internal, "internal error: %v", err)
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func numberField(s *structpb.Struct, key string) float64 {
	return s.GetFields()[key].GetNumberValue()
}

// intField reads a whole number; a missing field is zero.
func intField(s *structpb.Struct, key string) (int, error) {
	v := numberField(s, key)
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a whole number", key)
	}
	// float64(math.MaxInt) rounds up to 2^63, which is already out of range
	if v < math.MinInt || v >= math.MaxInt {
		return 0, status.Errorf(codes.InvalidArgument, "%s out of range", key)
	}
	return int(v), nil
}

func beerToMap(b domain.Beer) map[string]any {
	return map[string]any{
		"id":       b.ID,
		"name":     b.Name,
		"brand":    b.Brand,
		"type":     string(b.Type),
		"max":      b.Max,
		"quantity": b.Quantity,
	}
}

func beerToStruct(b domain.Beer) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(beerToMap(b))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode beer: %v", err)
	}
	return out, nil
}

// StructToBeer decodes a beer message produced by this server.
func StructToBeer(s *structpb.Struct) domain.Beer {
	return domain.Beer{
		ID:       int64(numberField(s, "id")),
		Name:     stringField(s, "name"),
		Brand:    stringField(s, "brand"),
		Type:     domain.BeerType(stringField(s, "type")),
		Max:      int(numberField(s, "max")),
		Quantity: int(numberField(s, "quantity")),
	}
}
