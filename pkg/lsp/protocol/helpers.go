package protocol

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
)

// NonNilSlice keeps empty results encoded as [] rather than null.
func NonNilSlice[T any](x []T) []T {
	if x == nil {
		return []T{}
	}
	return x
}

func newParseError(err error) *jrpc2.Error {
	return &jrpc2.Error{
		Code:    -32700, // Parse error
		Message: err.Error(),
	}
}

func createHandler[T any, O any](method func(ctx context.Context, params *T) (O, error)) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (interface{}, error) {
		if ctx.Err() != nil {
			return nil, RequestCancelledError
		}
		ctx = ApplyRequestToZerolog(ctx, r)
		var params T
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}

		result, err := method(ctx, &params)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

func createEmptyResultHandler[T any](method func(ctx context.Context, params *T) error) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (interface{}, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		var params T
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}
		return nil, method(ctx, &params)
	})
}

func createEmptyHandler(method func(ctx context.Context) error) handler.Func {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (interface{}, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		return nil, method(ctx)
	})
}

type Callbacker interface {
	Callback(ctx context.Context, method string, params interface{}) (*jrpc2.Response, error)
	Notify(ctx context.Context, method string, params interface{}) error
}

func createNotify[I any](ctx context.Context, client Callbacker, method string, params *I) error {
	return client.Notify(ctx, method, params)
}

func createClientCall[I any, O any](ctx context.Context, client *jrpc2.Client, method string, params *I, result *O) error {
	res, err := client.Call(ctx, method, params)
	if err != nil {
		return err
	}

	if result != nil {
		return res.UnmarshalResult(result)
	}
	return nil
}

func createClientEmptyCall(ctx context.Context, client *jrpc2.Client, method string) error {
	_, err := client.Call(ctx, method, nil)
	return err
}

func createClientNotify[I any](ctx context.Context, client *jrpc2.Client, method string, params *I) error {
	return client.Notify(ctx, method, params)
}

func createClientEmptyNotify(ctx context.Context, client *jrpc2.Client, method string) error {
	return client.Notify(ctx, method, nil)
}
