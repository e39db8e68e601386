package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string

	tag := func(name string) Middleware {
		return func(next Handler) Handler {
			return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
				order = append(order, name+":before")
				resp, err := next.Handle(ctx, req)
				order = append(order, name+":after")
				return resp, err
			})
		}
	}

	terminal := HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		order = append(order, "terminal")
		return &Response{Content: "ok"}, nil
	})

	h := Chain(tag("outer"), tag("inner"))(terminal)
	resp, err := h.Handle(context.Background(), &Request{Operation: OpGeneration, Model: "m", UserContent: "q"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, []string{
		"outer:before", "inner:before", "terminal", "inner:after", "outer:after",
	}, order)
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"valid", Request{Operation: OpValidation, Model: "m", UserContent: "q"}, false},
		{"missing operation", Request{Model: "m", UserContent: "q"}, true},
		{"missing model", Request{Operation: OpGeneration, UserContent: "q"}, true},
		{"missing content", Request{Operation: OpGeneration, Model: "m"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHandlerFuncPassesThroughErrors(t *testing.T) {
	boom := errors.New("boom")
	h := HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		return nil, boom
	})
	_, err := h.Handle(context.Background(), &Request{})
	assert.ErrorIs(t, err, boom)
}

func TestResponseClone(t *testing.T) {
	orig := &Response{Content: "text", Usage: Usage{TotalTokens: 7}}
	cp := orig.Clone()
	cp.Content = "changed"
	assert.Equal(t, "text", orig.Content)
	assert.Equal(t, int64(7), cp.Usage.TotalTokens)

	var nilResp *Response
	assert.Nil(t, nilResp.Clone())
}
