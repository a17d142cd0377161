package service

import (
	"context"

	"github.com/drforse/match/internal/fetch"
	"github.com/drforse/match/internal/signature"
)

// resolver turns an ImageSource into signatures, downloading referenced
// content when needed.
type resolver struct {
	engine  *signature.Engine
	fetcher *fetch.Client
}

func (r resolver) bytes(ctx context.Context, src ImageSource) ([]byte, error) {
	if src.IsRaw() {
		return src.data, nil
	}
	return r.fetcher.Get(ctx, src.url)
}

func (r resolver) sign(ctx context.Context, src ImageSource) (signature.Signature, error) {
	data, err := r.bytes(ctx, src)
	if err != nil {
		return nil, err
	}
	return r.engine.Sign(data)
}

func (r resolver) signAll(ctx context.Context, src ImageSource) ([]signature.Signature, error) {
	data, err := r.bytes(ctx, src)
	if err != nil {
		return nil, err
	}
	return r.engine.SignAll(data)
}
