// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/ids"
	"github.com/tuxedo-labs/tuxedo/tuxedo"
)

// httpOracle implements follower.Oracle against a plain JSON HTTP
// endpoint. This is deliberately minimal: spec.md's Non-goals exclude
// RPC transport details, and the pack carries no JSON-RPC/gRPC client to
// ground a richer one on, so this uses net/http directly rather than
// reaching for an unrelated ecosystem client library — see DESIGN.md.
type httpOracle struct {
	base string
	hc   *http.Client
}

func newHTTPOracle(base string) *httpOracle {
	return &httpOracle{base: "http://" + base, hc: http.DefaultClient}
}

type hashAtResponse struct {
	Hash string `json:"hash"`
	OK   bool   `json:"ok"`
}

// HashAt implements follower.Oracle.
func (o *httpOracle) HashAt(ctx context.Context, height uint32) (ids.ID, bool, error) {
	var resp hashAtResponse
	if err := o.getJSON(ctx, fmt.Sprintf("%s/hash_at/%d", o.base, height), &resp); err != nil {
		return ids.ID{}, false, err
	}
	if !resp.OK {
		return ids.ID{}, false, nil
	}
	hash, err := ids.FromHex(resp.Hash)
	if err != nil {
		return ids.ID{}, false, fmt.Errorf("oracle: decoding hash_at response: %w", err)
	}
	return hash, true, nil
}

type blockAtResponse struct {
	BlockHex string `json:"block_hex"`
}

// BlockAt implements follower.Oracle.
func (o *httpOracle) BlockAt(ctx context.Context, hash ids.ID) (*tuxedo.Block, error) {
	var resp blockAtResponse
	if err := o.getJSON(ctx, fmt.Sprintf("%s/block_at/%s", o.base, hash.Hex()), &resp); err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(resp.BlockHex)
	if err != nil {
		return nil, fmt.Errorf("oracle: decoding block_at response: %w", err)
	}
	var block tuxedo.Block
	if err := codec.Unmarshal(raw, &block); err != nil {
		return nil, fmt.Errorf("oracle: unmarshaling block: %w", err)
	}
	return &block, nil
}

func (o *httpOracle) getJSON(ctx context.Context, url string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := o.hc.Do(req)
	if err != nil {
		return fmt.Errorf("oracle: calling %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oracle: %s returned status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
