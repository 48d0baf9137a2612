// internal/rpc/tapos.go
package rpc

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// TaposSnapshot is the block reference every write transaction embeds. It is
// kept in a dedicated single-slot cache because write operations need it
// constantly and refetching on every broadcast is wasteful.
type TaposSnapshot struct {
	HeadBlockID    string
	HeadBlockNum   uint32
	HeadBlockTime  time.Time
	RefBlockNum    uint16
	RefBlockPrefix uint32
	CachedAt       time.Time
}

type dynamicGlobalProps struct {
	HeadBlockNumber uint32 `json:"head_block_number"`
	HeadBlockID     string `json:"head_block_id"`
	Time            string `json:"time"`
}

// hiveTimeLayout is the zone-less UTC format Hive nodes emit.
const hiveTimeLayout = "2006-01-02T15:04:05"

// snapshotFromProps derives the TAPOS reference fields: the low 16 bits of
// the head block number, and the little-endian uint32 at bytes 4..8 of the
// head block id.
func snapshotFromProps(p dynamicGlobalProps, now time.Time) (*TaposSnapshot, error) {
	raw, err := hex.DecodeString(p.HeadBlockID)
	if err != nil || len(raw) < 8 {
		return nil, fmt.Errorf("%w: bad head_block_id %q", ErrProtocol, p.HeadBlockID)
	}
	blockTime, err := time.Parse(hiveTimeLayout, p.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: bad head block time %q", ErrProtocol, p.Time)
	}
	return &TaposSnapshot{
		HeadBlockID:    p.HeadBlockID,
		HeadBlockNum:   p.HeadBlockNumber,
		HeadBlockTime:  blockTime.UTC(),
		RefBlockNum:    uint16(p.HeadBlockNumber & 0xFFFF),
		RefBlockPrefix: binary.LittleEndian.Uint32(raw[4:8]),
		CachedAt:       now,
	}, nil
}

// Tapos returns the cached snapshot while it is younger than the staleness
// window, refreshing otherwise. A failed refresh serves the prior snapshot
// stale rather than erroring; with no prior snapshot the underlying error
// propagates.
func (c *Client) Tapos(ctx context.Context) (*TaposSnapshot, error) {
	c.taposMu.Lock()
	snap := c.tapos
	c.taposMu.Unlock()

	if snap != nil && c.now().Sub(snap.CachedAt) < taposMaxAge {
		return snap, nil
	}

	fresh, err := c.refreshTapos(ctx)
	if err != nil {
		if snap != nil {
			c.logger.Warn("TAPOS refresh failed, serving stale snapshot",
				zap.Uint32("head_block", snap.HeadBlockNum),
				zap.Error(err))
			return snap, nil
		}
		return nil, err
	}

	c.taposMu.Lock()
	c.tapos = fresh
	c.taposMu.Unlock()
	return fresh, nil
}

func (c *Client) refreshTapos(ctx context.Context) (*TaposSnapshot, error) {
	raw, err := c.Call(ctx, "condenser_api.get_dynamic_global_properties", []interface{}{})
	if err != nil {
		return nil, err
	}
	var props dynamicGlobalProps
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return snapshotFromProps(props, c.now())
}
