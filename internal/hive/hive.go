// internal/hive/hive.go

// Package hive exposes thin typed wrappers over the resilient RPC transport
// for the condenser_api surface this system actually uses. It shapes
// requests and decodes responses, nothing more: validation of user input and
// transaction signing live outside this module, and BroadcastTransaction
// only transports an already-signed transaction object.
package hive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/enrique89ve/HivePublisher-sub000/internal/rpc"
)

type Client struct {
	rpc *rpc.Client
}

func New(rpcClient *rpc.Client) *Client {
	return &Client{rpc: rpcClient}
}

// RPC exposes the underlying transport.
func (c *Client) RPC() *rpc.Client {
	return c.rpc
}

// Account is the subset of a condenser_api account object the publisher
// reads. Reputation stays raw: nodes return it as a number or a string
// depending on version.
type Account struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Created      string          `json:"created"`
	PostCount    int             `json:"post_count"`
	Reputation   json.RawMessage `json:"reputation"`
	JSONMetadata string          `json:"json_metadata"`
}

// Content is a post or comment as condenser_api.get_content returns it.
type Content struct {
	ID           int64  `json:"id"`
	Author       string `json:"author"`
	Permlink     string `json:"permlink"`
	Category     string `json:"category"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	Created      string `json:"created"`
	LastUpdate   string `json:"last_update"`
	Children     int    `json:"children"`
	JSONMetadata string `json:"json_metadata"`
}

// GlobalProperties is the dynamic global properties object, the lightweight
// chain-state summary used by probes and TAPOS derivation.
type GlobalProperties struct {
	HeadBlockNumber   uint32 `json:"head_block_number"`
	HeadBlockID       string `json:"head_block_id"`
	Time              string `json:"time"`
	CurrentWitness    string `json:"current_witness"`
	LastIrreversible  uint32 `json:"last_irreversible_block_num"`
	CurrentSupply     string `json:"current_supply"`
	CurrentHBDSupply  string `json:"current_hbd_supply"`
	HBDInterestRate   uint32 `json:"hbd_interest_rate"`
	HBDPrintRate      uint32 `json:"hbd_print_rate"`
	MaximumBlockSize  uint32 `json:"maximum_block_size"`
	ParticipationRate int64  `json:"participation_count"`
}

// GetAccounts fetches account objects by name.
func (c *Client) GetAccounts(ctx context.Context, names []string) ([]Account, error) {
	raw, err := c.rpc.Call(ctx, "condenser_api.get_accounts", []interface{}{names})
	if err != nil {
		return nil, err
	}
	var accounts []Account
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return accounts, nil
}

// GetContent fetches a single post or comment.
func (c *Client) GetContent(ctx context.Context, author, permlink string) (*Content, error) {
	raw, err := c.rpc.Call(ctx, "condenser_api.get_content", []interface{}{author, permlink})
	if err != nil {
		return nil, err
	}
	var content Content
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return &content, nil
}

// GetDynamicGlobalProperties fetches the chain-state summary.
func (c *Client) GetDynamicGlobalProperties(ctx context.Context) (*GlobalProperties, error) {
	raw, err := c.rpc.Call(ctx, "condenser_api.get_dynamic_global_properties", []interface{}{})
	if err != nil {
		return nil, err
	}
	var props GlobalProperties
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, fmt.Errorf("decode global properties: %w", err)
	}
	return &props, nil
}

// Tapos returns the cached block reference for transaction construction.
func (c *Client) Tapos(ctx context.Context) (*rpc.TaposSnapshot, error) {
	return c.rpc.Tapos(ctx)
}

// BroadcastTransaction submits an already-signed, already-serialized
// transaction object. Signing and key handling happen upstream.
func (c *Client) BroadcastTransaction(ctx context.Context, signedTx json.RawMessage) (json.RawMessage, error) {
	return c.rpc.Call(ctx, "condenser_api.broadcast_transaction", []interface{}{signedTx})
}
