// internal/rpc/nodes.go
package rpc

import "strings"

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

var mainnetNodes = []string{
	"https://api.hive.blog",
	"https://api.deathwing.me",
	"https://api.openhive.network",
	"https://rpc.mahdiyari.info",
	"https://techcoderx.com",
	"https://hive-api.arcange.eu",
}

var testnetNodes = []string{
	"https://testnet.openhive.network",
}

// DefaultNodes returns the preset endpoint list for a network mode, primary
// first. Unknown modes map to mainnet.
func DefaultNodes(network string) []string {
	var preset []string
	if network == NetworkTestnet {
		preset = testnetNodes
	} else {
		preset = mainnetNodes
	}
	out := make([]string, len(preset))
	copy(out, preset)
	return out
}

// normalizeNodes trims, strips trailing slashes and drops duplicates while
// preserving order.
func normalizeNodes(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimRight(strings.TrimSpace(u), "/")
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// readOnlyMethods is the fixed set of idempotent RPC methods whose results
// may be served from the response cache.
var readOnlyMethods = map[string]struct{}{
	"condenser_api.get_accounts":                  {},
	"condenser_api.get_block":                     {},
	"condenser_api.get_block_header":              {},
	"condenser_api.get_chain_properties":          {},
	"condenser_api.get_config":                    {},
	"condenser_api.get_content":                   {},
	"condenser_api.get_content_replies":           {},
	"condenser_api.get_discussions_by_blog":       {},
	"condenser_api.get_discussions_by_created":    {},
	"condenser_api.get_dynamic_global_properties": {},
	"condenser_api.get_follow_count":              {},
	"condenser_api.lookup_accounts":               {},
	"database_api.find_accounts":                  {},
	"database_api.get_dynamic_global_properties":  {},
	"bridge.get_account_posts":                    {},
	"bridge.get_discussion":                       {},
	"bridge.get_profile":                          {},
}

// IsReadOnly reports whether a method is classified cacheable.
func IsReadOnly(method string) bool {
	_, ok := readOnlyMethods[method]
	return ok
}
