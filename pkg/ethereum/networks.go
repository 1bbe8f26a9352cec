package ethereum

// Networks maps well-known network names to their chain IDs. Connect uses
// it to verify that the node behind an endpoint serves the network the
// caller asked for.
var Networks = map[string]uint64{
	"mainnet": 1,
	"goerli":  5,
	"holesky": 17000,
	"sepolia": 11155111,
}

// ChainIDOf returns the chain ID of a well-known network name.
func ChainIDOf(name string) (uint64, bool) {
	id, ok := Networks[name]
	return id, ok
}
