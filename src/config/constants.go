package config

// SignMessagePreamble is the wallet-ownership message a user signs during
// registration. The caller appends a millisecond timestamp so signatures
// cannot be replayed across registrations.
const SignMessagePreamble = `Welcome to Loopy!

Sign this message to verify your wallet ownership.

This signature will be used to:
• Register your account
• Enable privacy features
• Access your shielded balances

This request will not trigger a blockchain transaction or cost any gas fees.

Timestamp: `

const (
	// Namespaced session state files, fully erased on logout.
	CacheStateFile = "loopy-cache.json"
	AuthStateFile  = "loopy-auth.json"
)
