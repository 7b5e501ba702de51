// Package auth decides who is calling askgate and what they may do.
//
// Authentication uses a chain of authenticators with three-outcome voting:
// each returns Yes (identity found), No (credentials present but invalid),
// or Abstain (not its kind of credentials). The first Yes or No wins, and
// a request on which every authenticator abstains is rejected.
//
// Public endpoints end the chain with the noop authenticator, which turns
// every anonymous caller into an identity keyed by client address so rate
// limits still apply. Admin endpoints additionally pass through Require.
package auth
