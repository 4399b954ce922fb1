/*
Package msaccount implements shared accounts controlled by a fixed set of
owners with an M-of-N approval threshold.

Every state changing action of such an account is first queued as a
proposal. Proposals receive dense, gap free sequence numbers and are
resolved strictly in that order: a proposal can be executed or rejected
only when all lower numbered proposals were resolved before it. Votes are
tallied against the current owner set, so removing an owner invalidates
their pending votes and adding them back restores them.

When an approved proposal is executed its payload runs with the account's
own authority. The `Authenticate` authenticator resolves that authority in
downstream handlers. Existing key controlled accounts can be converted
into multisig accounts with a replay protected signature of their current
key, optionally revoking the standalone key. The `RevocationDecorator`
enforces such revocations on every transaction.

An `Initializer` loads accounts and the package configuration from the
genesis file.
*/
package msaccount
