package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// API key on outbound requests.
const AccessTokenHeaderName = "access_token"

// UsersTable is the single persisted collection.
const UsersTable = "users"

// UsersChangeChannel is the Postgres NOTIFY channel raised by the users
// table trigger.
const UsersChangeChannel = "users_changes"

// API key roles.
const (
	RoleAnon    = "anon"
	RoleService = "service"
)
