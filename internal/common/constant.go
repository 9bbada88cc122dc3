package common

// AuthorizationHeaderName carries "Bearer <access token>" on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the scheme prefix expected in AuthorizationHeaderName.
const BearerPrefix = "Bearer "

// TokenQueryParam is the query parameter accepted by the session endpoint,
// since browsers cannot set headers on a websocket handshake.
const TokenQueryParam = "token"

// TokenTypeBearer is reported to clients as token_type.
const TokenTypeBearer = "bearer"
