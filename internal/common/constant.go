package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the operator
// access token on diagnostics requests.
const AccessTokenHeaderName = "access_token"

// TimestampLayout is the layout used for every human-readable timestamp the
// server writes into timelines and notifications.
const TimestampLayout = "2006-01-02 15:04:05"
