package gateway

import (
	"mentor/pkg/api"
)

// Aliases to the api package so channel implementations and the gateway
// share one vocabulary.
type Channel = api.Channel
type MessageResponder = api.MessageResponder
type ChannelContext = api.ChannelContext
type UnifiedMessage = api.UnifiedMessage
type SessionContext = api.SessionContext
type Response = api.Response
type MessageHandler = api.MessageHandler
