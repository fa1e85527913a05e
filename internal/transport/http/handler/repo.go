// Package handler aggregates the HTTP handler groups.
package handler

import (
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/handler/admin"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/handler/chat"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/handler/impersonate"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/handler/infra"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/handler/payment"
)

// Repo holds the handler groups for the HTTP router.
type Repo struct {
	Infra       *infra.Handlers
	Chat        *chat.Handlers
	Impersonate *impersonate.Handler
	Payment     *payment.Handlers
	Admin       *admin.Handlers
}
