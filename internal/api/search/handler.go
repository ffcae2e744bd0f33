package search

import "userfinderapi/internal/api"

type Handler struct {
	*api.Handler
}
