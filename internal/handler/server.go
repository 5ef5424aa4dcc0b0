package handler

import "github.com/Meshack-Mesh/house-hunt-view/api"

// Server implements api.ServerInterface by composing the domain handlers.
type Server struct {
	*AuthHandler
	*PropertiesHandler
	*LandlordHandler
	*PaymentsHandler
	*LocationsHandler
	*ContactHandler
	*AdminHandler
}

var _ api.ServerInterface = (*Server)(nil)
