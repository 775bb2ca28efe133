// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import "strings"

// =============================================================================
// ROUTES
// =============================================================================

// RouteKind names a screen.
type RouteKind int

const (
	RouteHome RouteKind = iota
	RouteChat
	RouteChats
	RouteQnAs
	RouteQnA
	RouteNotFound
)

// Route addresses a screen, with an id for detail screens.
type Route struct {
	Kind RouteKind
	ID   string
}

// String renders the route as a path.
func (r Route) String() string {
	switch r.Kind {
	case RouteHome:
		return "/"
	case RouteChat:
		return "/chats/" + r.ID
	case RouteChats:
		return "/chats"
	case RouteQnAs:
		return "/qnas"
	case RouteQnA:
		return "/qnas/" + r.ID
	default:
		return "/not-found"
	}
}

// ParseRoute maps a path to a route. Unknown paths land on not-found.
func ParseRoute(path string) Route {
	path = strings.Trim(path, "/")
	if path == "" {
		return Route{Kind: RouteHome}
	}

	parts := strings.Split(path, "/")
	switch {
	case parts[0] == "chats" && len(parts) == 1:
		return Route{Kind: RouteChats}
	case parts[0] == "chats" && len(parts) == 2 && parts[1] != "":
		return Route{Kind: RouteChat, ID: parts[1]}
	case parts[0] == "qnas" && len(parts) == 1:
		return Route{Kind: RouteQnAs}
	case parts[0] == "qnas" && len(parts) == 2 && parts[1] != "":
		return Route{Kind: RouteQnA, ID: parts[1]}
	default:
		return Route{Kind: RouteNotFound}
	}
}
