// Package nav parses and builds the front-end routes.
package nav

import (
	"net/url"
	"strconv"
	"strings"
)

// Kind is the screen a route leads to.
type Kind int

const (
	KindNotFound Kind = iota
	KindHome
	KindRegister
)

func (k Kind) String() string {
	switch k {
	case KindHome:
		return "home"
	case KindRegister:
		return "register"
	default:
		return "not-found"
	}
}

// Route is a parsed location.
type Route struct {
	Kind Kind
	// UserID is set on /register/{id}; zero means create mode.
	UserID int64
	// Highlight is the optional highlight token of the home route.
	Highlight string
}

// Paths.
const (
	HomePath     = "/homepage"
	RegisterPath = "/register"
)

// Parse resolves raw into a route. The empty path redirects to the home
// route.
func Parse(raw string) Route {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Route{Kind: KindNotFound}
	}
	p := strings.TrimRight(u.Path, "/")
	switch {
	case p == "" || p == HomePath:
		return Route{Kind: KindHome, Highlight: u.Query().Get("highlight")}
	case p == RegisterPath:
		return Route{Kind: KindRegister}
	case strings.HasPrefix(p, RegisterPath+"/"):
		id, err := strconv.ParseInt(strings.TrimPrefix(p, RegisterPath+"/"), 10, 64)
		if err != nil || id <= 0 {
			return Route{Kind: KindNotFound}
		}
		return Route{Kind: KindRegister, UserID: id}
	default:
		return Route{Kind: KindNotFound}
	}
}

// Home returns the listing route, highlighting token when it is not empty.
func Home(highlight string) string {
	if highlight == "" {
		return HomePath
	}
	return HomePath + "?" + url.Values{"highlight": {highlight}}.Encode()
}

// Register returns the editor route; id 0 means create mode.
func Register(id int64) string {
	if id == 0 {
		return RegisterPath
	}
	return RegisterPath + "/" + strconv.FormatInt(id, 10)
}

// String renders r back into a path.
func (r Route) String() string {
	switch r.Kind {
	case KindHome:
		return Home(r.Highlight)
	case KindRegister:
		return Register(r.UserID)
	default:
		return ""
	}
}
